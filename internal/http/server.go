package http

import (
	"context"
	"net/http"
	"sync"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/middleware/cors"
	"tracker/internal/middleware/ratelimit"
	"tracker/internal/middleware/security"
	"tracker/internal/middleware/trace"
	"tracker/internal/ports"
)

// Tracker is the application surface the handlers drive.
type Tracker interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
	ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error)
	SetBudget(ctx context.Context, b core.Budget) error
	ListBudgets(ctx context.Context, month string) ([]core.Budget, error)
	Summary(ctx context.Context, month string) (core.MonthSummary, error)
	Alerts(ctx context.Context, month string) ([]core.Alert, error)
}

// Options tune the middleware chain.
type Options struct {
	Logger *log.Logger
	// RateLimitPerMinute caps POST requests per client IP. Zero disables the limit.
	RateLimitPerMinute int
	CORS               cors.Config
}

// DefaultOptions allows every origin and does not limit writes.
func DefaultOptions() Options {
	return Options{
		Logger: log.New(log.DefaultConfig()),
		CORS:   cors.AllowAll(),
	}
}

type Server struct {
	http.Server
	tracker     Tracker
	health      ports.Pinger
	rateLimiter *ratelimit.Limiter
	trace       *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// health may be nil, in which case /readyz always reports ready.
func NewServer(addr string, tracker Tracker, health ports.Pinger, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	ips := security.NewClientIPResolver()
	s := &Server{
		tracker: tracker,
		health:  health,
		trace:   trace.NewMiddleware(opts.Logger, ips.ClientIP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /transactions", s.handleListTransactions)
	mux.HandleFunc("POST /budgets", s.handleSetBudget)
	mux.HandleFunc("GET /budgets", s.handleListBudgets)
	mux.HandleFunc("GET /budgets/alerts", s.handleAlerts)
	mux.HandleFunc("GET /summary", s.handleSummary)
	mux.HandleFunc("/", handleNotFound)

	var h http.Handler = mux
	if opts.RateLimitPerMinute > 0 {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		})
		limitWrites := s.rateLimiter.Middleware(ips.ClientIP, func(w http.ResponseWriter, r *http.Request) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, ips.ClientIP(r), log.FieldPath, r.URL.Path)
			writeDetail(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
		})
		h = onlyMethod(http.MethodPost, limitWrites)(h)
	}
	h = cors.Middleware(opts.CORS)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = log.Middleware(logger)(h)
	h = s.trace.Middleware(h)

	s.Server = http.Server{
		Addr:    addr,
		Handler: h,
	}
	return s
}

// onlyMethod applies mw to requests of one method and passes the rest through.
func onlyMethod(method string, mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		wrapped := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == method {
				wrapped.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Metrics exposes request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.trace.GetMetrics()
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
