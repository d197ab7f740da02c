package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"tracker/internal/core"
	"tracker/internal/services"
	"tracker/internal/storage"
	"tracker/internal/storage/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := memory.New()
	srv := NewServer(":0", services.NewTrackerService(store, nil), store, DefaultOptions())
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func mustOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRootHealthAndNotFound(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/", "")
	mustOK(t, rr)
	if got := decode[messageResponse](t, rr); got.Message != "Smart Expense Tracker API" {
		t.Fatalf("unexpected root message %q", got.Message)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		mustOK(t, do(t, srv, http.MethodGet, path, ""))
	}

	rr = do(t, srv, http.MethodGet, "/nope", "")
	if rr.Code != http.StatusNotFound || decode[errorResponse](t, rr).Detail == "" {
		t.Fatalf("expected JSON 404, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestCreateAndListTransactions(t *testing.T) {
	srv := newTestServer(t)

	mustOK(t, do(t, srv, http.MethodPost, "/transactions",
		`{"tx_date":"2024-01-10","amount":40,"tx_type":"EXPENSE","category":"food","note":"groceries"}`))
	rr := do(t, srv, http.MethodPost, "/transactions",
		`{"tx_date":"2024-02-01","amount":"12.5","tx_type":"INCOME","category":"gift"}`)
	mustOK(t, rr)
	if decode[statusResponse](t, rr).Status != "ok" {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/transactions", "")
	mustOK(t, rr)
	txs := decode[[]transactionResponse](t, rr)
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	first := txs[0]
	if first.TxDate != "2024-01-10" || first.Amount != 40 || first.TxType != "EXPENSE" || first.Category != "food" || first.Note != "groceries" {
		t.Fatalf("round trip mismatch: %+v", first)
	}
	if txs[1].Note != "" || txs[1].Amount != 12.5 {
		t.Fatalf("expected default note and parsed amount: %+v", txs[1])
	}
	if txs[0].ID == txs[1].ID {
		t.Fatalf("ids must be distinct")
	}
}

func TestListTransactionsBounds(t *testing.T) {
	srv := newTestServer(t)
	for _, d := range []string{"2024-01-01", "2024-01-15", "2024-01-31"} {
		mustOK(t, do(t, srv, http.MethodPost, "/transactions",
			`{"tx_date":"`+d+`","amount":1,"tx_type":"EXPENSE","category":"x"}`))
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?from_date=2024-01-15", 2},
		{"?to_date=2024-01-15", 2},
		{"?from_date=2024-01-15&to_date=2024-01-15", 1},
		{"?from_date=2024-02-01&to_date=2024-01-01", 0},
	}
	for _, tt := range tests {
		rr := do(t, srv, http.MethodGet, "/transactions"+tt.query, "")
		mustOK(t, rr)
		if got := len(decode[[]transactionResponse](t, rr)); got != tt.want {
			t.Errorf("%q: got %d transactions, want %d", tt.query, got, tt.want)
		}
		if tt.want == 0 && strings.TrimSpace(rr.Body.String()) != "[]" {
			t.Errorf("empty list must encode as [], got %s", rr.Body.String())
		}
	}

	if rr := do(t, srv, http.MethodGet, "/transactions?from_date=01-01-2024", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("malformed bound: expected 422, got %d", rr.Code)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad tx_type", `{"tx_date":"2024-01-01","amount":1,"tx_type":"TRANSFER","category":"x"}`, http.StatusUnprocessableEntity},
		{"lowercase tx_type", `{"tx_date":"2024-01-01","amount":1,"tx_type":"expense","category":"x"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"tx_date":"2024-13-01","amount":1,"tx_type":"EXPENSE","category":"x"}`, http.StatusUnprocessableEntity},
		{"bad amount", `{"tx_date":"2024-01-01","amount":"lots","tx_type":"EXPENSE","category":"x"}`, http.StatusUnprocessableEntity},
		{"grouped amount", `{"tx_date":"2024-01-01","amount":"1,000","tx_type":"EXPENSE","category":"rent"}`, http.StatusUnprocessableEntity},
		{"comma decimal", `{"tx_date":"2024-01-01","amount":"1,5","tx_type":"EXPENSE","category":"rent"}`, http.StatusUnprocessableEntity},
		{"amount overflows", `{"tx_date":"2024-01-01","amount":1e400,"tx_type":"EXPENSE","category":"rent"}`, http.StatusUnprocessableEntity},
		{"amount string overflows", `{"tx_date":"2024-01-01","amount":"-1e400","tx_type":"EXPENSE","category":"rent"}`, http.StatusUnprocessableEntity},
		{"missing amount", `{"tx_date":"2024-01-01","tx_type":"EXPENSE","category":"x"}`, http.StatusUnprocessableEntity},
		{"missing category", `{"tx_date":"2024-01-01","amount":1,"tx_type":"EXPENSE"}`, http.StatusUnprocessableEntity},
		{"wrong type", `{"tx_date":20240101,"amount":1,"tx_type":"EXPENSE","category":"x"}`, http.StatusUnprocessableEntity},
		{"malformed json", `{"tx_date":`, http.StatusBadRequest},
		{"not an object", `[1,2]`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/transactions", tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
			if decode[errorResponse](t, rr).Detail == "" {
				t.Fatalf("missing detail: %s", rr.Body.String())
			}
		})
	}

	rr := do(t, srv, http.MethodGet, "/transactions", "")
	if got := len(decode[[]transactionResponse](t, rr)); got != 0 {
		t.Fatalf("rejected input must not be stored, found %d rows", got)
	}

	mustOK(t, do(t, srv, http.MethodPost, "/transactions",
		`{"tx_date":"2024-01-01","amount":-5,"tx_type":"EXPENSE","category":"refund"}`))
}

func TestSummary(t *testing.T) {
	srv := newTestServer(t)
	for _, body := range []string{
		`{"tx_date":"2024-01-05","amount":100,"tx_type":"INCOME","category":"salary"}`,
		`{"tx_date":"2024-01-10","amount":40,"tx_type":"EXPENSE","category":"food"}`,
		`{"tx_date":"2024-01-15","amount":10,"tx_type":"EXPENSE","category":"food"}`,
		`{"tx_date":"2024-02-01","amount":999,"tx_type":"EXPENSE","category":"food"}`,
	} {
		mustOK(t, do(t, srv, http.MethodPost, "/transactions", body))
	}

	rr := do(t, srv, http.MethodGet, "/summary?month=2024-01", "")
	mustOK(t, rr)
	first := rr.Body.String()
	sum := decode[summaryResponse](t, rr)
	if sum.Month != "2024-01" || sum.TotalIncome != 100 || sum.TotalExpense != 50 || sum.Savings != 50 {
		t.Fatalf("unexpected totals: %+v", sum)
	}
	spent := map[string]float64{}
	for _, c := range sum.PerCategory {
		spent[c.Category] = c.Spent
	}
	if len(spent) != 2 || spent["food"] != 50 || spent["salary"] != 0 {
		t.Fatalf("unexpected per_category: %+v", sum.PerCategory)
	}

	if again := do(t, srv, http.MethodGet, "/summary?month=2024-01", "").Body.String(); again != first {
		t.Fatalf("summary is not idempotent:\n%s\n%s", first, again)
	}

	rr = do(t, srv, http.MethodGet, "/summary?month=1999-01", "")
	mustOK(t, rr)
	if !strings.Contains(rr.Body.String(), `"per_category":[]`) {
		t.Fatalf("empty month must have empty per_category, got %s", rr.Body.String())
	}
	if empty := decode[summaryResponse](t, rr); empty.TotalIncome != 0 || empty.TotalExpense != 0 || empty.Savings != 0 {
		t.Fatalf("empty month totals: %+v", empty)
	}

	if rr := do(t, srv, http.MethodGet, "/summary", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing month: expected 422, got %d", rr.Code)
	}
}

func TestBudgetsUpsertAndValidation(t *testing.T) {
	srv := newTestServer(t)

	mustOK(t, do(t, srv, http.MethodPost, "/budgets", `{"month":"2024-01","category":"food","limit_amount":100}`))
	mustOK(t, do(t, srv, http.MethodPost, "/budgets", `{"month":"2024-01","category":"food","limit_amount":"250.5"}`))
	mustOK(t, do(t, srv, http.MethodPost, "/budgets", `{"month":"2024-01","category":"travel","limit_amount":0}`))

	rr := do(t, srv, http.MethodGet, "/budgets?month=2024-01", "")
	mustOK(t, rr)
	budgets := decode[[]budgetResponse](t, rr)
	if len(budgets) != 2 {
		t.Fatalf("expected one row per category, got %+v", budgets)
	}
	for _, b := range budgets {
		if b.Category == "food" && b.LimitAmount != 250.5 {
			t.Fatalf("second write must win: %+v", b)
		}
	}

	for _, body := range []string{
		`{"month":"2024-01","category":"food"}`,
		`{"month":"2024-01","limit_amount":1}`,
		`{"category":"food","limit_amount":1}`,
		`{"month":"2024-01","category":"food","limit_amount":-1}`,
		`{"month":"2024-01","category":"food","limit_amount":"abc"}`,
		`{"month":"2024-01","category":"food","limit_amount":1e400}`,
	} {
		if rr := do(t, srv, http.MethodPost, "/budgets", body); rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: expected 422, got %d", body, rr.Code)
		}
	}
}

func TestBudgetAlerts(t *testing.T) {
	tests := []struct {
		name  string
		limit string
		spent string
		want  []string
	}{
		{"warning at 80%", "100", "80", []string{"Warning: food budget at 80%."}},
		{"truncated percent", "100", "99.9", []string{"Warning: food budget at 99%."}},
		{"over budget at 100%", "100", "100", []string{"Over budget in food (spent 100.00)."}},
		{"below threshold", "100", "79", []string{}},
		{"zero limit", "0", "500", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			mustOK(t, do(t, srv, http.MethodPost, "/budgets",
				`{"month":"2024-03","category":"food","limit_amount":`+tt.limit+`}`))
			mustOK(t, do(t, srv, http.MethodPost, "/transactions",
				`{"tx_date":"2024-03-02","amount":`+tt.spent+`,"tx_type":"EXPENSE","category":"food"}`))
			mustOK(t, do(t, srv, http.MethodPost, "/transactions",
				`{"tx_date":"2024-03-03","amount":1000,"tx_type":"INCOME","category":"food"}`))

			rr := do(t, srv, http.MethodGet, "/budgets/alerts?month=2024-03", "")
			mustOK(t, rr)
			got := decode[alertsResponse](t, rr).Alerts
			if len(got) != len(tt.want) {
				t.Fatalf("alerts = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("alerts = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestAlertsEmptyMonthAndDanglingData(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/budgets/alerts?month=2030-01", "")
	mustOK(t, rr)
	if strings.TrimSpace(rr.Body.String()) != `{"alerts":[]}` {
		t.Fatalf("expected empty alerts, got %s", rr.Body.String())
	}

	// Budgets without transactions and transactions without budgets are both valid.
	mustOK(t, do(t, srv, http.MethodPost, "/budgets", `{"month":"2030-01","category":"ghost","limit_amount":10}`))
	mustOK(t, do(t, srv, http.MethodPost, "/transactions",
		`{"tx_date":"2030-01-02","amount":500,"tx_type":"EXPENSE","category":"unbudgeted"}`))
	rr = do(t, srv, http.MethodGet, "/budgets/alerts?month=2030-01", "")
	mustOK(t, rr)
	if got := decode[alertsResponse](t, rr).Alerts; len(got) != 0 {
		t.Fatalf("expected no alerts, got %v", got)
	}

	if rr := do(t, srv, http.MethodGet, "/budgets/alerts", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing month: expected 422, got %d", rr.Code)
	}
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/transactions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent || rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight: status=%d headers=%v", rr.Code, rr.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/summary?month=2024-01", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	mustOK(t, rr)
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header on simple request")
	}
}

func TestRateLimitAppliesToWritesOnly(t *testing.T) {
	store := memory.New()
	opts := DefaultOptions()
	opts.RateLimitPerMinute = 1
	srv := NewServer(":0", services.NewTrackerService(store, nil), store, opts)
	defer srv.Shutdown(context.Background())

	body := `{"month":"2024-01","category":"food","limit_amount":1}`
	mustOK(t, do(t, srv, http.MethodPost, "/budgets", body))
	if rr := do(t, srv, http.MethodPost, "/budgets", body); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	for i := 0; i < 3; i++ {
		mustOK(t, do(t, srv, http.MethodGet, "/budgets?month=2024-01", ""))
	}
}

func TestWritesAreUnlimitedByDefault(t *testing.T) {
	srv := newTestServer(t)

	body := `{"tx_date":"2024-01-01","amount":1,"tx_type":"EXPENSE","category":"coffee"}`
	for i := 0; i < 100; i++ {
		mustOK(t, do(t, srv, http.MethodPost, "/transactions", body))
	}
	rr := do(t, srv, http.MethodGet, "/transactions", "")
	if got := len(decode[[]transactionResponse](t, rr)); got != 100 {
		t.Fatalf("expected 100 stored transactions, got %d", got)
	}
}

func TestBlankCategoryRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	mustOK(t, do(t, srv, http.MethodPost, "/transactions",
		`{"tx_date":"2024-02-01","amount":12.5,"tx_type":"EXPENSE","category":""}`))
	mustOK(t, do(t, srv, http.MethodPost, "/budgets",
		`{"month":"2024-02","category":"","limit_amount":10}`))

	rr := do(t, srv, http.MethodGet, "/transactions", "")
	mustOK(t, rr)
	txs := decode[[]transactionResponse](t, rr)
	if len(txs) != 1 || txs[0].Category != "" || txs[0].Amount != 12.5 {
		t.Fatalf("unexpected transactions: %+v", txs)
	}

	rr = do(t, srv, http.MethodGet, "/budgets/alerts?month=2024-02", "")
	mustOK(t, rr)
	if got := decode[alertsResponse](t, rr).Alerts; len(got) != 1 || got[0] != "Over budget in  (spent 12.50)." {
		t.Fatalf("unexpected alerts: %q", got)
	}
}

type brokenTracker struct{ Tracker }

func (brokenTracker) Summary(context.Context, string) (core.MonthSummary, error) {
	return core.MonthSummary{}, errors.New("disk I/O error")
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("closed") }

func TestStorageFailures(t *testing.T) {
	srv := NewServer(":0", brokenTracker{}, downPinger{}, DefaultOptions())
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodGet, "/summary?month=2024-01", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "disk") {
		t.Fatalf("internal error leaked to client: %s", rr.Body.String())
	}

	if rr := do(t, srv, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from readyz, got %d", rr.Code)
	}
}

func TestSQLiteBackedServer(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "expense.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	defer repo.Close()

	srv := NewServer(":0", services.NewTrackerService(repo, nil), repo, DefaultOptions())
	defer srv.Shutdown(context.Background())

	for _, body := range []string{
		`{"tx_date":"2024-01-05","amount":100,"tx_type":"INCOME","category":"salary"}`,
		`{"tx_date":"2024-01-10","amount":40,"tx_type":"EXPENSE","category":"food"}`,
		`{"tx_date":"2024-01-15","amount":10,"tx_type":"EXPENSE","category":"food"}`,
	} {
		mustOK(t, do(t, srv, http.MethodPost, "/transactions", body))
	}
	mustOK(t, do(t, srv, http.MethodPost, "/budgets", `{"month":"2024-01","category":"food","limit_amount":60}`))

	sum := decode[summaryResponse](t, do(t, srv, http.MethodGet, "/summary?month=2024-01", ""))
	if sum.TotalIncome != 100 || sum.TotalExpense != 50 || sum.Savings != 50 {
		t.Fatalf("unexpected totals: %+v", sum)
	}

	alerts := decode[alertsResponse](t, do(t, srv, http.MethodGet, "/budgets/alerts?month=2024-01", "")).Alerts
	if len(alerts) != 1 || alerts[0] != "Warning: food budget at 83%." {
		t.Fatalf("unexpected alerts: %v", alerts)
	}
}
