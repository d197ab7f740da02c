package http

import (
	"net/http"

	"tracker/internal/core"
	"tracker/internal/log"
)

const apiName = "Smart Expense Tracker API"

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, messageResponse{Message: apiName})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeDetail(w, r, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	writeJSON(w, r, http.StatusOK, statusResponse{Status: "ready"})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, r, http.StatusNotFound, "Not Found")
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	t, err := req.toCore()
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	id, err := s.tracker.CreateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		append([]any{"id", id}, log.NewFields().
			WithTransaction(t.Date.String(), t.Type.String(), t.Category, t.Amount.String()).
			ToSlice()...)...)
	writeJSON(w, r, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}

	txs, err := s.tracker.ListTransactions(r.Context(), f)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newTransactionsResponse(txs))
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpSet, err)
		return
	}
	b, err := req.toCore()
	if err != nil {
		writeError(w, r, log.OpSet, err)
		return
	}

	if err := s.tracker.SetBudget(r.Context(), b); err != nil {
		writeError(w, r, log.OpSet, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Budget set",
		log.NewFields().WithBudget(b.Month, b.Category, b.Limit.String()).ToSlice()...)
	writeJSON(w, r, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	month, err := requireMonth(r)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}

	budgets, err := s.tracker.ListBudgets(r.Context(), month)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newBudgetsResponse(budgets))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, err := requireMonth(r)
	if err != nil {
		writeError(w, r, log.OpSummary, err)
		return
	}

	summary, err := s.tracker.Summary(r.Context(), month)
	if err != nil {
		writeError(w, r, log.OpSummary, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newSummaryResponse(summary))
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	month, err := requireMonth(r)
	if err != nil {
		writeError(w, r, log.OpAlerts, err)
		return
	}

	alerts, err := s.tracker.Alerts(r.Context(), month)
	if err != nil {
		writeError(w, r, log.OpAlerts, err)
		return
	}
	writeJSON(w, r, http.StatusOK, alertsResponse{Alerts: core.AlertMessages(alerts)})
}
