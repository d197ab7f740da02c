package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tracker/internal/core"
	"tracker/internal/log"
)

type statusResponse struct {
	Status string `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type transactionResponse struct {
	ID       int64   `json:"id"`
	TxDate   string  `json:"tx_date"`
	Amount   float64 `json:"amount"`
	TxType   string  `json:"tx_type"`
	Category string  `json:"category"`
	Note     string  `json:"note"`
}

type budgetResponse struct {
	ID          int64   `json:"id"`
	Month       string  `json:"month"`
	Category    string  `json:"category"`
	LimitAmount float64 `json:"limit_amount"`
}

type categorySpendResponse struct {
	Category string  `json:"category"`
	Spent    float64 `json:"spent"`
}

type summaryResponse struct {
	Month        string                  `json:"month"`
	TotalIncome  float64                 `json:"total_income"`
	TotalExpense float64                 `json:"total_expense"`
	Savings      float64                 `json:"savings"`
	PerCategory  []categorySpendResponse `json:"per_category"`
}

type alertsResponse struct {
	Alerts []string `json:"alerts"`
}

func newTransactionsResponse(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, transactionResponse{
			ID:       t.ID,
			TxDate:   t.Date.String(),
			Amount:   t.Amount.Float64(),
			TxType:   t.Type.String(),
			Category: t.Category,
			Note:     t.Note,
		})
	}
	return out
}

func newBudgetsResponse(budgets []core.Budget) []budgetResponse {
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetResponse{
			ID:          b.ID,
			Month:       b.Month,
			Category:    b.Category,
			LimitAmount: b.Limit.Float64(),
		})
	}
	return out
}

func newSummaryResponse(s core.MonthSummary) summaryResponse {
	per := make([]categorySpendResponse, 0, len(s.PerCategory))
	for _, c := range s.PerCategory {
		per = append(per, categorySpendResponse{Category: c.Category, Spent: c.Spent.Float64()})
	}
	return summaryResponse{
		Month:        s.Month,
		TotalIncome:  s.TotalIncome.Float64(),
		TotalExpense: s.TotalExpense.Float64(),
		Savings:      s.Savings.Float64(),
		PerCategory:  per,
	}
}

// writeJSON encodes v with the given status. The body is encoded before the
// status line goes out so an unencodable value becomes a 500.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response",
			log.FieldError, err, log.FieldPath, r.URL.Path)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Detail: "Internal server error"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func writeDetail(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeJSON(w, r, status, errorResponse{Detail: detail})
}

// writeError maps an operation error to its HTTP status: input problems are
// 422, unreadable bodies 400, anything else 500 with a generic detail.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var fe *fieldError
	switch {
	case errors.As(err, &fe), core.IsValidationError(err):
		writeDetail(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, errMalformedBody):
		writeDetail(w, r, http.StatusBadRequest, "Malformed JSON body")
	default:
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, op, nil)
		writeDetail(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
