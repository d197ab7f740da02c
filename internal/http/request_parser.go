package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tracker/internal/core"
)

const maxBodyBytes = 1 << 20

// errMalformedBody marks bodies that are not a JSON object at all.
var errMalformedBody = errors.New("malformed JSON body")

// fieldError reports a missing or mistyped request field.
type fieldError struct {
	field  string
	reason string
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.reason)
}

func missingField(name string) error {
	return &fieldError{field: name, reason: "field required"}
}

// amountField accepts a JSON number or a numeric string. Parsing is deferred
// to validation so a bad amount is reported as 422 rather than a decode error.
type amountField struct {
	raw string
	set bool
}

func (a *amountField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*a = amountField{}
		return nil
	}
	a.set = true
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &a.raw)
	}
	a.raw = string(b)
	return nil
}

func (a amountField) money(field string) (core.Money, error) {
	if !a.set {
		return core.Money{}, missingField(field)
	}
	m, err := core.ParseMoney(a.raw)
	if err != nil {
		return core.Money{}, fmt.Errorf("%s: %w", field, err)
	}
	return m, nil
}

type transactionRequest struct {
	TxDate   *string     `json:"tx_date"`
	Amount   amountField `json:"amount"`
	TxType   *string     `json:"tx_type"`
	Category *string     `json:"category"`
	Note     *string     `json:"note"`
}

// toCore validates presence and format of every field.
func (req transactionRequest) toCore() (core.Transaction, error) {
	if req.TxDate == nil {
		return core.Transaction{}, missingField("tx_date")
	}
	date, err := core.ParseDate(*req.TxDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("tx_date: %w", err)
	}

	amount, err := req.Amount.money("amount")
	if err != nil {
		return core.Transaction{}, err
	}

	if req.TxType == nil {
		return core.Transaction{}, missingField("tx_type")
	}
	txType, err := core.ParseTxType(*req.TxType)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("tx_type: %w", err)
	}

	if req.Category == nil {
		return core.Transaction{}, missingField("category")
	}

	note := ""
	if req.Note != nil {
		note = *req.Note
	}

	t := core.Transaction{
		Date:     date,
		Amount:   amount,
		Type:     txType,
		Category: *req.Category,
		Note:     note,
	}
	return t, t.Validate()
}

type budgetRequest struct {
	Month       *string     `json:"month"`
	Category    *string     `json:"category"`
	LimitAmount amountField `json:"limit_amount"`
}

func (req budgetRequest) toCore() (core.Budget, error) {
	if req.Month == nil {
		return core.Budget{}, missingField("month")
	}
	if req.Category == nil {
		return core.Budget{}, missingField("category")
	}
	limit, err := req.LimitAmount.money("limit_amount")
	if err != nil {
		return core.Budget{}, err
	}

	b := core.Budget{
		Month:    strings.TrimSpace(*req.Month),
		Category: *req.Category,
		Limit:    limit,
	}
	return b, b.Validate()
}

// decodeJSON reads a single JSON object into dst. Syntax problems yield
// errMalformedBody; wrong field types yield a *fieldError.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &fieldError{field: typeErr.Field, reason: "expected " + typeErr.Type.String()}
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

// parseFilter reads the optional inclusive date bounds of a listing.
func parseFilter(r *http.Request) (core.TransactionFilter, error) {
	var f core.TransactionFilter
	q := r.URL.Query()

	if v := strings.TrimSpace(q.Get("from_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, fmt.Errorf("from_date: %w", err)
		}
		f.From = d
	}
	if v := strings.TrimSpace(q.Get("to_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, fmt.Errorf("to_date: %w", err)
		}
		f.To = d
	}
	return f, nil
}

// requireMonth returns the month query parameter or a missing-field error.
func requireMonth(r *http.Request) (string, error) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month == "" {
		return "", missingField("month")
	}
	return month, nil
}
