package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used for storage and transport.
const DateLayout = "2006-01-02"

const (
	Income  TxType = "INCOME"
	Expense TxType = "EXPENSE"
)

type (
	TxType string

	Date struct {
		time.Time
	}

	Transaction struct {
		ID       int64
		Date     Date
		Amount   Money
		Type     TxType
		Category string
		Note     string
	}

	Budget struct {
		ID       int64
		Month    string // YYYY-MM
		Category string
		Limit    Money
	}

	// TransactionFilter bounds a transaction listing. Zero dates leave that side open.
	TransactionFilter struct {
		From Date
		To   Date
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidTxType = errors.New("invalid tx_type, expected INCOME or EXPENSE")
	ErrEmptyMonth    = errors.New("empty month")
	ErrNegativeLimit = errors.New("limit_amount cannot be negative")
)

// ParseTxType accepts only the two literal tags.
func ParseTxType(s string) (TxType, error) {
	switch t := TxType(s); t {
	case Income, Expense:
		return t, nil
	default:
		return "", ErrInvalidTxType
	}
}

func (t TxType) String() string {
	return string(t)
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: parsed}, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM period the date belongs to.
func (d Date) MonthKey() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Validate checks the fields that carry meaning. Negative amounts are allowed:
// the sign convention comes from the transaction type, not the amount.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if _, err := ParseTxType(string(t.Type)); err != nil {
		return err
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Month) == "" {
		return ErrEmptyMonth
	}
	if b.Limit.IsNegative() {
		return ErrNegativeLimit
	}
	return nil
}

// Matches reports whether the date falls inside the inclusive bounds.
func (f TransactionFilter) Matches(d Date) bool {
	key := d.String()
	if !f.From.IsZero() && key < f.From.String() {
		return false
	}
	if !f.To.IsZero() && key > f.To.String() {
		return false
	}
	return true
}

// IsValidationError reports whether err is one of the input validation sentinels.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidDate, ErrInvalidAmount, ErrInvalidTxType,
		ErrEmptyMonth, ErrNegativeLimit,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
