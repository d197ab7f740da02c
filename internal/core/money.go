// Package core provides money parsing and handling utilities.
//
// This file contains the decimal-backed Money type used for transaction
// amounts and budget limits. Storage keeps amounts as REAL columns, so the
// float conversions live here and nowhere else.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount. The zero value is 0.
type Money struct {
	d decimal.Decimal
}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d}
}

// MoneyFromFloat converts a stored REAL value.
func MoneyFromFloat(f float64) Money {
	return Money{d: decimal.NewFromFloat(f)}
}

// MoneyFromInt is a convenience for whole amounts.
func MoneyFromInt(i int64) Money {
	return Money{d: decimal.NewFromInt(i)}
}

// ParseMoney parses a plain decimal number with a dot separator. Grouping
// commas are rejected, and so is anything a REAL column cannot hold.
//
// Examples:
//
//	ParseMoney("12.34") -> 12.34
//	ParseMoney("-5")    -> -5
//	ParseMoney("1,000") -> ErrInvalidAmount
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, ",") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if math.IsInf(d.InexactFloat64(), 0) {
		return Money{}, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// Float64 returns the nearest float, for persistence and JSON output.
func (m Money) Float64() float64 {
	return m.d.InexactFloat64()
}

func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

func (m Money) Sub(o Money) Money {
	return Money{d: m.d.Sub(o.d)}
}

func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

func (m Money) IsPositive() bool {
	return m.d.IsPositive()
}

func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

// String formats the amount with two decimal places.
func (m Money) String() string {
	return m.d.StringFixed(2)
}
