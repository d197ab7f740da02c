package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AlertLevel classifies how close spending is to a budget limit.
type AlertLevel string

const (
	AlertWarning    AlertLevel = "warning"
	AlertOverBudget AlertLevel = "over_budget"
)

var (
	warningRatio = decimal.NewFromFloat(0.8)
	overRatio    = decimal.NewFromInt(1)
	hundred      = decimal.NewFromInt(100)
)

// Alert is a derived, non-persisted budget threshold notice.
type Alert struct {
	Level    AlertLevel
	Month    string
	Category string
	Spent    Money
	Limit    Money
	Percent  int64 // ratio*100, truncated
}

// Message renders the alert the way API clients display it.
func (a Alert) Message() string {
	switch a.Level {
	case AlertOverBudget:
		return fmt.Sprintf("Over budget in %s (spent %s).", a.Category, a.Spent)
	default:
		return fmt.Sprintf("Warning: %s budget at %d%%.", a.Category, a.Percent)
	}
}

// BudgetRatio is spent/limit, or zero when the limit is not positive.
func BudgetRatio(spent, limit Money) decimal.Decimal {
	if !limit.IsPositive() {
		return decimal.Zero
	}
	return spent.Decimal().Div(limit.Decimal())
}

// EvaluateBudget returns the alert for one budget, if any.
func EvaluateBudget(b Budget, spent Money) (Alert, bool) {
	ratio := BudgetRatio(spent, b.Limit)
	alert := Alert{
		Month:    b.Month,
		Category: b.Category,
		Spent:    spent,
		Limit:    b.Limit,
		Percent:  ratio.Mul(hundred).IntPart(),
	}
	switch {
	case ratio.GreaterThanOrEqual(overRatio):
		alert.Level = AlertOverBudget
	case ratio.GreaterThanOrEqual(warningRatio):
		alert.Level = AlertWarning
	default:
		return Alert{}, false
	}
	return alert, true
}

// EvaluateAlerts walks budgets in order and emits alerts for those at or past the
// warning threshold. Categories missing from spend count as zero.
func EvaluateAlerts(budgets []Budget, spend map[string]Money) []Alert {
	alerts := make([]Alert, 0, len(budgets))
	for _, b := range budgets {
		if a, ok := EvaluateBudget(b, spend[b.Category]); ok {
			alerts = append(alerts, a)
		}
	}
	return alerts
}

// AlertMessages renders alerts in order.
func AlertMessages(alerts []Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Message())
	}
	return out
}
