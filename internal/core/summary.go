package core

// CategorySpend is the EXPENSE total of one category in a month.
type CategorySpend struct {
	Category string
	Spent    Money
}

// MonthSummary aggregates one YYYY-MM period.
type MonthSummary struct {
	Month        string
	TotalIncome  Money
	TotalExpense Money
	Savings      Money
	PerCategory  []CategorySpend
}

// NewMonthSummary derives savings from the totals. A nil per-category slice is
// normalised to empty so callers can serialise it directly.
func NewMonthSummary(month string, income, expense Money, perCategory []CategorySpend) MonthSummary {
	if perCategory == nil {
		perCategory = []CategorySpend{}
	}
	return MonthSummary{
		Month:        month,
		TotalIncome:  income,
		TotalExpense: expense,
		Savings:      income.Sub(expense),
		PerCategory:  perCategory,
	}
}

// SpendByCategory indexes per-category totals by name.
func SpendByCategory(rows []CategorySpend) map[string]Money {
	out := make(map[string]Money, len(rows))
	for _, r := range rows {
		out[r.Category] = out[r.Category].Add(r.Spent)
	}
	return out
}
