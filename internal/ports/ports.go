package ports

import (
	"context"

	"tracker/internal/core"
)

// Ports for outbound storage adapters.
type (
	TransactionWriter interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) (id int64, err error)
	}

	// TransactionLister returns transactions inside inclusive date bounds.
	TransactionLister interface {
		ListTransactions(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error)
	}

	// BudgetWriter replaces the budget for a (month, category) pair.
	BudgetWriter interface {
		SetBudget(ctx context.Context, b core.Budget) error
	}

	BudgetLister interface {
		ListBudgets(ctx context.Context, month string) ([]core.Budget, error)
	}

	// SummaryReader provides monthly aggregates.
	SummaryReader interface {
		// MonthTotals returns INCOME and EXPENSE sums for a YYYY-MM month.
		MonthTotals(ctx context.Context, month string) (income, expense core.Money, err error)
		// CategorySpend returns the EXPENSE sum of every category active in the month.
		CategorySpend(ctx context.Context, month string) ([]core.CategorySpend, error)
		// CategoryExpense returns the EXPENSE sum of one category in the month.
		CategoryExpense(ctx context.Context, month, category string) (core.Money, error)
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}
)
