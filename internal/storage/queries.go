package storage

import (
	"context"
	"database/sql"
)

// Transaction is a raw transactions row. Columns are nullable because the schema
// carries no constraints.
type Transaction struct {
	ID       int64
	TxDate   sql.NullString
	Amount   sql.NullFloat64
	TxType   sql.NullString
	Category sql.NullString
	Note     sql.NullString
}

// Budget is a raw budgets row.
type Budget struct {
	ID          int64
	Month       sql.NullString
	Category    sql.NullString
	LimitAmount sql.NullFloat64
}

const createTransaction = `
INSERT INTO transactions (tx_date, amount, tx_type, category, note)
VALUES (?, ?, ?, ?, ?)
`

type CreateTransactionParams struct {
	TxDate   string
	Amount   float64
	TxType   string
	Category string
	Note     string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createTransaction,
		arg.TxDate,
		arg.Amount,
		arg.TxType,
		arg.Category,
		arg.Note,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listTransactions = `
SELECT id, tx_date, amount, tx_type, category, note
FROM transactions
WHERE (? IS NULL OR tx_date >= ?)
  AND (? IS NULL OR tx_date <= ?)
`

type ListTransactionsParams struct {
	FromDate sql.NullString
	ToDate   sql.NullString
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions,
		arg.FromDate, arg.FromDate,
		arg.ToDate, arg.ToDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.TxDate,
			&i.Amount,
			&i.TxType,
			&i.Category,
			&i.Note,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteBudget = `
DELETE FROM budgets WHERE month = ? AND category = ?
`

type DeleteBudgetParams struct {
	Month    string
	Category string
}

func (q *Queries) DeleteBudget(ctx context.Context, arg DeleteBudgetParams) error {
	_, err := q.db.ExecContext(ctx, deleteBudget, arg.Month, arg.Category)
	return err
}

const insertBudget = `
INSERT INTO budgets (month, category, limit_amount) VALUES (?, ?, ?)
`

type InsertBudgetParams struct {
	Month       string
	Category    string
	LimitAmount float64
}

func (q *Queries) InsertBudget(ctx context.Context, arg InsertBudgetParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertBudget, arg.Month, arg.Category, arg.LimitAmount)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listBudgetsByMonth = `
SELECT id, month, category, limit_amount FROM budgets WHERE month = ?
`

func (q *Queries) ListBudgetsByMonth(ctx context.Context, month string) ([]Budget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgetsByMonth, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Budget
	for rows.Next() {
		var i Budget
		if err := rows.Scan(
			&i.ID,
			&i.Month,
			&i.Category,
			&i.LimitAmount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getMonthTotals = `
SELECT
    SUM(CASE WHEN tx_type = 'INCOME' THEN amount ELSE 0 END) AS total_income,
    SUM(CASE WHEN tx_type = 'EXPENSE' THEN amount ELSE 0 END) AS total_expense
FROM transactions
WHERE substr(tx_date, 1, 7) = ?
`

type GetMonthTotalsRow struct {
	TotalIncome  sql.NullFloat64
	TotalExpense sql.NullFloat64
}

func (q *Queries) GetMonthTotals(ctx context.Context, month string) (GetMonthTotalsRow, error) {
	row := q.db.QueryRowContext(ctx, getMonthTotals, month)
	var i GetMonthTotalsRow
	err := row.Scan(&i.TotalIncome, &i.TotalExpense)
	return i, err
}

const getCategorySpend = `
SELECT
    category,
    SUM(CASE WHEN tx_type = 'EXPENSE' THEN amount ELSE 0 END) AS spent
FROM transactions
WHERE substr(tx_date, 1, 7) = ?
GROUP BY category
`

type GetCategorySpendRow struct {
	Category sql.NullString
	Spent    sql.NullFloat64
}

func (q *Queries) GetCategorySpend(ctx context.Context, month string) ([]GetCategorySpendRow, error) {
	rows, err := q.db.QueryContext(ctx, getCategorySpend, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetCategorySpendRow
	for rows.Next() {
		var i GetCategorySpendRow
		if err := rows.Scan(&i.Category, &i.Spent); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCategoryExpense = `
SELECT SUM(amount) AS spent
FROM transactions
WHERE tx_type = 'EXPENSE'
  AND category = ?
  AND substr(tx_date, 1, 7) = ?
`

func (q *Queries) GetCategoryExpense(ctx context.Context, category, month string) (sql.NullFloat64, error) {
	row := q.db.QueryRowContext(ctx, getCategoryExpense, category, month)
	var spent sql.NullFloat64
	err := row.Scan(&spent)
	return spent, err
}
