package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tracker/internal/core"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

type SQLiteRepository struct {
	db *sql.DB
}

// DSN adds the pragmas every connection needs. busy_timeout makes concurrent
// writers wait on the engine lock instead of failing with SQLITE_BUSY.
func DSN(dbPath string) string {
	return dbPath + "?_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements ports.Pinger
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withConn runs fn on a connection held only for the duration of the call.
func (r *SQLiteRepository) withConn(ctx context.Context, fn func(*Queries) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(New(conn))
}

// withTx runs fn inside a transaction on a scoped connection. The transaction
// commits only if fn returns nil.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*Queries) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(New(conn).WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CreateTransaction implements ports.TransactionWriter
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	var id int64
	err := r.withConn(ctx, func(q *Queries) error {
		var err error
		id, err = q.CreateTransaction(ctx, CreateTransactionParams{
			TxDate:   t.Date.String(),
			Amount:   t.Amount.Float64(),
			TxType:   t.Type.String(),
			Category: t.Category,
			Note:     t.Note,
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"tx_date", t.Date.String(),
		"tx_type", t.Type,
		"category", t.Category,
		"amount", t.Amount.String())

	return id, nil
}

// ListTransactions implements ports.TransactionLister
func (r *SQLiteRepository) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	params := ListTransactionsParams{
		FromDate: nullDate(f.From),
		ToDate:   nullDate(f.To),
	}

	var rows []Transaction
	err := r.withConn(ctx, func(q *Queries) error {
		var err error
		rows, err = q.ListTransactions(ctx, params)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toCore()
		if err != nil {
			return nil, fmt.Errorf("decode transaction %d: %w", row.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// SetBudget implements ports.BudgetWriter. Delete and insert share one
// transaction so readers never observe the pair without a row.
func (r *SQLiteRepository) SetBudget(ctx context.Context, b core.Budget) error {
	var id int64
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.DeleteBudget(ctx, DeleteBudgetParams{Month: b.Month, Category: b.Category}); err != nil {
			return fmt.Errorf("delete previous budget: %w", err)
		}
		var err error
		id, err = q.InsertBudget(ctx, InsertBudgetParams{
			Month:       b.Month,
			Category:    b.Category,
			LimitAmount: b.Limit.Float64(),
		})
		if err != nil {
			return fmt.Errorf("insert budget: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved to SQLite",
		"id", id,
		"month", b.Month,
		"category", b.Category,
		"limit_amount", b.Limit.String())

	return nil
}

// ListBudgets implements ports.BudgetLister
func (r *SQLiteRepository) ListBudgets(ctx context.Context, month string) ([]core.Budget, error) {
	var rows []Budget
	err := r.withConn(ctx, func(q *Queries) error {
		var err error
		rows, err = q.ListBudgetsByMonth(ctx, month)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list budgets for %s: %w", month, err)
	}

	out := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Budget{
			ID:       row.ID,
			Month:    row.Month.String,
			Category: row.Category.String,
			Limit:    core.MoneyFromFloat(row.LimitAmount.Float64),
		})
	}
	return out, nil
}

// MonthTotals implements ports.SummaryReader
func (r *SQLiteRepository) MonthTotals(ctx context.Context, month string) (core.Money, core.Money, error) {
	var totals GetMonthTotalsRow
	err := r.withConn(ctx, func(q *Queries) error {
		var err error
		totals, err = q.GetMonthTotals(ctx, month)
		return err
	})
	if err != nil {
		return core.Money{}, core.Money{}, fmt.Errorf("get month totals: %w", err)
	}

	// SUM over no rows is NULL, which reads as zero
	return core.MoneyFromFloat(totals.TotalIncome.Float64), core.MoneyFromFloat(totals.TotalExpense.Float64), nil
}

// CategorySpend implements ports.SummaryReader
func (r *SQLiteRepository) CategorySpend(ctx context.Context, month string) ([]core.CategorySpend, error) {
	var rows []GetCategorySpendRow
	err := r.withConn(ctx, func(q *Queries) error {
		var err error
		rows, err = q.GetCategorySpend(ctx, month)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get category spend: %w", err)
	}

	out := make([]core.CategorySpend, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.CategorySpend{
			Category: row.Category.String,
			Spent:    core.MoneyFromFloat(row.Spent.Float64),
		})
	}
	return out, nil
}

// CategoryExpense implements ports.SummaryReader
func (r *SQLiteRepository) CategoryExpense(ctx context.Context, month, category string) (core.Money, error) {
	var spent sql.NullFloat64
	err := r.withConn(ctx, func(q *Queries) error {
		var err error
		spent, err = q.GetCategoryExpense(ctx, category, month)
		return err
	})
	if err != nil {
		return core.Money{}, fmt.Errorf("get category expense for %s/%s: %w", month, category, err)
	}
	return core.MoneyFromFloat(spent.Float64), nil
}

func (t Transaction) toCore() (core.Transaction, error) {
	date, err := core.ParseDate(t.TxDate.String)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:       t.ID,
		Date:     date,
		Amount:   core.MoneyFromFloat(t.Amount.Float64),
		Type:     core.TxType(t.TxType.String),
		Category: t.Category.String,
		Note:     t.Note.String,
	}, nil
}

func nullDate(d core.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
