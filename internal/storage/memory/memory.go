package memory

import (
	"context"
	"sync"

	"tracker/internal/core"
)

// Store is an in-process backend with the same semantics as the SQLite one.
// Data lives only as long as the process.
type Store struct {
	mu      sync.Mutex
	nextTx  int64
	nextBud int64
	txs     []core.Transaction
	budgets []core.Budget
}

func New() *Store {
	return &Store{}
}

// CreateTransaction stores the transaction and assigns the next id.
func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTx++
	t.ID = s.nextTx
	s.txs = append(s.txs, t)
	return t.ID, nil
}

func (s *Store) ListTransactions(_ context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		if f.Matches(t.Date) {
			out = append(out, t)
		}
	}
	return out, nil
}

// SetBudget drops any budget for the pair and appends the new one.
func (s *Store) SetBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.budgets[:0]
	for _, existing := range s.budgets {
		if existing.Month == b.Month && existing.Category == b.Category {
			continue
		}
		kept = append(kept, existing)
	}
	s.nextBud++
	b.ID = s.nextBud
	s.budgets = append(kept, b)
	return nil
}

func (s *Store) ListBudgets(_ context.Context, month string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Budget, 0)
	for _, b := range s.budgets {
		if b.Month == month {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) MonthTotals(_ context.Context, month string) (core.Money, core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var income, expense core.Money
	for _, t := range s.inMonth(month) {
		switch t.Type {
		case core.Income:
			income = income.Add(t.Amount)
		case core.Expense:
			expense = expense.Add(t.Amount)
		}
	}
	return income, expense, nil
}

// CategorySpend lists categories in first-seen order.
func (s *Store) CategorySpend(_ context.Context, month string) ([]core.CategorySpend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := map[string]int{}
	out := make([]core.CategorySpend, 0)
	for _, t := range s.inMonth(month) {
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, core.CategorySpend{Category: t.Category})
		}
		if t.Type == core.Expense {
			out[i].Spent = out[i].Spent.Add(t.Amount)
		}
	}
	return out, nil
}

func (s *Store) CategoryExpense(_ context.Context, month, category string) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var spent core.Money
	for _, t := range s.inMonth(month) {
		if t.Type == core.Expense && t.Category == category {
			spent = spent.Add(t.Amount)
		}
	}
	return spent, nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

// inMonth must be called with mu held.
func (s *Store) inMonth(month string) []core.Transaction {
	var out []core.Transaction
	for _, t := range s.txs {
		if t.Date.MonthKey() == month {
			out = append(out, t)
		}
	}
	return out
}
