package services

import (
	"context"
	"fmt"
	"log/slog"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/ports"
)

// Store is everything the service needs from a storage backend.
type Store interface {
	ports.TransactionWriter
	ports.TransactionLister
	ports.BudgetWriter
	ports.BudgetLister
	ports.SummaryReader
}

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *amqp.Event) error
}

// TrackerService orchestrates tracker operations across storage and the optional
// event bus. It holds no state of its own between calls.
type TrackerService struct {
	store     Store
	publisher EventPublisher
}

// NewTrackerService wires a store with an optional publisher (nil disables events).
func NewTrackerService(store Store, publisher EventPublisher) *TrackerService {
	return &TrackerService{
		store:     store,
		publisher: publisher,
	}
}

// CreateTransaction validates and saves a transaction, then announces it.
func (s *TrackerService) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, amqp.NewTransactionCreatedEvent(t.Date.String(), t.Type.String(), t.Category))
	return id, nil
}

func (s *TrackerService) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// SetBudget replaces the budget of a (month, category) pair.
func (s *TrackerService) SetBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.store.SetBudget(ctx, b); err != nil {
		return fmt.Errorf("save budget: %w", err)
	}

	s.publish(ctx, amqp.NewBudgetSetEvent(b.Month, b.Category))
	return nil
}

func (s *TrackerService) ListBudgets(ctx context.Context, month string) ([]core.Budget, error) {
	if month == "" {
		return nil, core.ErrEmptyMonth
	}
	budgets, err := s.store.ListBudgets(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// Summary computes the monthly income/expense/savings overview.
func (s *TrackerService) Summary(ctx context.Context, month string) (core.MonthSummary, error) {
	if month == "" {
		return core.MonthSummary{}, core.ErrEmptyMonth
	}

	income, expense, err := s.store.MonthTotals(ctx, month)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("summary totals: %w", err)
	}
	perCategory, err := s.store.CategorySpend(ctx, month)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("summary categories: %w", err)
	}

	return core.NewMonthSummary(month, income, expense, perCategory), nil
}

// Alerts evaluates every budget of the month against its category spend.
func (s *TrackerService) Alerts(ctx context.Context, month string) ([]core.Alert, error) {
	if month == "" {
		return nil, core.ErrEmptyMonth
	}

	budgets, err := s.store.ListBudgets(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("alerts budgets: %w", err)
	}
	if len(budgets) == 0 {
		return []core.Alert{}, nil
	}

	spend, err := s.store.CategorySpend(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("alerts spend: %w", err)
	}

	return core.EvaluateAlerts(budgets, core.SpendByCategory(spend)), nil
}

// CategoryAlert evaluates the budget of a single category, if one exists.
func (s *TrackerService) CategoryAlert(ctx context.Context, month, category string) (core.Alert, bool, error) {
	budgets, err := s.store.ListBudgets(ctx, month)
	if err != nil {
		return core.Alert{}, false, fmt.Errorf("category alert budgets: %w", err)
	}
	for _, b := range budgets {
		if b.Category != category {
			continue
		}
		spent, err := s.store.CategoryExpense(ctx, month, category)
		if err != nil {
			return core.Alert{}, false, fmt.Errorf("category alert spend: %w", err)
		}
		alert, ok := core.EvaluateBudget(b, spent)
		return alert, ok, nil
	}
	return core.Alert{}, false, nil
}

// publish never fails the caller: the write already succeeded locally.
func (s *TrackerService) publish(ctx context.Context, event *amqp.Event) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping event", "type", event.Type)
		return
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event",
			"type", event.Type,
			"month", event.Month,
			"category", event.Category,
			"error", err)
	}
}
