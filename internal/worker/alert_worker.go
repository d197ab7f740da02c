package worker

import (
	"context"
	"fmt"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/log"
)

// AlertEvaluator is the read side of the tracker service the worker needs.
type AlertEvaluator interface {
	Alerts(ctx context.Context, month string) ([]core.Alert, error)
	CategoryAlert(ctx context.Context, month, category string) (core.Alert, bool, error)
}

// AlertWorker turns tracker events into budget alert log lines.
type AlertWorker struct {
	tracker AlertEvaluator
	logger  *log.Logger
	now     func() time.Time
}

func NewAlertWorker(tracker AlertEvaluator, logger *log.Logger) *AlertWorker {
	return &AlertWorker{
		tracker: tracker,
		logger:  logger.WithComponent(log.ComponentWorker),
		now:     time.Now,
	}
}

// HandleEvent re-evaluates the budget touched by an event. Returning an error
// makes the consumer requeue the message.
func (w *AlertWorker) HandleEvent(ctx context.Context, event *amqp.Event) error {
	if event.Month == "" {
		w.logger.WarnContext(ctx, "Dropping event without month",
			log.FieldEventType, event.Type)
		return nil
	}

	switch event.Type {
	case amqp.EventTransactionCreated:
		// Income never moves a budget closer to its limit.
		if event.TxType != string(core.Expense) {
			w.logger.DebugContext(ctx, "Skipping non-expense transaction",
				log.FieldMonth, event.Month,
				log.FieldCategory, event.Category,
				log.FieldTxType, event.TxType)
			return nil
		}
	case amqp.EventBudgetSet:
	default:
		w.logger.WarnContext(ctx, "Unknown event type", log.FieldEventType, event.Type)
		return nil
	}

	alert, ok, err := w.tracker.CategoryAlert(ctx, event.Month, event.Category)
	if err != nil {
		return fmt.Errorf("evaluate %s/%s: %w", event.Month, event.Category, err)
	}
	if ok {
		w.report(ctx, alert)
	}
	return nil
}

// StartupCheck evaluates every budget of the current month so alerts raised
// while the worker was down are not lost.
func (w *AlertWorker) StartupCheck(ctx context.Context) error {
	month := w.now().Format("2006-01")
	alerts, err := w.tracker.Alerts(ctx, month)
	if err != nil {
		return fmt.Errorf("startup alert check: %w", err)
	}

	for _, a := range alerts {
		w.report(ctx, a)
	}
	w.logger.InfoContext(ctx, "Startup alert check completed",
		log.FieldMonth, month,
		"alerts", len(alerts))
	return nil
}

func (w *AlertWorker) report(ctx context.Context, a core.Alert) {
	w.logger.WarnContext(ctx, a.Message(),
		log.FieldAlertLevel, a.Level,
		log.FieldMonth, a.Month,
		log.FieldCategory, a.Category,
		log.FieldAmount, a.Spent.String(),
		log.FieldLimit, a.Limit.String(),
		log.FieldPercent, a.Percent)
}
