package outbox

import (
	"context"
	"fmt"

	"assessment-gateway/internal/logger"
	"assessment-gateway/internal/models"
)

type TaskStore interface {
	PendingForOrder(ctx context.Context, orderID string) ([]models.OutboxTask, error)
	Pending(ctx context.Context, limit int, maxAttempts int) ([]models.OutboxTask, error)
	Claim(ctx context.Context, id int64) (bool, error)
	MarkDone(ctx context.Context, id int64) error
	RecordFailure(ctx context.Context, id int64, attempts int, lastError string, final bool) error
}

type TokenActivator interface {
	ActivateForOrder(ctx context.Context, orderID string) (int64, error)
}

type AnalyticsRecorder interface {
	RecordEvent(ctx context.Context, event models.AnalyticsEvent) error
}

type InvoiceRequester interface {
	RequestInvoice(ctx context.Context, orderID string) error
}

// Dispatcher executes side-effect tasks. Every task is independent: one
// failing is logged, counted against its attempt cap and left for the worker
// to retry, and never stops the tasks behind it.
type Dispatcher struct {
	Store       TaskStore
	Tokens      TokenActivator
	Analytics   AnalyticsRecorder
	Invoices    InvoiceRequester
	MaxAttempts int
	Logger      *logger.Logger
}

func NewDispatcher(store TaskStore, tokens TokenActivator, analytics AnalyticsRecorder, invoices InvoiceRequester, maxAttempts int, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		Store:       store,
		Tokens:      tokens,
		Analytics:   analytics,
		Invoices:    invoices,
		MaxAttempts: maxAttempts,
		Logger:      log,
	}
}

// DispatchForOrder drains an order's pending tasks in enqueue order. Called
// inline right after the order update commits; errors never propagate to the
// payment response.
func (d *Dispatcher) DispatchForOrder(ctx context.Context, orderID string) {
	tasks, err := d.Store.PendingForOrder(ctx, orderID)
	if err != nil {
		d.Logger.Error("OUTBOX", fmt.Sprintf("load tasks for order %s: %v", orderID, err))
		return
	}
	for _, task := range tasks {
		d.Run(ctx, task)
	}
}

// DispatchBatch drains up to limit pending tasks across all orders. Called
// by the background worker.
func (d *Dispatcher) DispatchBatch(ctx context.Context, limit int) {
	tasks, err := d.Store.Pending(ctx, limit, d.MaxAttempts)
	if err != nil {
		d.Logger.Error("OUTBOX", fmt.Sprintf("load pending tasks: %v", err))
		return
	}
	for _, task := range tasks {
		d.Run(ctx, task)
	}
}

// Run claims and executes one task, recording the outcome.
func (d *Dispatcher) Run(ctx context.Context, task models.OutboxTask) {
	claimed, err := d.Store.Claim(ctx, task.ID)
	if err != nil {
		d.Logger.Error("OUTBOX", fmt.Sprintf("claim task %d (%s): %v", task.ID, task.Kind, err))
		return
	}
	if !claimed {
		return
	}

	if err := d.execute(ctx, task); err != nil {
		attempts := task.Attempts + 1
		final := attempts >= d.MaxAttempts
		d.Logger.Error("OUTBOX", fmt.Sprintf("task %d (%s) for order %s failed (attempt %d/%d): %v",
			task.ID, task.Kind, task.OrderID, attempts, d.MaxAttempts, err))
		if recErr := d.Store.RecordFailure(ctx, task.ID, attempts, err.Error(), final); recErr != nil {
			d.Logger.Error("OUTBOX", fmt.Sprintf("record failure for task %d: %v", task.ID, recErr))
		}
		return
	}

	if err := d.Store.MarkDone(ctx, task.ID); err != nil {
		d.Logger.Error("OUTBOX", fmt.Sprintf("mark task %d done: %v", task.ID, err))
		return
	}
	d.Logger.LogSideEffect(string(task.Kind), task.OrderID, "task completed")
}

func (d *Dispatcher) execute(ctx context.Context, task models.OutboxTask) error {
	switch task.Kind {
	case models.TaskActivateTokens:
		_, err := d.Tokens.ActivateForOrder(ctx, task.OrderID)
		return err
	case models.TaskRecordAnalytics:
		event := models.AnalyticsEvent{
			EventType:  models.EventPaymentCompleted,
			EntityType: models.EntityOrder,
			EntityID:   task.OrderID,
			Metadata:   task.Payload,
		}
		return d.Analytics.RecordEvent(ctx, event)
	case models.TaskGenerateInvoice:
		return d.Invoices.RequestInvoice(ctx, task.OrderID)
	default:
		return fmt.Errorf("unknown task kind %q", task.Kind)
	}
}
