package payment

import (
	"context"
	"errors"
	"fmt"

	"assessment-gateway/internal/analytics"
	"assessment-gateway/internal/logger"
	"assessment-gateway/internal/models"
)

var (
	// ErrMissingField means orderId or paymentStatus was absent. Rejected
	// before any store access.
	ErrMissingField = errors.New("orderId and paymentStatus are required")
	// ErrUnknownStatus means paymentStatus is outside the canonical set.
	ErrUnknownStatus = errors.New("unrecognized payment status")
	// ErrDuplicateRequest means the supplied Idempotency-Key was already used.
	ErrDuplicateRequest = errors.New("duplicate request for idempotency key")
)

type OrderStore interface {
	ApplyStatusUpdate(ctx context.Context, upd models.OrderStatusUpdate, buildTasks func(*models.Order) []models.OutboxTask) (*models.Order, error)
}

// SideEffectDispatcher drains an order's enqueued side-effect tasks. Its
// outcome is observable through logs and the outbox table only.
type SideEffectDispatcher interface {
	DispatchForOrder(ctx context.Context, orderID string)
}

type IdempotencyGuard interface {
	Claim(ctx context.Context, key string, orderID string) (bool, error)
	Release(ctx context.Context, key string, orderID string) error
}

// Service applies payment-status transitions to orders and owes the side
// effects of reaching "completed". One write is authoritative (the order
// update plus its task enqueue, in one transaction); everything after it is
// best-effort.
type Service struct {
	Orders OrderStore
	Guard  IdempotencyGuard // optional
	Logger *logger.Logger

	// Effects is optional: with a nil dispatcher, enqueued tasks wait for the
	// background worker instead of running inline.
	Effects SideEffectDispatcher
}

func NewService(orders OrderStore, effects SideEffectDispatcher, guard IdempotencyGuard, log *logger.Logger) *Service {
	return &Service{Orders: orders, Effects: effects, Guard: guard, Logger: log}
}

// UpdatePaymentStatus validates the request, applies the transition and, for
// completed payments, enqueues and dispatches the side-effect tasks. Only
// validation and the authoritative write can fail the call.
func (s *Service) UpdatePaymentStatus(ctx context.Context, req models.PaymentStatusRequest) (*models.Order, error) {
	if req.OrderID == "" || req.PaymentStatus == "" {
		return nil, ErrMissingField
	}

	status := models.PaymentStatus(req.PaymentStatus)
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, req.PaymentStatus)
	}

	if s.Guard != nil && req.IdempotencyKey != "" {
		ok, err := s.Guard.Claim(ctx, req.IdempotencyKey, req.OrderID)
		if err != nil {
			// The guard is an extra safety net; losing redis must not take
			// down payment processing.
			s.Logger.Error("PAYMENT", fmt.Sprintf("idempotency claim for order %s: %v", req.OrderID, err))
		} else if !ok {
			return nil, fmt.Errorf("key %q: %w", req.IdempotencyKey, ErrDuplicateRequest)
		}
	}

	upd := models.OrderStatusUpdate{
		OrderID:          req.OrderID,
		PaymentStatus:    status,
		PaymentReference: req.PaymentReference,
		PaymentMetadata:  req.PaymentMetadata,
	}

	var buildTasks func(*models.Order) []models.OutboxTask
	if status == models.StatusCompleted {
		buildTasks = completionTasks
	}

	order, err := s.Orders.ApplyStatusUpdate(ctx, upd, buildTasks)
	if err != nil {
		if s.Guard != nil && req.IdempotencyKey != "" {
			if relErr := s.Guard.Release(ctx, req.IdempotencyKey, req.OrderID); relErr != nil {
				s.Logger.Error("PAYMENT", fmt.Sprintf("idempotency release for order %s: %v", req.OrderID, relErr))
			}
		}
		return nil, err
	}

	s.Logger.LogPayment("STATUS_UPDATED", order.ID, fmt.Sprintf("payment status set to %s", order.PaymentStatus))

	if order.PaymentStatus == models.StatusCompleted && s.Effects != nil {
		s.Effects.DispatchForOrder(ctx, order.ID)
	}

	return order, nil
}

// completionTasks builds the side effects owed once an order reached
// "completed": token activation for guest orders, the analytics append, and
// the invoice call. Enqueue order is execution order.
func completionTasks(order *models.Order) []models.OutboxTask {
	var tasks []models.OutboxTask

	if order.IsGuestOrder {
		tasks = append(tasks, models.OutboxTask{
			OrderID: order.ID,
			Kind:    models.TaskActivateTokens,
			Status:  models.TaskPending,
		})
	}

	tasks = append(tasks,
		models.OutboxTask{
			OrderID: order.ID,
			Kind:    models.TaskRecordAnalytics,
			Payload: analytics.PaymentCompletedEvent(order).Metadata,
			Status:  models.TaskPending,
		},
		models.OutboxTask{
			OrderID: order.ID,
			Kind:    models.TaskGenerateInvoice,
			Status:  models.TaskPending,
		},
	)
	return tasks
}
