package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"assessment-gateway/internal/logger"
	"assessment-gateway/internal/models"
	orderdb "assessment-gateway/internal/order/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations
type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) ApplyStatusUpdate(ctx context.Context, upd models.OrderStatusUpdate, buildTasks func(*models.Order) []models.OutboxTask) (*models.Order, error) {
	args := m.Called(upd, buildTasks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) DispatchForOrder(ctx context.Context, orderID string) {
	m.Called(orderID)
}

type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) Claim(ctx context.Context, key string, orderID string) (bool, error) {
	args := m.Called(key, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGuard) Release(ctx context.Context, key string, orderID string) error {
	args := m.Called(key, orderID)
	return args.Error(0)
}

func newTestService(store *MockOrderStore, dispatcher *MockDispatcher, guard *MockGuard) (*Service, *bytes.Buffer) {
	var logBuf bytes.Buffer
	log := logger.NewWithWriter(&logBuf)

	var effects SideEffectDispatcher
	if dispatcher != nil {
		effects = dispatcher
	}
	var g IdempotencyGuard
	if guard != nil {
		g = guard
	}
	return NewService(store, effects, g, log), &logBuf
}

func TestUpdatePaymentStatus_MissingFields(t *testing.T) {
	store := new(MockOrderStore)
	svc, _ := newTestService(store, nil, nil)

	cases := []models.PaymentStatusRequest{
		{OrderID: "", PaymentStatus: "completed"},
		{OrderID: "ord_1", PaymentStatus: ""},
		{},
	}
	for _, req := range cases {
		_, err := svc.UpdatePaymentStatus(context.Background(), req)
		assert.ErrorIs(t, err, ErrMissingField)
	}

	// Fail-fast: validation failures never reach the store
	store.AssertNotCalled(t, "ApplyStatusUpdate", mock.Anything, mock.Anything)
}

func TestUpdatePaymentStatus_UnknownStatus(t *testing.T) {
	store := new(MockOrderStore)
	svc, _ := newTestService(store, nil, nil)

	_, err := svc.UpdatePaymentStatus(context.Background(), models.PaymentStatusRequest{
		OrderID:       "ord_1",
		PaymentStatus: "refunded",
	})
	assert.ErrorIs(t, err, ErrUnknownStatus)
	store.AssertNotCalled(t, "ApplyStatusUpdate", mock.Anything, mock.Anything)
}

func TestUpdatePaymentStatus_NonCompleted_NoSideEffects(t *testing.T) {
	store := new(MockOrderStore)
	dispatcher := new(MockDispatcher)
	svc, _ := newTestService(store, dispatcher, nil)

	updated := &models.Order{ID: "ord_1", PaymentStatus: models.StatusFailed, UpdatedAt: time.Now()}
	store.On("ApplyStatusUpdate", mock.Anything, mock.Anything).Return(updated, nil)

	order, err := svc.UpdatePaymentStatus(context.Background(), models.PaymentStatusRequest{
		OrderID:       "ord_1",
		PaymentStatus: "failed",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, order.PaymentStatus)

	// Exactly one store write, no task construction, no dispatch
	store.AssertNumberOfCalls(t, "ApplyStatusUpdate", 1)
	upd := store.Calls[0].Arguments.Get(0).(models.OrderStatusUpdate)
	assert.Equal(t, models.StatusFailed, upd.PaymentStatus)
	assert.Nil(t, store.Calls[0].Arguments.Get(1))
	dispatcher.AssertNotCalled(t, "DispatchForOrder", mock.Anything)
}

func TestUpdatePaymentStatus_Completed_GuestOrder(t *testing.T) {
	store := new(MockOrderStore)
	dispatcher := new(MockDispatcher)
	svc, _ := newTestService(store, dispatcher, nil)

	updated := &models.Order{
		ID:               "o1",
		PaymentStatus:    models.StatusCompleted,
		PaymentReference: "ref-1",
		TotalAmount:      29.99,
		Currency:         "USD",
		IsGuestOrder:     true,
		AssessmentType:   "personality",
		UpdatedAt:        time.Now(),
	}
	store.On("ApplyStatusUpdate", mock.Anything, mock.Anything).Return(updated, nil)
	dispatcher.On("DispatchForOrder", "o1").Return()

	order, err := svc.UpdatePaymentStatus(context.Background(), models.PaymentStatusRequest{
		OrderID:          "o1",
		PaymentStatus:    "completed",
		PaymentReference: "ref-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, order.PaymentStatus)
	assert.Equal(t, "ref-1", order.PaymentReference)

	dispatcher.AssertCalled(t, "DispatchForOrder", "o1")

	// Inspect the task builder the store was handed
	buildTasks, ok := store.Calls[0].Arguments.Get(1).(func(*models.Order) []models.OutboxTask)
	require.True(t, ok)
	tasks := buildTasks(updated)
	require.Len(t, tasks, 3)
	assert.Equal(t, models.TaskActivateTokens, tasks[0].Kind)
	assert.Equal(t, models.TaskRecordAnalytics, tasks[1].Kind)
	assert.Equal(t, models.TaskGenerateInvoice, tasks[2].Kind)
	assert.Equal(t, 29.99, tasks[1].Payload["amount"])
	assert.Equal(t, "USD", tasks[1].Payload["currency"])
	assert.Equal(t, true, tasks[1].Payload["is_guest_order"])
	assert.Equal(t, "personality", tasks[1].Payload["assessment_type"])
}

func TestUpdatePaymentStatus_Completed_NonGuestSkipsActivation(t *testing.T) {
	store := new(MockOrderStore)
	dispatcher := new(MockDispatcher)
	svc, _ := newTestService(store, dispatcher, nil)

	updated := &models.Order{ID: "ord_2", PaymentStatus: models.StatusCompleted, IsGuestOrder: false}
	store.On("ApplyStatusUpdate", mock.Anything, mock.Anything).Return(updated, nil)
	dispatcher.On("DispatchForOrder", "ord_2").Return()

	_, err := svc.UpdatePaymentStatus(context.Background(), models.PaymentStatusRequest{
		OrderID:       "ord_2",
		PaymentStatus: "completed",
	})
	require.NoError(t, err)

	buildTasks := store.Calls[0].Arguments.Get(1).(func(*models.Order) []models.OutboxTask)
	tasks := buildTasks(updated)
	require.Len(t, tasks, 2)
	assert.Equal(t, models.TaskRecordAnalytics, tasks[0].Kind)
	assert.Equal(t, models.TaskGenerateInvoice, tasks[1].Kind)
}

func TestUpdatePaymentStatus_StoreFailure(t *testing.T) {
	store := new(MockOrderStore)
	dispatcher := new(MockDispatcher)
	svc, _ := newTestService(store, dispatcher, nil)

	store.On("ApplyStatusUpdate", mock.Anything, mock.Anything).
		Return(nil, orderdb.ErrOrderNotFound)

	_, err := svc.UpdatePaymentStatus(context.Background(), models.PaymentStatusRequest{
		OrderID:       "missing",
		PaymentStatus: "completed",
	})
	assert.ErrorIs(t, err, orderdb.ErrOrderNotFound)
	dispatcher.AssertNotCalled(t, "DispatchForOrder", mock.Anything)
}

func TestUpdatePaymentStatus_IllegalTransition(t *testing.T) {
	store := new(MockOrderStore)
	dispatcher := new(MockDispatcher)
	svc, _ := newTestService(store, dispatcher, nil)

	store.On("ApplyStatusUpdate", mock.Anything, mock.Anything).
		Return(nil, orderdb.ErrIllegalTransition)

	// Re-completing an already completed order is rejected and the side
	// effects do not run a second time.
	_, err := svc.UpdatePaymentStatus(context.Background(), models.PaymentStatusRequest{
		OrderID:       "ord_done",
		PaymentStatus: "completed",
	})
	assert.ErrorIs(t, err, orderdb.ErrIllegalTransition)
	dispatcher.AssertNotCalled(t, "DispatchForOrder", mock.Anything)
}

func TestUpdatePaymentStatus_IdempotencyKey(t *testing.T) {
	store := new(MockOrderStore)
	guard := new(MockGuard)
	svc, _ := newTestService(store, nil, guard)

	guard.On("Claim", "key-1", "ord_1").Return(true, nil).Once()
	guard.On("Claim", "key-1", "ord_1").Return(false, nil).Once()
	store.On("ApplyStatusUpdate", mock.Anything, mock.Anything).
		Return(&models.Order{ID: "ord_1", PaymentStatus: models.StatusCompleted}, nil)

	req := models.PaymentStatusRequest{
		OrderID:        "ord_1",
		PaymentStatus:  "completed",
		IdempotencyKey: "key-1",
	}

	_, err := svc.UpdatePaymentStatus(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.UpdatePaymentStatus(context.Background(), req)
	assert.ErrorIs(t, err, ErrDuplicateRequest)
	store.AssertNumberOfCalls(t, "ApplyStatusUpdate", 1)
}

func TestUpdatePaymentStatus_GuardReleasedOnStoreFailure(t *testing.T) {
	store := new(MockOrderStore)
	guard := new(MockGuard)
	svc, _ := newTestService(store, nil, guard)

	guard.On("Claim", "key-2", "ord_1").Return(true, nil)
	guard.On("Release", "key-2", "ord_1").Return(nil)
	store.On("ApplyStatusUpdate", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset"))

	_, err := svc.UpdatePaymentStatus(context.Background(), models.PaymentStatusRequest{
		OrderID:        "ord_1",
		PaymentStatus:  "completed",
		IdempotencyKey: "key-2",
	})
	require.Error(t, err)
	guard.AssertCalled(t, "Release", "key-2", "ord_1")
}

func TestUpdatePaymentStatus_GuardErrorDoesNotBlockPayment(t *testing.T) {
	store := new(MockOrderStore)
	guard := new(MockGuard)
	svc, logBuf := newTestService(store, nil, guard)

	guard.On("Claim", "key-3", "ord_1").Return(false, errors.New("redis down"))
	store.On("ApplyStatusUpdate", mock.Anything, mock.Anything).
		Return(&models.Order{ID: "ord_1", PaymentStatus: models.StatusFailed}, nil)

	_, err := svc.UpdatePaymentStatus(context.Background(), models.PaymentStatusRequest{
		OrderID:        "ord_1",
		PaymentStatus:  "failed",
		IdempotencyKey: "key-3",
	})
	require.NoError(t, err)

	// The guard failure is observable in the log records
	var found bool
	dec := json.NewDecoder(logBuf)
	for {
		var entry logger.LogEntry
		if decErr := dec.Decode(&entry); decErr != nil {
			break
		}
		if entry.Level == "ERROR" && entry.Category == "PAYMENT" {
			found = true
		}
	}
	assert.True(t, found, "expected an ERROR log record for the guard failure")
}
