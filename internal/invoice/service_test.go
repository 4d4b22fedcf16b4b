package invoice

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"assessment-gateway/internal/logger"
	"assessment-gateway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type MockOrderReader struct {
	mock.Mock
}

func (m *MockOrderReader) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendReceipt(ctx context.Context, email string, inv *models.Invoice) error {
	args := m.Called(email, inv)
	return args.Error(0)
}

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	t.Cleanup(func() { sqldb.Close() })

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, bunDB.ResetModel(context.Background(), (*models.Invoice)(nil)))
	return bunDB
}

func completedOrder(id string) *models.Order {
	return &models.Order{
		ID:             id,
		AssessmentType: "personality",
		PaymentStatus:  models.StatusCompleted,
		TotalAmount:    29.99,
		Currency:       "USD",
		IsGuestOrder:   true,
		GuestEmail:     "guest@example.com",
		CreatedAt:      time.Now().UTC(),
	}
}

func TestGenerateForOrder_CompletedOrder(t *testing.T) {
	db := setupTestDB(t)
	orders := new(MockOrderReader)
	mailer := new(MockMailer)
	orders.On("GetOrderByID", "ord_1").Return(completedOrder("ord_1"), nil)
	mailer.On("SendReceipt", "guest@example.com", mock.Anything).Return(nil)

	svc := NewService(db, orders, mailer, logger.NewWithWriter(&bytes.Buffer{}))

	inv, err := svc.GenerateForOrder(context.Background(), "ord_1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(inv.ID, "inv_"))
	assert.Equal(t, "ord_1", inv.OrderID)
	assert.True(t, strings.HasPrefix(inv.Number, "INV-"))
	assert.True(t, strings.HasSuffix(inv.Number, "-ord_1"))
	assert.Equal(t, 29.99, inv.Amount)
	assert.Equal(t, "USD", inv.Currency)

	var stored models.Invoice
	require.NoError(t, db.NewSelect().Model(&stored).Where("order_id = ?", "ord_1").Scan(context.Background()))
	assert.Equal(t, inv.ID, stored.ID)
	mailer.AssertCalled(t, "SendReceipt", "guest@example.com", mock.Anything)
}

func TestGenerateForOrder_NotCompleted(t *testing.T) {
	db := setupTestDB(t)
	orders := new(MockOrderReader)
	order := completedOrder("ord_2")
	order.PaymentStatus = models.StatusPending
	orders.On("GetOrderByID", "ord_2").Return(order, nil)

	svc := NewService(db, orders, nil, logger.NewWithWriter(&bytes.Buffer{}))

	_, err := svc.GenerateForOrder(context.Background(), "ord_2")
	assert.ErrorIs(t, err, ErrOrderNotCompleted)

	count, countErr := db.NewSelect().Model((*models.Invoice)(nil)).Count(context.Background())
	require.NoError(t, countErr)
	assert.Zero(t, count)
}

func TestGenerateForOrder_SecondRequestReturnsExisting(t *testing.T) {
	db := setupTestDB(t)
	orders := new(MockOrderReader)
	orders.On("GetOrderByID", "ord_3").Return(completedOrder("ord_3"), nil)

	svc := NewService(db, orders, nil, logger.NewWithWriter(&bytes.Buffer{}))

	first, err := svc.GenerateForOrder(context.Background(), "ord_3")
	require.NoError(t, err)

	second, err := svc.GenerateForOrder(context.Background(), "ord_3")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Number, second.Number)

	count, err := db.NewSelect().Model((*models.Invoice)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGenerateForOrder_MailerFailureIsNonFatal(t *testing.T) {
	db := setupTestDB(t)
	orders := new(MockOrderReader)
	mailer := new(MockMailer)
	orders.On("GetOrderByID", "ord_4").Return(completedOrder("ord_4"), nil)
	mailer.On("SendReceipt", mock.Anything, mock.Anything).Return(errors.New("smtp timeout"))
	logBuf := &bytes.Buffer{}

	svc := NewService(db, orders, mailer, logger.NewWithWriter(logBuf))

	inv, err := svc.GenerateForOrder(context.Background(), "ord_4")
	require.NoError(t, err)
	assert.NotNil(t, inv)
	assert.Contains(t, logBuf.String(), "smtp timeout")
}

func TestGenerateForOrder_OrderLookupFailure(t *testing.T) {
	db := setupTestDB(t)
	orders := new(MockOrderReader)
	lookupErr := errors.New("order not found")
	orders.On("GetOrderByID", "ord_5").Return(nil, lookupErr)

	svc := NewService(db, orders, nil, logger.NewWithWriter(&bytes.Buffer{}))

	_, err := svc.GenerateForOrder(context.Background(), "ord_5")
	assert.ErrorIs(t, err, lookupErr)
}
