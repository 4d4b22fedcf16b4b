package invoice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"assessment-gateway/internal/logger"
	"assessment-gateway/internal/models"
	"assessment-gateway/internal/utils"

	"github.com/uptrace/bun"
)

// ErrOrderNotCompleted means an invoice was requested for an order whose
// payment has not completed.
var ErrOrderNotCompleted = errors.New("order payment is not completed")

type OrderReader interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
}

// Mailer sends the receipt email. Sending is best-effort; a nil Mailer
// disables it entirely.
type Mailer interface {
	SendReceipt(ctx context.Context, email string, inv *models.Invoice) error
}

type Service struct {
	db     *bun.DB
	orders OrderReader
	mailer Mailer
	logger *logger.Logger
}

func NewService(db *bun.DB, orders OrderReader, mailer Mailer, log *logger.Logger) *Service {
	return &Service{db: db, orders: orders, mailer: mailer, logger: log}
}

// GenerateForOrder builds and stores the invoice for a completed order and
// triggers the receipt email. Requesting an invoice twice returns the
// existing one instead of issuing a duplicate.
func (s *Service) GenerateForOrder(ctx context.Context, orderID string) (*models.Invoice, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != models.StatusCompleted {
		return nil, fmt.Errorf("order %s is %s: %w", order.ID, order.PaymentStatus, ErrOrderNotCompleted)
	}

	if existing, err := s.getByOrderID(ctx, orderID); err == nil {
		s.logger.LogOrder("INVOICE_EXISTS", orderID, "returning previously issued invoice "+existing.Number)
		return existing, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := time.Now().UTC()
	inv := models.Invoice{
		ID:             utils.GenerateInvoiceID(),
		OrderID:        order.ID,
		Number:         fmt.Sprintf("INV-%s-%s", now.Format("20060102"), order.ID),
		AssessmentType: order.AssessmentType,
		Amount:         order.TotalAmount,
		Currency:       order.Currency,
		Email:          order.GuestEmail,
		IssuedAt:       now,
	}

	if _, err := s.db.NewInsert().Model(&inv).Exec(ctx); err != nil {
		return nil, fmt.Errorf("store invoice for order %s: %w", order.ID, err)
	}
	s.logger.LogOrder("INVOICE_ISSUED", order.ID, "issued "+inv.Number)

	if s.mailer != nil && inv.Email != "" {
		if err := s.mailer.SendReceipt(ctx, inv.Email, &inv); err != nil {
			s.logger.Error("EMAIL", fmt.Sprintf("receipt for invoice %s: %v", inv.Number, err))
		}
	}

	return &inv, nil
}

func (s *Service) getByOrderID(ctx context.Context, orderID string) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.NewSelect().
		Model(&inv).
		Where("order_id = ?", orderID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
