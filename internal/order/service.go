package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"assessment-gateway/internal/logger"
	"assessment-gateway/internal/models"
	"assessment-gateway/internal/utils"
)

var (
	ErrMissingAssessmentType = errors.New("assessment_type is required")
	ErrMissingGuestEmail     = errors.New("guest orders require guest_email")
	ErrInvalidAmount         = errors.New("total_amount must not be negative")
)

type DBLayer interface {
	CreateOrder(ctx context.Context, order models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrdersByGuestEmail(ctx context.Context, email string) ([]models.Order, error)
}

type TokenIssuer interface {
	IssueForOrder(ctx context.Context, order *models.Order) ([]models.GuestAccessToken, error)
}

type OrderService struct {
	DB     DBLayer
	Tokens TokenIssuer
	Logger *logger.Logger
}

func NewOrderService(db DBLayer, tokens TokenIssuer, log *logger.Logger) *OrderService {
	return &OrderService{DB: db, Tokens: tokens, Logger: log}
}

// PlaceOrder creates a pending order for one assessment attempt. Guest
// orders additionally get their (inactive) access tokens issued up front.
func (s *OrderService) PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.OrderResponse, error) {
	if req.AssessmentType == "" {
		return nil, ErrMissingAssessmentType
	}
	if req.TotalAmount < 0 {
		return nil, ErrInvalidAmount
	}
	if req.IsGuestOrder && req.GuestEmail == "" {
		return nil, ErrMissingGuestEmail
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	order := models.Order{
		ID:             utils.GenerateOrderID(),
		AssessmentType: req.AssessmentType,
		PaymentStatus:  models.StatusPending,
		TotalAmount:    req.TotalAmount,
		Currency:       currency,
		IsGuestOrder:   req.IsGuestOrder,
		GuestEmail:     req.GuestEmail,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.DB.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	s.Logger.LogOrder("CREATED", order.ID, fmt.Sprintf("assessment=%s amount=%.2f %s guest=%t",
		order.AssessmentType, order.TotalAmount, order.Currency, order.IsGuestOrder))

	resp := &models.OrderResponse{Order: order}

	if order.IsGuestOrder {
		tokens, err := s.Tokens.IssueForOrder(ctx, &order)
		if err != nil {
			// The order row exists either way; without tokens a guest cannot
			// ever reach the assessment, so surface the failure to the caller.
			return nil, fmt.Errorf("order %s created but token issuance failed: %w", order.ID, err)
		}
		resp.Tokens = tokens
	}

	return resp, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.DB.GetOrderByID(ctx, id)
}

func (s *OrderService) GetGuestOrders(ctx context.Context, email string) ([]models.Order, error) {
	return s.DB.GetOrdersByGuestEmail(ctx, email)
}
