package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"assessment-gateway/internal/logger"
	"assessment-gateway/internal/models"
	"assessment-gateway/internal/tokens/qr"
	"assessment-gateway/internal/utils"
)

var (
	ErrTokenInactive = errors.New("access token is not active")
	ErrTokenExpired  = errors.New("access token has expired")
)

type TokenDBLayer interface {
	CreateTokens(ctx context.Context, tokens []models.GuestAccessToken) error
	GetToken(ctx context.Context, token string) (*models.GuestAccessToken, error)
	GetTokensByOrder(ctx context.Context, orderID string) ([]models.GuestAccessToken, error)
	ActivateTokensForOrder(ctx context.Context, orderID string) (int64, error)
	DeactivateTokensForOrder(ctx context.Context, orderID string) (int64, error)
}

type TokenService struct {
	DB     TokenDBLayer
	QR     *qr.Generator
	TTL    time.Duration
	Logger *logger.Logger
}

func NewTokenService(db TokenDBLayer, qrGen *qr.Generator, ttl time.Duration, log *logger.Logger) *TokenService {
	return &TokenService{DB: db, QR: qrGen, TTL: ttl, Logger: log}
}

// IssueForOrder creates the inactive access token for a guest order. The
// token only becomes usable once payment completes and the activation side
// effect runs.
func (s *TokenService) IssueForOrder(ctx context.Context, order *models.Order) ([]models.GuestAccessToken, error) {
	if !order.IsGuestOrder {
		return nil, nil
	}

	token := models.GuestAccessToken{
		Token:          utils.GenerateAccessToken(),
		OrderID:        order.ID,
		AssessmentType: order.AssessmentType,
		Email:          order.GuestEmail,
		ExpiresAt:      time.Now().UTC().Add(s.TTL),
		IsActive:       false,
		CreatedAt:      time.Now().UTC(),
	}

	issued := []models.GuestAccessToken{token}
	if err := s.DB.CreateTokens(ctx, issued); err != nil {
		return nil, fmt.Errorf("issue tokens for order %s: %w", order.ID, err)
	}

	s.Logger.LogOrder("TOKENS_ISSUED", order.ID, fmt.Sprintf("issued %d guest access token(s)", len(issued)))
	return issued, nil
}

// ActivateForOrder flips the order's tokens active. Called by the outbox
// dispatcher once the order's payment reached "completed".
func (s *TokenService) ActivateForOrder(ctx context.Context, orderID string) (int64, error) {
	count, err := s.DB.ActivateTokensForOrder(ctx, orderID)
	if err != nil {
		return 0, fmt.Errorf("activate tokens for order %s: %w", orderID, err)
	}
	s.Logger.LogSideEffect("ACTIVATE_TOKENS", orderID, fmt.Sprintf("activated %d token(s)", count))
	return count, nil
}

// ValidateToken gates assessment access: the token must exist, be active and
// not expired.
func (s *TokenService) ValidateToken(ctx context.Context, token string) (*models.AccessCheck, error) {
	t, err := s.DB.GetToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, fmt.Errorf("token for order %s: %w", t.OrderID, ErrTokenInactive)
	}
	if time.Now().After(t.ExpiresAt) {
		return nil, fmt.Errorf("token for order %s: %w", t.OrderID, ErrTokenExpired)
	}

	return &models.AccessCheck{
		Token:          t.Token,
		OrderID:        t.OrderID,
		AssessmentType: t.AssessmentType,
		ExpiresAt:      t.ExpiresAt,
	}, nil
}

// AccessQR renders the QR code image for an issued token.
func (s *TokenService) AccessQR(token models.GuestAccessToken) ([]byte, error) {
	return s.QR.GenerateAccessQR(token)
}

// AccessQRForToken looks a token up and renders its QR code. Serving the QR
// does not require the token to be active yet; guests get it at checkout,
// before payment completes.
func (s *TokenService) AccessQRForToken(ctx context.Context, token string) ([]byte, error) {
	t, err := s.DB.GetToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.AccessQR(*t)
}
