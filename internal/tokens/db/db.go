package db

import (
	"context"
	"database/sql"
	"errors"

	"assessment-gateway/internal/models"

	"github.com/uptrace/bun"
)

// ErrTokenNotFound means no row exists for the presented token.
var ErrTokenNotFound = errors.New("access token not found")

type DB struct {
	Bun *bun.DB
}

// CreateTokens → bulk insert freshly issued tokens
func (d *DB) CreateTokens(ctx context.Context, tokens []models.GuestAccessToken) error {
	if len(tokens) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&tokens).Exec(ctx)
	return err
}

// GetToken → fetch one token by its secret
func (d *DB) GetToken(ctx context.Context, token string) (*models.GuestAccessToken, error) {
	var t models.GuestAccessToken
	err := d.Bun.NewSelect().
		Model(&t).
		Where("token = ?", token).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTokensByOrder → fetch all tokens linked to an order
func (d *DB) GetTokensByOrder(ctx context.Context, orderID string) ([]models.GuestAccessToken, error) {
	var tokens []models.GuestAccessToken
	err := d.Bun.NewSelect().
		Model(&tokens).
		Where("order_id = ?", orderID).
		Order("created_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// ActivateTokensForOrder → bulk flip is_active on for every token of an order.
// Returns the number of tokens activated.
func (d *DB) ActivateTokensForOrder(ctx context.Context, orderID string) (int64, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.GuestAccessToken)(nil)).
		Set("is_active = ?", true).
		Where("order_id = ?", orderID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeactivateTokensForOrder → bulk flip is_active off, used when an order is
// refunded or cancelled after the fact.
func (d *DB) DeactivateTokensForOrder(ctx context.Context, orderID string) (int64, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.GuestAccessToken)(nil)).
		Set("is_active = ?", false).
		Where("order_id = ?", orderID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
