package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"assessment-gateway/internal/models"

	"github.com/uptrace/bun"
)

var (
	// ErrOrderNotFound means no order row exists for the given id.
	ErrOrderNotFound = errors.New("order not found")
	// ErrIllegalTransition means the order is already in a terminal status.
	ErrIllegalTransition = errors.New("illegal payment status transition")
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

// CreateOrder → insert a new pending order
func (d *DB) CreateOrder(ctx context.Context, order models.Order) error {
	_, err := d.Bun.NewInsert().Model(&order).Exec(ctx)
	return err
}

// GetOrderByID → fetch one order by its ID
func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByGuestEmail → fetch all guest orders placed with an email
func (d *DB) GetOrdersByGuestEmail(ctx context.Context, email string) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("is_guest_order = ?", true).
		Where("guest_email = ?", email).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ApplyStatusUpdate performs the single authoritative write of the payment
// flow: a conditional update matching on the order id and the pending status,
// returning the canonical post-write row. buildTasks, when non-nil, is called
// with that row inside the same transaction and any tasks it returns are
// enqueued atomically with the update.
//
// The pending-status match is what makes transitions monotonic: a zero-row
// update against an existing order means the order already reached a terminal
// status, and the call fails with ErrIllegalTransition.
func (d *DB) ApplyStatusUpdate(ctx context.Context, upd models.OrderStatusUpdate, buildTasks func(*models.Order) []models.OutboxTask) (*models.Order, error) {
	var updated models.Order

	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		updated = models.Order{
			ID:               upd.OrderID,
			PaymentStatus:    upd.PaymentStatus,
			PaymentReference: upd.PaymentReference,
			PaymentMetadata:  upd.PaymentMetadata,
			UpdatedAt:        time.Now().UTC(),
		}

		res, err := tx.NewUpdate().
			Model(&updated).
			Column("payment_status", "payment_reference", "payment_metadata", "updated_at").
			Where("id = ?", upd.OrderID).
			Where("payment_status = ?", models.StatusPending).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update order %s: %w", upd.OrderID, err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			// Distinguish a missing order from one already in a terminal status.
			var current models.Order
			err := tx.NewSelect().
				Model(&current).
				Where("id = ?", upd.OrderID).
				Limit(1).
				Scan(ctx)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("order %s: %w", upd.OrderID, ErrOrderNotFound)
			}
			if err != nil {
				return err
			}
			if current.PaymentStatus.CanTransitionTo(upd.PaymentStatus) {
				// The row reads back as pending again, so another writer got
				// in between our update and this select.
				return fmt.Errorf("order %s: concurrent status change", upd.OrderID)
			}
			return fmt.Errorf("order %s is already %s and cannot become %s: %w",
				upd.OrderID, current.PaymentStatus, upd.PaymentStatus, ErrIllegalTransition)
		}

		if buildTasks != nil {
			tasks := buildTasks(&updated)
			if len(tasks) > 0 {
				if _, err := tx.NewInsert().Model(&tasks).Exec(ctx); err != nil {
					return fmt.Errorf("enqueue side-effect tasks for order %s: %w", upd.OrderID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
