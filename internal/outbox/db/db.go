package db

import (
	"context"
	"time"

	"assessment-gateway/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// PendingForOrder → pending tasks of one order, in enqueue order
func (d *DB) PendingForOrder(ctx context.Context, orderID string) ([]models.OutboxTask, error) {
	var tasks []models.OutboxTask
	err := d.Bun.NewSelect().
		Model(&tasks).
		Where("order_id = ?", orderID).
		Where("status = ?", models.TaskPending).
		Order("id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Pending → pending tasks across all orders, oldest first, attempt-capped
func (d *DB) Pending(ctx context.Context, limit int, maxAttempts int) ([]models.OutboxTask, error) {
	var tasks []models.OutboxTask
	err := d.Bun.NewSelect().
		Model(&tasks).
		Where("status = ?", models.TaskPending).
		Where("attempts < ?", maxAttempts).
		Order("id").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Claim moves a task from pending to processing. The conditional update is
// what keeps the inline dispatch and the background worker from running the
// same task at the same time; false means someone else got there first.
func (d *DB) Claim(ctx context.Context, id int64) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.OutboxTask)(nil)).
		Set("status = ?", models.TaskProcessing).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("status = ?", models.TaskPending).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// MarkDone → task executed successfully
func (d *DB) MarkDone(ctx context.Context, id int64) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.OutboxTask)(nil)).
		Set("status = ?", models.TaskDone).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// RecordFailure bumps the attempt counter and either re-queues the task or,
// once the attempt cap is reached, parks it as failed.
func (d *DB) RecordFailure(ctx context.Context, id int64, attempts int, lastError string, final bool) error {
	status := models.TaskPending
	if final {
		status = models.TaskFailed
	}
	_, err := d.Bun.NewUpdate().
		Model((*models.OutboxTask)(nil)).
		Set("status = ?", status).
		Set("attempts = ?", attempts).
		Set("last_error = ?", lastError).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
