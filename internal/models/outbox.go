package models

import (
	"time"

	"github.com/uptrace/bun"
)

type OutboxTaskKind string

const (
	TaskActivateTokens  OutboxTaskKind = "activate_tokens"
	TaskRecordAnalytics OutboxTaskKind = "record_analytics"
	TaskGenerateInvoice OutboxTaskKind = "generate_invoice"
)

type OutboxTaskStatus string

const (
	TaskPending    OutboxTaskStatus = "pending"
	TaskProcessing OutboxTaskStatus = "processing"
	TaskDone       OutboxTaskStatus = "done"
	TaskFailed     OutboxTaskStatus = "failed"
)

// OutboxTask is one side effect owed after an order reached "completed".
// Tasks are enqueued in the same transaction as the order update and worked
// off best-effort: inline right after commit, then by the background worker
// until done or the attempt cap is hit. The autoincrement id preserves
// enqueue order.
type OutboxTask struct {
	bun.BaseModel `bun:"table:outbox_tasks"`

	ID        int64                  `bun:"id,pk,autoincrement" json:"id"`
	OrderID   string                 `bun:"order_id,notnull" json:"order_id"`
	Kind      OutboxTaskKind         `bun:"kind,notnull" json:"kind"`
	Payload   map[string]interface{} `bun:"payload,type:jsonb,nullzero" json:"payload,omitempty"`
	Status    OutboxTaskStatus       `bun:"status,notnull" json:"status"`
	Attempts  int                    `bun:"attempts" json:"attempts"`
	LastError string                 `bun:"last_error,nullzero" json:"last_error,omitempty"`
	CreatedAt time.Time              `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time              `bun:"updated_at,nullzero" json:"updated_at"`
}
