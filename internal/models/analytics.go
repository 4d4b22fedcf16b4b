package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	EventPaymentCompleted = "payment_completed"

	EntityOrder = "order"
)

// AnalyticsEvent is an append-only audit/metrics record. This service only
// ever writes these rows; nothing here reads them back.
type AnalyticsEvent struct {
	bun.BaseModel `bun:"table:analytics_events"`

	ID         string                 `bun:"id,pk" json:"id"`
	EventType  string                 `bun:"event_type,notnull" json:"event_type"`
	EntityType string                 `bun:"entity_type,notnull" json:"entity_type"`
	EntityID   string                 `bun:"entity_id,notnull" json:"entity_id"`
	Metadata   map[string]interface{} `bun:"metadata,type:jsonb,nullzero" json:"metadata,omitempty"`
	CreatedAt  time.Time              `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
