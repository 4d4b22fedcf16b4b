package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"
	StatusCancelled PaymentStatus = "cancelled"
)

// Valid reports whether s is a member of the canonical status set.
func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s.
func (s PaymentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// CanTransitionTo enforces the monotonic transition table:
// pending -> completed | failed | cancelled. Everything else is rejected,
// including re-completing an already completed order.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == StatusPending && next.Terminal()
}

// Order is a purchase of one assessment attempt.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID               string                 `bun:"id,pk" json:"id"`
	AssessmentType   string                 `bun:"assessment_type,notnull" json:"assessment_type"`
	PaymentStatus    PaymentStatus          `bun:"payment_status,notnull" json:"payment_status"`
	PaymentReference string                 `bun:"payment_reference,nullzero" json:"payment_reference,omitempty"`
	PaymentMetadata  map[string]interface{} `bun:"payment_metadata,type:jsonb,nullzero" json:"payment_metadata,omitempty"`
	TotalAmount      float64                `bun:"total_amount,notnull" json:"total_amount"`
	Currency         string                 `bun:"currency,notnull" json:"currency"`
	IsGuestOrder     bool                   `bun:"is_guest_order" json:"is_guest_order"`
	GuestEmail       string                 `bun:"guest_email,nullzero" json:"guest_email,omitempty"`
	CreatedAt        time.Time              `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time              `bun:"updated_at,nullzero" json:"updated_at"`
}

// OrderRequest is the inbound payload for creating a pending order.
type OrderRequest struct {
	AssessmentType string  `json:"assessment_type"`
	TotalAmount    float64 `json:"total_amount"`
	Currency       string  `json:"currency"`
	IsGuestOrder   bool    `json:"is_guest_order"`
	GuestEmail     string  `json:"guest_email,omitempty"`
}

// OrderResponse is returned to the order-creation caller. For guest orders it
// carries the issued access tokens so the checkout flow can hand them out.
type OrderResponse struct {
	Order  Order              `json:"order"`
	Tokens []GuestAccessToken `json:"tokens,omitempty"`
}

// PaymentStatusRequest is the inbound payload of the payment-status endpoint.
type PaymentStatusRequest struct {
	OrderID          string                 `json:"orderId"`
	PaymentStatus    string                 `json:"paymentStatus"`
	PaymentReference string                 `json:"paymentReference,omitempty"`
	PaymentMetadata  map[string]interface{} `json:"paymentMetadata,omitempty"`
	// IdempotencyKey comes from the Idempotency-Key header, not the body.
	IdempotencyKey string `json:"-"`
}

// OrderStatusUpdate is the single authoritative write applied to an order.
type OrderStatusUpdate struct {
	OrderID          string
	PaymentStatus    PaymentStatus
	PaymentReference string
	PaymentMetadata  map[string]interface{}
}

// OrderSummary is the slice of the order echoed back to the payment caller.
// The values come from the post-write row, not from the request.
type OrderSummary struct {
	ID               string        `json:"id"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	PaymentReference string        `json:"payment_reference,omitempty"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// PaymentStatusResponse is the success envelope of the payment-status endpoint.
type PaymentStatusResponse struct {
	Success bool         `json:"success"`
	Order   OrderSummary `json:"order"`
	Message string       `json:"message"`
}

// ErrorEnvelope is the failure envelope shared by all endpoints.
type ErrorEnvelope struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}
