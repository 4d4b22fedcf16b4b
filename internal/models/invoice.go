package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Invoice is the receipt document generated for a completed order.
type Invoice struct {
	bun.BaseModel `bun:"table:invoices"`

	ID             string    `bun:"id,pk" json:"id"`
	OrderID        string    `bun:"order_id,notnull,unique" json:"order_id"`
	Number         string    `bun:"number,notnull" json:"number"`
	AssessmentType string    `bun:"assessment_type,notnull" json:"assessment_type"`
	Amount         float64   `bun:"amount,notnull" json:"amount"`
	Currency       string    `bun:"currency,notnull" json:"currency"`
	Email          string    `bun:"email,nullzero" json:"email,omitempty"`
	IssuedAt       time.Time `bun:"issued_at,notnull" json:"issued_at"`
}

// InvoiceRequest asks the invoice service to generate a receipt for an order.
type InvoiceRequest struct {
	OrderID string `json:"order_id"`
}
