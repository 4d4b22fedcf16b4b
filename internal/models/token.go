package models

import (
	"time"

	"github.com/uptrace/bun"
)

// GuestAccessToken grants a guest (non-account) user access to take the
// assessment attempt paid for by its order. Tokens are issued inactive and
// only activated once the order's payment completes.
type GuestAccessToken struct {
	bun.BaseModel `bun:"table:guest_access_tokens"`

	Token          string    `bun:"token,pk" json:"token"`
	OrderID        string    `bun:"order_id,notnull" json:"order_id"`
	AssessmentType string    `bun:"assessment_type,notnull" json:"assessment_type"`
	Email          string    `bun:"email,notnull" json:"email"`
	ExpiresAt      time.Time `bun:"expires_at,notnull" json:"expires_at"`
	IsActive       bool      `bun:"is_active" json:"is_active"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// AccessCheck is the result of validating a presented token.
type AccessCheck struct {
	Token          string    `json:"token"`
	OrderID        string    `json:"order_id"`
	AssessmentType string    `json:"assessment_type"`
	ExpiresAt      time.Time `json:"expires_at"`
}
