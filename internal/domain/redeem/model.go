package redeem

import (
	"time"

	"github.com/google/uuid"
)

// Code maps to the redeem_code table. MaxUses of 0 means unlimited.
// CurrentUses never exceeds a nonzero MaxUses; the consumption query
// enforces that bound.
type Code struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Points      int       `db:"points" json:"points"`
	MaxUses     int       `db:"max_uses" json:"max_uses"`
	CurrentUses int       `db:"current_uses" json:"current_uses"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
