package redeem

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Code) error
	GetByCode(ctx context.Context, code string) (*Code, error)
	List(ctx context.Context, limit, offset int) ([]*Code, int, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Consume increments current_uses if and only if the code is active and
	// still under its cap, returning the points value. The check and the
	// increment are one statement, so two racing callers can never both pass
	// the cap on a nearly-exhausted code. Returns ok=false when the code is
	// missing, inactive, or exhausted.
	Consume(ctx context.Context, code string) (points int, ok bool, err error)
}
