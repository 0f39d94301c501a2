package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence port for point accounts and their history.
// Implementations must honor any transaction carried on the context.
type Repository interface {
	// Balance returns the current balance, or 0 when no account row exists.
	Balance(ctx context.Context, userID uuid.UUID) (int, error)

	// BalanceForUpdate locks the account row (creating it at 0 first when
	// absent) and returns the balance. Only meaningful inside a transaction.
	BalanceForUpdate(ctx context.Context, userID uuid.UUID) (int, error)

	// Add applies a positive or negative delta unconditionally, creating the
	// account when absent, and returns the new balance.
	Add(ctx context.Context, userID uuid.UUID, delta int) (int, error)

	// DeductIfEnough atomically subtracts amount only when the balance covers
	// it. The second return reports whether the deduction was applied.
	DeductIfEnough(ctx context.Context, userID uuid.UUID, amount int) (int, bool, error)

	// SetBalance overwrites the balance, creating the account when absent,
	// and returns the new balance.
	SetBalance(ctx context.Context, userID uuid.UUID, points int) (int, error)

	AppendEntry(ctx context.Context, e *Entry) error
	ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Entry, int, error)
}
