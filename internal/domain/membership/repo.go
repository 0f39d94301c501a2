package membership

import "context"

type Repository interface {
	// ListLevels returns all levels sorted by ascending order.
	ListLevels(ctx context.Context) ([]*MemberLevel, error)

	// ReplaceLevels swaps the entire ladder for the given one. The ladder is
	// validated as a whole before this is called.
	ReplaceLevels(ctx context.Context, levels []*MemberLevel) error
}
