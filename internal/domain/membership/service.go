package membership

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vetcare/vetcare/internal/platform/db"
)

var ErrInvalidLadder = errors.New("invalid level ladder")

// PointsReader is the slice of the ledger the tier lookup needs.
type PointsReader interface {
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
}

type Service struct {
	levels Repository
	points PointsReader
	tx     db.TxRunner
	log    zerolog.Logger
}

func NewService(levels Repository, points PointsReader, tx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{
		levels: levels,
		points: points,
		tx:     tx,
		log:    log.With().Str("component", "membership").Logger(),
	}
}

// Tier computes the user's current standing from their live balance.
func (s *Service) Tier(ctx context.Context, userID uuid.UUID) (Tier, error) {
	points, err := s.points.Balance(ctx, userID)
	if err != nil {
		return Tier{}, fmt.Errorf("read balance: %w", err)
	}
	levels, err := s.levels.ListLevels(ctx)
	if err != nil {
		return Tier{}, fmt.Errorf("list levels: %w", err)
	}
	return Calculate(points, levels), nil
}

func (s *Service) ListLevels(ctx context.Context) ([]*MemberLevel, error) {
	return s.levels.ListLevels(ctx)
}

// ReplaceLevels validates the whole ladder and swaps it atomically.
func (s *Service) ReplaceLevels(ctx context.Context, levels []*MemberLevel) error {
	if err := ValidateLadder(levels); err != nil {
		return errors.Join(ErrInvalidLadder, err)
	}
	for _, lvl := range levels {
		if lvl.ID == uuid.Nil {
			lvl.ID = uuid.New()
		}
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.levels.ReplaceLevels(ctx, levels)
	})
	if err != nil {
		return fmt.Errorf("replace levels: %w", err)
	}

	s.log.Info().Int("levels", len(levels)).Msg("member ladder replaced")
	return nil
}

// ValidateLadder checks the whole-set invariants: unique strictly increasing
// orders, strictly increasing min_points, each max_points covering its own
// min_points, and exactly one open-ended top level. An empty ladder is valid.
func ValidateLadder(levels []*MemberLevel) error {
	if len(levels) == 0 {
		return nil
	}

	sorted := make([]*MemberLevel, len(levels))
	copy(sorted, levels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	openEnded := 0
	for i, lvl := range sorted {
		if strings.TrimSpace(lvl.Name) == "" {
			return fmt.Errorf("level %d: name is required", i)
		}
		if lvl.MinPoints < 0 {
			return fmt.Errorf("level %q: min_points is negative", lvl.Name)
		}
		if lvl.MaxPoints == nil {
			openEnded++
			if i != len(sorted)-1 {
				return fmt.Errorf("level %q: only the top level may omit max_points", lvl.Name)
			}
		} else if *lvl.MaxPoints < lvl.MinPoints {
			return fmt.Errorf("level %q: max_points below min_points", lvl.Name)
		}
		if i > 0 {
			prev := sorted[i-1]
			if lvl.Order == prev.Order {
				return fmt.Errorf("level %q: duplicate order %d", lvl.Name, lvl.Order)
			}
			if lvl.MinPoints <= prev.MinPoints {
				return fmt.Errorf("level %q: min_points must increase", lvl.Name)
			}
		}
	}
	if openEnded != 1 {
		return fmt.Errorf("exactly one level must omit max_points, got %d", openEnded)
	}
	return nil
}
