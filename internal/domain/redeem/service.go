package redeem

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vetcare/vetcare/internal/domain/ledger"
	"github.com/vetcare/vetcare/internal/platform/db"
)

var (
	ErrInvalidCode   = errors.New("invalid redeem code")
	ErrCodeNotFound  = errors.New("redeem code not found")
	ErrDuplicateCode = errors.New("redeem code already exists")
	ErrBadCodeInput  = errors.New("invalid redeem code definition")
)

// PointsCreditor is the slice of the ledger the redeem flow needs.
type PointsCreditor interface {
	Credit(ctx context.Context, userID uuid.UUID, amount int, entryType, description string) (int, error)
}

type Service struct {
	codes  Repository
	points PointsCreditor
	tx     db.TxRunner
	log    zerolog.Logger
}

func NewService(codes Repository, points PointsCreditor, tx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{
		codes:  codes,
		points: points,
		tx:     tx,
		log:    log.With().Str("component", "redeem").Logger(),
	}
}

// Redeem consumes one use of the code and credits its point value to the
// user. The consumption and the credit commit together; a code use is never
// burned without the matching credit. Inactive, unknown, and exhausted codes
// all surface as ErrInvalidCode.
func (s *Service) Redeem(ctx context.Context, userID uuid.UUID, code string) (int, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, ErrInvalidCode
	}

	var credited int
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		points, ok, err := s.codes.Consume(ctx, code)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidCode
		}
		credited = points
		_, err = s.points.Credit(ctx, userID, points, ledger.EntryRedeem, "redeem code "+code)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return 0, ErrInvalidCode
		}
		return 0, fmt.Errorf("redeem: %w", err)
	}

	s.log.Info().Str("user_id", userID.String()).Str("code", code).
		Int("points", credited).Msg("code redeemed")
	return credited, nil
}

type CreateInput struct {
	Code    string
	Points  int
	MaxUses int
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Code, error) {
	in.Code = strings.TrimSpace(in.Code)
	switch {
	case in.Code == "":
		return nil, errors.Join(ErrBadCodeInput, errors.New("code is required"))
	case in.Points <= 0:
		return nil, errors.Join(ErrBadCodeInput, errors.New("points must be positive"))
	case in.MaxUses < 0:
		return nil, errors.Join(ErrBadCodeInput, errors.New("max_uses must be zero or positive"))
	}

	c := &Code{
		ID:       uuid.New(),
		Code:     in.Code,
		Points:   in.Points,
		MaxUses:  in.MaxUses,
		IsActive: true,
	}
	if err := s.codes.Create(ctx, c); err != nil {
		return nil, err
	}

	s.log.Info().Str("code", c.Code).Int("points", c.Points).Int("max_uses", c.MaxUses).Msg("redeem code created")
	return c, nil
}

func (s *Service) Get(ctx context.Context, code string) (*Code, error) {
	return s.codes.GetByCode(ctx, strings.TrimSpace(code))
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Code, int, error) {
	return s.codes.List(ctx, limit, offset)
}

func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.codes.SetActive(ctx, id, active)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.codes.Delete(ctx, id)
}
