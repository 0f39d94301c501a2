package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vetcare/vetcare/internal/platform/db"
)

var (
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidEntryType   = errors.New("invalid history entry type")
)

// Service owns all balance mutations. Every mutation writes the matching
// history entry in the same transaction, so balance and history never drift.
type Service struct {
	accounts Repository
	tx       db.TxRunner
	log      zerolog.Logger
}

func NewService(accounts Repository, tx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{accounts: accounts, tx: tx, log: log.With().Str("component", "ledger").Logger()}
}

// Credit adds amount to the balance and records a history entry of the given
// type. Amount must be positive.
func (s *Service) Credit(ctx context.Context, userID uuid.UUID, amount int, entryType, description string) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if !validEntryTypes[entryType] {
		return 0, ErrInvalidEntryType
	}

	var newBalance int
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		newBalance, err = s.accounts.Add(ctx, userID, amount)
		if err != nil {
			return err
		}
		return s.accounts.AppendEntry(ctx, &Entry{
			ID:          uuid.New(),
			UserID:      userID,
			Amount:      amount,
			Type:        entryType,
			Description: description,
		})
	})
	if err != nil {
		return 0, fmt.Errorf("credit: %w", err)
	}

	s.log.Info().Str("user_id", userID.String()).Int("amount", amount).
		Str("type", entryType).Int("balance", newBalance).Msg("points credited")
	return newBalance, nil
}

// Debit subtracts amount from the balance, failing with ErrInsufficientPoints
// when the balance does not cover it. Amount must be positive.
func (s *Service) Debit(ctx context.Context, userID uuid.UUID, amount int, entryType, description string) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if !validEntryTypes[entryType] {
		return 0, ErrInvalidEntryType
	}

	var newBalance int
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		balance, ok, err := s.accounts.DeductIfEnough(ctx, userID, amount)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientPoints
		}
		newBalance = balance
		return s.accounts.AppendEntry(ctx, &Entry{
			ID:          uuid.New(),
			UserID:      userID,
			Amount:      -amount,
			Type:        entryType,
			Description: description,
		})
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientPoints) {
			return 0, ErrInsufficientPoints
		}
		return 0, fmt.Errorf("debit: %w", err)
	}

	s.log.Info().Str("user_id", userID.String()).Int("amount", amount).
		Str("type", entryType).Int("balance", newBalance).Msg("points debited")
	return newBalance, nil
}

// AdminSet overwrites the balance outright. Negative targets clamp to zero.
// The history entry records the delta actually applied, even a zero one, so
// every admin action leaves an audit trace.
func (s *Service) AdminSet(ctx context.Context, userID uuid.UUID, target int, description string) (int, error) {
	if target < 0 {
		target = 0
	}

	var newBalance int
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.accounts.BalanceForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		newBalance, err = s.accounts.SetBalance(ctx, userID, target)
		if err != nil {
			return err
		}
		return s.accounts.AppendEntry(ctx, &Entry{
			ID:          uuid.New(),
			UserID:      userID,
			Amount:      target - current,
			Type:        EntryAdminSet,
			Description: description,
		})
	})
	if err != nil {
		return 0, fmt.Errorf("admin set: %w", err)
	}

	s.log.Info().Str("user_id", userID.String()).Int("balance", newBalance).Msg("balance set")
	return newBalance, nil
}

// Adjust applies a signed delta on behalf of an administrator. Positive
// deltas always succeed; negative deltas fail when the balance cannot cover
// them. A zero delta only reads the balance.
func (s *Service) Adjust(ctx context.Context, userID uuid.UUID, delta int, reason string) (int, error) {
	switch {
	case delta > 0:
		return s.Credit(ctx, userID, delta, EntryAdminAdd, reason)
	case delta < 0:
		return s.Debit(ctx, userID, -delta, EntryAdminDeduct, reason)
	default:
		return s.Balance(ctx, userID)
	}
}

func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.accounts.Balance(ctx, userID)
}

func (s *Service) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	return s.accounts.ListEntries(ctx, userID, limit, offset)
}
