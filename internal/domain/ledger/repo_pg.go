package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetcare/vetcare/internal/platform/db"
)

// PGRepository is the pgx-backed Repository implementation.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	conn := db.Conn(ctx, r.pool)

	var points int
	err := conn.QueryRow(ctx,
		`SELECT points FROM account WHERE user_id = $1`, userID,
	).Scan(&points)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return points, nil
}

func (r *PGRepository) BalanceForUpdate(ctx context.Context, userID uuid.UUID) (int, error) {
	conn := db.Conn(ctx, r.pool)

	_, err := conn.Exec(ctx,
		`INSERT INTO account (user_id, points) VALUES ($1, 0)
		 ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return 0, fmt.Errorf("ensure account: %w", err)
	}

	var points int
	err = conn.QueryRow(ctx,
		`SELECT points FROM account WHERE user_id = $1 FOR UPDATE`, userID,
	).Scan(&points)
	if err != nil {
		return 0, fmt.Errorf("lock balance: %w", err)
	}
	return points, nil
}

func (r *PGRepository) Add(ctx context.Context, userID uuid.UUID, delta int) (int, error) {
	conn := db.Conn(ctx, r.pool)

	var points int
	err := conn.QueryRow(ctx,
		`INSERT INTO account (user_id, points) VALUES ($1, GREATEST($2, 0))
		 ON CONFLICT (user_id) DO UPDATE
		 SET points = account.points + $2, updated_at = NOW()
		 RETURNING points`,
		userID, delta,
	).Scan(&points)
	if err != nil {
		return 0, fmt.Errorf("add points: %w", err)
	}
	return points, nil
}

func (r *PGRepository) DeductIfEnough(ctx context.Context, userID uuid.UUID, amount int) (int, bool, error) {
	conn := db.Conn(ctx, r.pool)

	// The balance guard rides on the UPDATE itself so two concurrent debits
	// can never both succeed against a balance that only covers one.
	var points int
	err := conn.QueryRow(ctx,
		`UPDATE account
		 SET points = points - $2, updated_at = NOW()
		 WHERE user_id = $1 AND points >= $2
		 RETURNING points`,
		userID, amount,
	).Scan(&points)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("deduct points: %w", err)
	}
	return points, true, nil
}

func (r *PGRepository) SetBalance(ctx context.Context, userID uuid.UUID, points int) (int, error) {
	conn := db.Conn(ctx, r.pool)

	var got int
	err := conn.QueryRow(ctx,
		`INSERT INTO account (user_id, points) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE
		 SET points = EXCLUDED.points, updated_at = NOW()
		 RETURNING points`,
		userID, points,
	).Scan(&got)
	if err != nil {
		return 0, fmt.Errorf("set balance: %w", err)
	}
	return got, nil
}

func (r *PGRepository) AppendEntry(ctx context.Context, e *Entry) error {
	conn := db.Conn(ctx, r.pool)

	_, err := conn.Exec(ctx,
		`INSERT INTO point_history (id, user_id, amount, type, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())`,
		e.ID, e.UserID, e.Amount, e.Type, e.Description)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func (r *PGRepository) ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	conn := db.Conn(ctx, r.pool)

	var total int
	err := conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM point_history WHERE user_id = $1`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	// Newest first, with the insertion sequence breaking same-timestamp ties
	// so the listing always reflects the order entries were written.
	rows, err := conn.Query(ctx,
		`SELECT id, user_id, amount, type, description, created_at
		 FROM point_history
		 WHERE user_id = $1
		 ORDER BY seq DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Type, &e.Description, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate history: %w", err)
	}
	return entries, total, nil
}
