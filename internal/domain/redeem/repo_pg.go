package redeem

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetcare/vetcare/internal/platform/db"
)

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Create(ctx context.Context, c *Code) error {
	conn := db.Conn(ctx, r.pool)

	err := conn.QueryRow(ctx,
		`INSERT INTO redeem_code (id, code, points, max_uses, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		c.ID, c.Code, c.Points, c.MaxUses, c.IsActive,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateCode
		}
		return fmt.Errorf("insert redeem code: %w", err)
	}
	return nil
}

func (r *PGRepository) GetByCode(ctx context.Context, code string) (*Code, error) {
	conn := db.Conn(ctx, r.pool)

	var c Code
	err := conn.QueryRow(ctx,
		`SELECT id, code, points, max_uses, current_uses, is_active, created_at, updated_at
		 FROM redeem_code WHERE code = $1`, code,
	).Scan(&c.ID, &c.Code, &c.Points, &c.MaxUses, &c.CurrentUses, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query redeem code: %w", err)
	}
	return &c, nil
}

func (r *PGRepository) List(ctx context.Context, limit, offset int) ([]*Code, int, error) {
	conn := db.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM redeem_code`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count redeem codes: %w", err)
	}

	rows, err := conn.Query(ctx,
		`SELECT id, code, points, max_uses, current_uses, is_active, created_at, updated_at
		 FROM redeem_code
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query redeem codes: %w", err)
	}
	defer rows.Close()

	var codes []*Code
	for rows.Next() {
		var c Code
		if err := rows.Scan(&c.ID, &c.Code, &c.Points, &c.MaxUses, &c.CurrentUses, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan redeem code: %w", err)
		}
		codes = append(codes, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate redeem codes: %w", err)
	}
	return codes, total, nil
}

func (r *PGRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	conn := db.Conn(ctx, r.pool)

	tag, err := conn.Exec(ctx,
		`UPDATE redeem_code SET is_active = $2, updated_at = NOW() WHERE id = $1`,
		id, active)
	if err != nil {
		return fmt.Errorf("update redeem code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCodeNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) error {
	conn := db.Conn(ctx, r.pool)

	tag, err := conn.Exec(ctx, `DELETE FROM redeem_code WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete redeem code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCodeNotFound
	}
	return nil
}

func (r *PGRepository) Consume(ctx context.Context, code string) (int, bool, error) {
	conn := db.Conn(ctx, r.pool)

	var points int
	err := conn.QueryRow(ctx,
		`UPDATE redeem_code
		 SET current_uses = current_uses + 1, updated_at = NOW()
		 WHERE code = $1
		   AND is_active
		   AND (max_uses = 0 OR current_uses < max_uses)
		 RETURNING points`,
		code,
	).Scan(&points)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("consume redeem code: %w", err)
	}
	return points, true, nil
}
