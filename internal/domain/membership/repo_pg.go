package membership

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetcare/vetcare/internal/platform/db"
)

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) ListLevels(ctx context.Context) ([]*MemberLevel, error) {
	conn := db.Conn(ctx, r.pool)

	rows, err := conn.Query(ctx,
		`SELECT id, tier_order, name, min_points, max_points, created_at, updated_at
		 FROM member_level
		 ORDER BY tier_order`)
	if err != nil {
		return nil, fmt.Errorf("query member levels: %w", err)
	}
	defer rows.Close()

	var levels []*MemberLevel
	for rows.Next() {
		var lvl MemberLevel
		if err := rows.Scan(&lvl.ID, &lvl.Order, &lvl.Name, &lvl.MinPoints, &lvl.MaxPoints, &lvl.CreatedAt, &lvl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan member level: %w", err)
		}
		levels = append(levels, &lvl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member levels: %w", err)
	}
	return levels, nil
}

func (r *PGRepository) ReplaceLevels(ctx context.Context, levels []*MemberLevel) error {
	conn := db.Conn(ctx, r.pool)

	if _, err := conn.Exec(ctx, `DELETE FROM member_level`); err != nil {
		return fmt.Errorf("clear member levels: %w", err)
	}
	for _, lvl := range levels {
		_, err := conn.Exec(ctx,
			`INSERT INTO member_level (id, tier_order, name, min_points, max_points)
			 VALUES ($1, $2, $3, $4, $5)`,
			lvl.ID, lvl.Order, lvl.Name, lvl.MinPoints, lvl.MaxPoints)
		if err != nil {
			return fmt.Errorf("insert member level %q: %w", lvl.Name, err)
		}
	}
	return nil
}
