package membership

import (
	"time"

	"github.com/google/uuid"
)

// MemberLevel maps to the member_level table. Levels form an ordered ladder;
// only the top level has a nil MaxPoints.
type MemberLevel struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Order     int       `db:"tier_order" json:"order"`
	Name      string    `db:"name" json:"name"`
	MinPoints int       `db:"min_points" json:"min_points"`
	MaxPoints *int      `db:"max_points" json:"max_points,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Tier is the computed standing of a user on the level ladder.
type Tier struct {
	Name          string  `json:"name"`
	NextName      string  `json:"next,omitempty"`
	NextThreshold *int    `json:"next_threshold,omitempty"`
	Progress      float64 `json:"progress"`
}
