package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Account maps to the account table. The points column is the sole source of
// truth for a user's spendable balance; history entries are audit only.
type Account struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Points    int       `db:"points" json:"points"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// History entry types.
const (
	EntryRedeem      = "redeem"
	EntryConsume     = "consume"
	EntryAdminAdd    = "admin_add"
	EntryAdminDeduct = "admin_deduct"
	EntryAdminSet    = "admin_set"
	EntryRefund      = "refund"
	EntryOther       = "other"
)

var validEntryTypes = map[string]bool{
	EntryRedeem: true, EntryConsume: true, EntryAdminAdd: true,
	EntryAdminDeduct: true, EntryAdminSet: true, EntryRefund: true,
	EntryOther: true,
}

// Entry maps to the point_history table. Entries are write-once; the signed
// amount records the delta actually applied to the balance.
type Entry struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Amount      int       `db:"amount" json:"amount"`
	Type        string    `db:"type" json:"type"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
