package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. Transitions are monotonic: upcoming moves to
// in_progress or cancelled, in_progress moves to completed, and the two
// terminal states never change again.
const (
	StatusUpcoming   = "upcoming"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Appointment maps to the appointment table. Date is "2006-01-02" and all
// times are zero-padded "15:04" strings, so lexicographic comparison matches
// chronological order. StartTime and EndTime are set only once the visit is
// in progress.
type Appointment struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	DoctorID    uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	PetID       uuid.UUID  `db:"pet_id" json:"pet_id"`
	PetName     string     `db:"pet_name" json:"pet_name"`
	Date        string     `db:"date" json:"date"`
	Time        string     `db:"time" json:"time"`
	Status      string     `db:"status" json:"status"`
	Cost        int        `db:"cost" json:"cost"`
	Service     string     `db:"service" json:"service"`
	StartTime   *string    `db:"start_time" json:"start_time,omitempty"`
	EndTime     *string    `db:"end_time" json:"end_time,omitempty"`
	AdminNote   string     `db:"admin_note" json:"admin_note,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Active reports whether the appointment still occupies its doctor and pet.
func (a *Appointment) Active() bool {
	return a.Status == StatusUpcoming || a.Status == StatusInProgress
}

// The bookable grid: 30-minute slots from 09:00 through 16:30.
const (
	gridOpenMinute  = 9 * 60
	gridCloseMinute = 16*60 + 30
	gridStepMinutes = 30
)

// Slots returns the bookable grid for one day, in order.
func Slots() []string {
	var out []string
	for m := gridOpenMinute; m <= gridCloseMinute; m += gridStepMinutes {
		out = append(out, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return out
}

// ValidSlot reports whether t is a grid slot.
func ValidSlot(t string) bool {
	m, err := minuteOfDay(t)
	if err != nil {
		return false
	}
	return m >= gridOpenMinute && m <= gridCloseMinute && (m-gridOpenMinute)%gridStepMinutes == 0
}

// minuteOfDay parses a zero-padded "15:04" string. The width check matters:
// time.Parse accepts "9:00", but only fixed-width times compare correctly as
// strings.
func minuteOfDay(t string) (int, error) {
	if len(t) != 5 || t[2] != ':' {
		return 0, fmt.Errorf("invalid time %q", t)
	}
	parsed, err := time.Parse("15:04", t)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", t, err)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

// ValidDate reports whether d is a calendar date in "2006-01-02" form.
func ValidDate(d string) bool {
	_, err := time.Parse("2006-01-02", d)
	return err == nil
}
