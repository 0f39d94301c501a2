package booking

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts a new upcoming appointment only when the slot is free
	// and the pet has no active appointment. The guards ride on the insert
	// itself, backed by partial unique indexes, so two racing bookings for
	// one slot or one pet can never both land. Fails with ErrSlotConflict or
	// ErrPetBusy.
	Create(ctx context.Context, a *Appointment) error

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListAll(ctx context.Context, status, date string, limit, offset int) ([]*Appointment, int, error)

	// ListActiveByDoctorDate returns the upcoming and in_progress
	// appointments for one doctor on one date.
	ListActiveByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error)

	// The three transitions below are conditional single-statement updates
	// keyed by appointment id. Each returns the post-transition row when the
	// status precondition held, or applied=false when it did not.
	CancelIfUpcoming(ctx context.Context, id uuid.UUID) (*Appointment, bool, error)
	StartIfUpcoming(ctx context.Context, id uuid.UUID, start, end string) (*Appointment, bool, error)
	CompleteIfInProgress(ctx context.Context, id uuid.UUID, note string) (*Appointment, bool, error)
}
