package booking

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
	ErrSlotConflict           = errors.New("slot not available")
	ErrPetBusy                = errors.New("pet already has an active appointment")
	ErrAppointmentNotFound    = errors.New("appointment not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrBadTimeRange           = errors.New("invalid time range")
	ErrValidation             = errors.New("invalid appointment input")
	ErrNotPetOwner            = errors.New("pet belongs to another user")
	ErrNotAppointmentOwner    = errors.New("appointment belongs to another user")
)

// PointsLedger is the slice of the ledger the booking flow needs.
type PointsLedger interface {
	Debit(ctx context.Context, userID uuid.UUID, amount int, entryType, description string) (int, error)
	Credit(ctx context.Context, userID uuid.UUID, amount int, entryType, description string) (int, error)
}

// PetDirectory resolves a pet to its owner and display name.
type PetDirectory interface {
	Info(ctx context.Context, petID uuid.UUID) (ownerID uuid.UUID, name string, err error)
}

// MedicalRecorder accepts the derived visit record on completion. The call
// is best-effort; its failure never unwinds a committed transition.
type MedicalRecorder interface {
	AppendMedicalRecord(ctx context.Context, petID uuid.UUID, appointmentID *uuid.UUID, diagnosis, treatment string) error
}

type Service struct {
	appts    Repository
	resolver *Resolver
	points   PointsLedger
	pets     PetDirectory
	records  MedicalRecorder
	tx       db.TxRunner
	log      zerolog.Logger
}

func NewService(appts Repository, resolver *Resolver, points PointsLedger, pets PetDirectory,
	records MedicalRecorder, tx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{
		appts:    appts,
		resolver: resolver,
		points:   points,
		pets:     pets,
		records:  records,
		tx:       tx,
		log:      log.With().Str("component", "booking").Logger(),
	}
}

type CreateInput struct {
	DoctorID uuid.UUID
	PetID    uuid.UUID
	Date     string
	Time     string
	Service  string
	Cost     int
}

func (in *CreateInput) validate() error {
	switch {
	case in.DoctorID == uuid.Nil:
		return errors.New("doctor_id is required")
	case in.PetID == uuid.Nil:
		return errors.New("pet_id is required")
	case !ValidDate(in.Date):
		return errors.New("date must be YYYY-MM-DD")
	case !ValidSlot(in.Time):
		return errors.New("time is not a bookable slot")
	case strings.TrimSpace(in.Service) == "":
		return errors.New("service is required")
	case in.Cost < 0:
		return errors.New("cost must not be negative")
	}
	return nil
}

// Create books the slot and debits the cost as one unit. The slot and
// pet-busy guards ride on the insert and the balance guard on the debit, so
// the booking either fully lands or leaves no trace. Fails with
// ErrSlotConflict, ErrPetBusy, or ledger.ErrInsufficientPoints.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*Appointment, error) {
	if err := in.validate(); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}

	ownerID, petName, err := s.pets.Info(ctx, in.PetID)
	if err != nil {
		return nil, errors.Join(ErrValidation, fmt.Errorf("pet lookup: %w", err))
	}
	if ownerID != userID {
		return nil, ErrNotPetOwner
	}

	// Cheap precheck before opening a transaction. The insert guard below
	// stays authoritative; this only rejects obviously taken slots early.
	if ok, reason := s.resolver.CheckSlot(ctx, in.DoctorID, in.Date, in.Time); !ok {
		s.log.Debug().Str("reason", reason).Str("date", in.Date).Str("time", in.Time).
			Msg("slot precheck rejected booking")
		return nil, ErrSlotConflict
	}

	a := &Appointment{
		ID:       uuid.New(),
		UserID:   userID,
		DoctorID: in.DoctorID,
		PetID:    in.PetID,
		PetName:  petName,
		Date:     in.Date,
		Time:     in.Time,
		Status:   StatusUpcoming,
		Cost:     in.Cost,
		Service:  strings.TrimSpace(in.Service),
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.appts.Create(ctx, a); err != nil {
			return err
		}
		if a.Cost > 0 {
			desc := fmt.Sprintf("appointment %s on %s %s", a.Service, a.Date, a.Time)
			if _, err := s.points.Debit(ctx, userID, a.Cost, ledger.EntryConsume, desc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotConflict), errors.Is(err, ErrPetBusy),
			errors.Is(err, ledger.ErrInsufficientPoints):
			return nil, err
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.log.Info().Str("appointment_id", a.ID.String()).Str("user_id", userID.String()).
		Str("date", a.Date).Str("time", a.Time).Int("cost", a.Cost).Msg("appointment created")
	return a, nil
}

// Cancel moves an upcoming appointment to cancelled and refunds its cost.
// Only the booking user or an admin may cancel. A second cancel of the same
// appointment fails the status precondition instead of double-crediting.
// The refund is best-effort: its failure is logged, not rolled back.
func (s *Service) Cancel(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) (int, error) {
	current, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if !isAdmin && current.UserID != requesterID {
		return 0, ErrNotAppointmentOwner
	}

	a, applied, err := s.appts.CancelIfUpcoming(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("cancel appointment: %w", err)
	}
	if !applied {
		return 0, ErrInvalidStateTransition
	}

	refunded := 0
	if a.Cost > 0 {
		desc := fmt.Sprintf("refund for cancelled appointment %s on %s %s", a.Service, a.Date, a.Time)
		if _, err := s.points.Credit(ctx, a.UserID, a.Cost, ledger.EntryRefund, desc); err != nil {
			s.log.Error().Err(err).Str("appointment_id", id.String()).
				Int("cost", a.Cost).Msg("refund failed after cancel")
		} else {
			refunded = a.Cost
		}
	}

	s.log.Info().Str("appointment_id", id.String()).Int("refunded", refunded).Msg("appointment cancelled")
	return refunded, nil
}

// SetInProgress is the operator action that starts a visit and pins its
// blocking window. Requires an upcoming appointment and start < end.
func (s *Service) SetInProgress(ctx context.Context, id uuid.UUID, start, end string) (*Appointment, error) {
	startMin, err := minuteOfDay(start)
	if err != nil {
		return nil, errors.Join(ErrBadTimeRange, err)
	}
	endMin, err := minuteOfDay(end)
	if err != nil {
		return nil, errors.Join(ErrBadTimeRange, err)
	}
	if startMin >= endMin {
		return nil, ErrBadTimeRange
	}

	a, applied, err := s.appts.StartIfUpcoming(ctx, id, start, end)
	if err != nil {
		return nil, fmt.Errorf("start appointment: %w", err)
	}
	if !applied {
		return nil, s.transitionFailure(ctx, id)
	}

	s.log.Info().Str("appointment_id", id.String()).Str("start", start).Str("end", end).
		Msg("appointment in progress")
	return a, nil
}

// Complete finishes an in_progress visit, then appends the derived medical
// record. The record write is best-effort; a failure is logged and the
// completed state stands.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, note string) (*Appointment, error) {
	a, applied, err := s.appts.CompleteIfInProgress(ctx, id, note)
	if err != nil {
		return nil, fmt.Errorf("complete appointment: %w", err)
	}
	if !applied {
		return nil, s.transitionFailure(ctx, id)
	}

	treatment := fmt.Sprintf("doctor %s", a.DoctorID)
	if note != "" {
		treatment += ": " + note
	}
	if err := s.records.AppendMedicalRecord(ctx, a.PetID, &a.ID, a.Service, treatment); err != nil {
		s.log.Error().Err(err).Str("appointment_id", id.String()).
			Str("pet_id", a.PetID.String()).Msg("medical record write failed after completion")
	}

	s.log.Info().Str("appointment_id", id.String()).Msg("appointment completed")
	return a, nil
}

// transitionFailure distinguishes a missing appointment from one in the
// wrong state after a conditional update matched no row.
func (s *Service) transitionFailure(ctx context.Context, id uuid.UUID) error {
	if _, err := s.appts.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrInvalidStateTransition
}

func (s *Service) Get(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && a.UserID != requesterID {
		return nil, ErrNotAppointmentOwner
	}
	return a, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appts.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) ListAll(ctx context.Context, status, date string, limit, offset int) ([]*Appointment, int, error) {
	if status != "" && status != StatusUpcoming && status != StatusInProgress &&
		status != StatusCompleted && status != StatusCancelled {
		return nil, 0, errors.Join(ErrValidation, fmt.Errorf("unknown status %q", status))
	}
	if date != "" && !ValidDate(date) {
		return nil, 0, errors.Join(ErrValidation, errors.New("date must be YYYY-MM-DD"))
	}
	return s.appts.ListAll(ctx, status, date, limit, offset)
}

// Availability returns the doctor's slot grid for one date.
func (s *Service) Availability(ctx context.Context, doctorID uuid.UUID, date string) ([]Slot, error) {
	if doctorID == uuid.Nil {
		return nil, errors.Join(ErrValidation, errors.New("doctor_id is required"))
	}
	if !ValidDate(date) {
		return nil, errors.Join(ErrValidation, errors.New("date must be YYYY-MM-DD"))
	}
	return s.resolver.DaySchedule(ctx, doctorID, date)
}
