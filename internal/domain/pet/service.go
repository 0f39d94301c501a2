package pet

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrPetNotFound = errors.New("pet not found")
	ErrNotOwner    = errors.New("pet belongs to another user")
	ErrPetInUse    = errors.New("pet has appointments or records")
	ErrInvalidPet  = errors.New("invalid pet")
)

type Service struct {
	pets Repository
	log  zerolog.Logger
}

func NewService(pets Repository, log zerolog.Logger) *Service {
	return &Service{pets: pets, log: log.With().Str("component", "pet").Logger()}
}

type CreateInput struct {
	Name      string
	Species   string
	Breed     string
	BirthDate *time.Time
}

func (in *CreateInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(in.Species) == "" {
		return errors.New("species is required")
	}
	if in.BirthDate != nil && in.BirthDate.After(time.Now()) {
		return errors.New("birth_date is in the future")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, in CreateInput) (*Pet, error) {
	if err := in.validate(); err != nil {
		return nil, errors.Join(ErrInvalidPet, err)
	}

	p := &Pet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(in.Name),
		Species:   strings.TrimSpace(in.Species),
		Breed:     strings.TrimSpace(in.Breed),
		BirthDate: in.BirthDate,
	}
	if err := s.pets.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info().Str("pet_id", p.ID.String()).Str("owner_id", ownerID.String()).Msg("pet created")
	return p, nil
}

// Get returns the pet when the requester owns it or is an admin.
func (s *Service) Get(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) (*Pet, error) {
	p, err := s.pets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && p.OwnerID != requesterID {
		return nil, ErrNotOwner
	}
	return p, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Pet, int, error) {
	return s.pets.ListByOwner(ctx, ownerID, limit, offset)
}

func (s *Service) Update(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool, in CreateInput) (*Pet, error) {
	if err := in.validate(); err != nil {
		return nil, errors.Join(ErrInvalidPet, err)
	}
	p, err := s.Get(ctx, id, requesterID, isAdmin)
	if err != nil {
		return nil, err
	}

	p.Name = strings.TrimSpace(in.Name)
	p.Species = strings.TrimSpace(in.Species)
	p.Breed = strings.TrimSpace(in.Breed)
	p.BirthDate = in.BirthDate
	if err := s.pets.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) error {
	if _, err := s.Get(ctx, id, requesterID, isAdmin); err != nil {
		return err
	}
	if err := s.pets.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("pet_id", id.String()).Msg("pet deleted")
	return nil
}

// Info returns the owner and display name for a pet. No ownership check;
// callers decide what the requester may do with the pet.
func (s *Service) Info(ctx context.Context, petID uuid.UUID) (uuid.UUID, string, error) {
	p, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return uuid.Nil, "", err
	}
	return p.OwnerID, p.Name, nil
}

// AppendMedicalRecord writes a visit record for the pet. Called by the booking
// flow when a visit completes; honors any transaction on the context.
func (s *Service) AppendMedicalRecord(ctx context.Context, petID uuid.UUID, appointmentID *uuid.UUID, diagnosis, treatment string) error {
	return s.pets.CreateRecord(ctx, &MedicalRecord{
		ID:            uuid.New(),
		PetID:         petID,
		AppointmentID: appointmentID,
		Diagnosis:     diagnosis,
		Treatment:     treatment,
	})
}

func (s *Service) ListMedicalRecords(ctx context.Context, petID, requesterID uuid.UUID, isAdmin bool, limit, offset int) ([]*MedicalRecord, int, error) {
	if _, err := s.Get(ctx, petID, requesterID, isAdmin); err != nil {
		return nil, 0, err
	}
	return s.pets.ListRecords(ctx, petID, limit, offset)
}
