package pet

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Pet) error
	GetByID(ctx context.Context, id uuid.UUID) (*Pet, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Pet, int, error)
	Update(ctx context.Context, p *Pet) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateRecord(ctx context.Context, r *MedicalRecord) error
	ListRecords(ctx context.Context, petID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error)
}
