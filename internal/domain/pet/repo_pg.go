package pet

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

func (r *PGRepository) Create(ctx context.Context, p *Pet) error {
	conn := db.Conn(ctx, r.pool)

	err := conn.QueryRow(ctx,
		`INSERT INTO pet (id, owner_id, name, species, breed, birth_date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		p.ID, p.OwnerID, p.Name, p.Species, p.Breed, p.BirthDate,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert pet: %w", err)
	}
	return nil
}

func (r *PGRepository) GetByID(ctx context.Context, id uuid.UUID) (*Pet, error) {
	conn := db.Conn(ctx, r.pool)

	var p Pet
	err := conn.QueryRow(ctx,
		`SELECT id, owner_id, name, species, breed, birth_date, created_at, updated_at
		 FROM pet WHERE id = $1`, id,
	).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Species, &p.Breed, &p.BirthDate, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query pet: %w", err)
	}
	return &p, nil
}

func (r *PGRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Pet, int, error) {
	conn := db.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM pet WHERE owner_id = $1`, ownerID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count pets: %w", err)
	}

	rows, err := conn.Query(ctx,
		`SELECT id, owner_id, name, species, breed, birth_date, created_at, updated_at
		 FROM pet WHERE owner_id = $1
		 ORDER BY created_at, id
		 LIMIT $2 OFFSET $3`,
		ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query pets: %w", err)
	}
	defer rows.Close()

	var pets []*Pet
	for rows.Next() {
		var p Pet
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Species, &p.Breed, &p.BirthDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan pet: %w", err)
		}
		pets = append(pets, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate pets: %w", err)
	}
	return pets, total, nil
}

func (r *PGRepository) Update(ctx context.Context, p *Pet) error {
	conn := db.Conn(ctx, r.pool)

	tag, err := conn.Exec(ctx,
		`UPDATE pet
		 SET name = $2, species = $3, breed = $4, birth_date = $5, updated_at = NOW()
		 WHERE id = $1`,
		p.ID, p.Name, p.Species, p.Breed, p.BirthDate)
	if err != nil {
		return fmt.Errorf("update pet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPetNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) error {
	conn := db.Conn(ctx, r.pool)

	tag, err := conn.Exec(ctx, `DELETE FROM pet WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23503: appointments or records still reference this pet.
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrPetInUse
		}
		return fmt.Errorf("delete pet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPetNotFound
	}
	return nil
}

func (r *PGRepository) CreateRecord(ctx context.Context, rec *MedicalRecord) error {
	conn := db.Conn(ctx, r.pool)

	err := conn.QueryRow(ctx,
		`INSERT INTO medical_record (id, pet_id, appointment_id, diagnosis, treatment)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		rec.ID, rec.PetID, rec.AppointmentID, rec.Diagnosis, rec.Treatment,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert medical record: %w", err)
	}
	return nil
}

func (r *PGRepository) ListRecords(ctx context.Context, petID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	conn := db.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM medical_record WHERE pet_id = $1`, petID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count medical records: %w", err)
	}

	rows, err := conn.Query(ctx,
		`SELECT id, pet_id, appointment_id, diagnosis, treatment, created_at
		 FROM medical_record WHERE pet_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		petID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query medical records: %w", err)
	}
	defer rows.Close()

	var records []*MedicalRecord
	for rows.Next() {
		var rec MedicalRecord
		if err := rows.Scan(&rec.ID, &rec.PetID, &rec.AppointmentID, &rec.Diagnosis, &rec.Treatment, &rec.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan medical record: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate medical records: %w", err)
	}
	return records, total, nil
}
