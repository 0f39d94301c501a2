package pet

import (
	"time"

	"github.com/google/uuid"
)

// Pet maps to the pet table.
type Pet struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	OwnerID   uuid.UUID  `db:"owner_id" json:"owner_id"`
	Name      string     `db:"name" json:"name"`
	Species   string     `db:"species" json:"species"`
	Breed     string     `db:"breed" json:"breed,omitempty"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// MedicalRecord maps to the medical_record table. Records are appended when a
// visit completes and are never edited afterwards.
type MedicalRecord struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PetID         uuid.UUID  `db:"pet_id" json:"pet_id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Diagnosis     string     `db:"diagnosis" json:"diagnosis"`
	Treatment     string     `db:"treatment" json:"treatment,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
