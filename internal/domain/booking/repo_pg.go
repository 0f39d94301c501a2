package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const appointmentColumns = `id, user_id, doctor_id, pet_id, pet_name, date, time,
	status, cost, service, start_time, end_time, admin_note, completed_at,
	created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.UserID, &a.DoctorID, &a.PetID, &a.PetName, &a.Date, &a.Time,
		&a.Status, &a.Cost, &a.Service, &a.StartTime, &a.EndTime, &a.AdminNote, &a.CompletedAt,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PGRepository) Create(ctx context.Context, a *Appointment) error {
	conn := db.Conn(ctx, r.pool)

	// The NOT EXISTS guards cover in_progress windows, which the partial
	// unique indexes cannot express. The indexes close the remaining race on
	// exact slots and on the one-active-appointment-per-pet rule.
	err := conn.QueryRow(ctx,
		`INSERT INTO appointment (id, user_id, doctor_id, pet_id, pet_name, date, time, status, cost, service)
		 SELECT $1, $2, $3, $4, $5, $6, $7, 'upcoming', $8, $9
		 WHERE NOT EXISTS (
		   SELECT 1 FROM appointment
		   WHERE doctor_id = $3 AND date = $6
		     AND ((status = 'upcoming' AND time = $7)
		       OR (status = 'in_progress' AND start_time <= $7 AND end_time > $7))
		 )
		 AND NOT EXISTS (
		   SELECT 1 FROM appointment
		   WHERE pet_id = $4 AND status IN ('upcoming', 'in_progress')
		 )
		 RETURNING created_at, updated_at`,
		a.ID, a.UserID, a.DoctorID, a.PetID, a.PetName, a.Date, a.Time, a.Cost, a.Service,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err == nil {
		a.Status = StatusUpcoming
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if strings.Contains(pgErr.ConstraintName, "pet") {
			return ErrPetBusy
		}
		return ErrSlotConflict
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return r.classifyCreateRejection(ctx, a)
	}
	return fmt.Errorf("insert appointment: %w", err)
}

// classifyCreateRejection decides which guard blocked the insert.
func (r *PGRepository) classifyCreateRejection(ctx context.Context, a *Appointment) error {
	conn := db.Conn(ctx, r.pool)

	var petBusy bool
	err := conn.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM appointment
		   WHERE pet_id = $1 AND status IN ('upcoming', 'in_progress')
		 )`, a.PetID,
	).Scan(&petBusy)
	if err != nil {
		return fmt.Errorf("classify rejected insert: %w", err)
	}
	if petBusy {
		return ErrPetBusy
	}
	return ErrSlotConflict
}

func (r *PGRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	conn := db.Conn(ctx, r.pool)

	a, err := scanAppointment(conn.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointment WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query appointment: %w", err)
	}
	return a, nil
}

func (r *PGRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	conn := db.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	rows, err := conn.Query(ctx,
		`SELECT `+appointmentColumns+`
		 FROM appointment
		 WHERE user_id = $1
		 ORDER BY date DESC, time DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query appointments: %w", err)
	}
	appts, err := collectAppointments(rows)
	if err != nil {
		return nil, 0, err
	}
	return appts, total, nil
}

func (r *PGRepository) ListAll(ctx context.Context, status, date string, limit, offset int) ([]*Appointment, int, error) {
	conn := db.Conn(ctx, r.pool)

	where := `($1 = '' OR status = $1) AND ($2 = '' OR date = $2)`

	var total int
	if err := conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE `+where, status, date,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	rows, err := conn.Query(ctx,
		`SELECT `+appointmentColumns+`
		 FROM appointment
		 WHERE `+where+`
		 ORDER BY date DESC, time DESC, id DESC
		 LIMIT $3 OFFSET $4`,
		status, date, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query appointments: %w", err)
	}
	appts, err := collectAppointments(rows)
	if err != nil {
		return nil, 0, err
	}
	return appts, total, nil
}

func (r *PGRepository) ListActiveByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error) {
	conn := db.Conn(ctx, r.pool)

	rows, err := conn.Query(ctx,
		`SELECT `+appointmentColumns+`
		 FROM appointment
		 WHERE doctor_id = $1 AND date = $2 AND status IN ('upcoming', 'in_progress')
		 ORDER BY time`,
		doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("query active appointments: %w", err)
	}
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]*Appointment, error) {
	defer rows.Close()
	var appts []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return appts, nil
}

func (r *PGRepository) CancelIfUpcoming(ctx context.Context, id uuid.UUID) (*Appointment, bool, error) {
	return r.transition(ctx,
		`UPDATE appointment
		 SET status = 'cancelled', updated_at = NOW()
		 WHERE id = $1 AND status = 'upcoming'
		 RETURNING `+appointmentColumns,
		id)
}

func (r *PGRepository) StartIfUpcoming(ctx context.Context, id uuid.UUID, start, end string) (*Appointment, bool, error) {
	return r.transition(ctx,
		`UPDATE appointment
		 SET status = 'in_progress', start_time = $2, end_time = $3, updated_at = NOW()
		 WHERE id = $1 AND status = 'upcoming'
		 RETURNING `+appointmentColumns,
		id, start, end)
}

func (r *PGRepository) CompleteIfInProgress(ctx context.Context, id uuid.UUID, note string) (*Appointment, bool, error) {
	return r.transition(ctx,
		`UPDATE appointment
		 SET status = 'completed', admin_note = $2, completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND status = 'in_progress'
		 RETURNING `+appointmentColumns,
		id, note)
}

func (r *PGRepository) transition(ctx context.Context, query string, args ...any) (*Appointment, bool, error) {
	conn := db.Conn(ctx, r.pool)

	a, err := scanAppointment(conn.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("transition appointment: %w", err)
	}
	return a, true, nil
}
