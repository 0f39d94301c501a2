package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Slot availability states as seen by a booking user.
const (
	SlotAvailable = "available"
	SlotBooked    = "booked"
	SlotBusy      = "busy"
)

// Slot is one grid entry in a doctor's day schedule.
type Slot struct {
	Time   string `json:"time"`
	Status string `json:"status"`
}

// Resolver computes which grid slots a doctor has open on a given date. An
// upcoming appointment blocks exactly its own slot; an in_progress visit
// blocks every slot whose start falls inside its [start, end) window, at
// minute resolution, so operator-set windows need not align to the grid.
type Resolver struct {
	appts Repository
	log   zerolog.Logger
}

func NewResolver(appts Repository, log zerolog.Logger) *Resolver {
	return &Resolver{appts: appts, log: log.With().Str("component", "availability").Logger()}
}

// DaySchedule returns the full grid for one doctor and date.
func (r *Resolver) DaySchedule(ctx context.Context, doctorID uuid.UUID, date string) ([]Slot, error) {
	appts, err := r.appts.ListActiveByDoctorDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("day schedule: %w", err)
	}

	slots := Slots()
	out := make([]Slot, 0, len(slots))
	for _, t := range slots {
		out = append(out, Slot{Time: t, Status: slotStatus(t, appts)})
	}
	return out, nil
}

// CheckSlot reports whether one slot is open. It fails closed: when the
// store cannot be read the slot is reported unavailable, because assuming
// availability during a partial outage is how double bookings happen.
func (r *Resolver) CheckSlot(ctx context.Context, doctorID uuid.UUID, date, slot string) (bool, string) {
	appts, err := r.appts.ListActiveByDoctorDate(ctx, doctorID, date)
	if err != nil {
		r.log.Error().Err(err).Str("doctor_id", doctorID.String()).Str("date", date).
			Msg("availability check failed, reporting unavailable")
		return false, "store unavailable"
	}

	switch slotStatus(slot, appts) {
	case SlotBooked:
		return false, "slot already booked"
	case SlotBusy:
		return false, "doctor busy during this slot"
	default:
		return true, ""
	}
}

func slotStatus(slot string, appts []*Appointment) string {
	slotMin, err := minuteOfDay(slot)
	if err != nil {
		return SlotBusy
	}

	for _, a := range appts {
		switch a.Status {
		case StatusUpcoming:
			if a.Time == slot {
				return SlotBooked
			}
		case StatusInProgress:
			if a.StartTime == nil || a.EndTime == nil {
				continue
			}
			start, err1 := minuteOfDay(*a.StartTime)
			end, err2 := minuteOfDay(*a.EndTime)
			if err1 != nil || err2 != nil {
				continue
			}
			if start <= slotMin && slotMin < end {
				return SlotBusy
			}
		}
	}
	return SlotAvailable
}
