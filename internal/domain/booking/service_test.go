package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vetcare/vetcare/internal/domain/ledger"
)

type mockRepo struct {
	mu    sync.Mutex
	appts map[uuid.UUID]*Appointment

	listErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) snapshot() map[uuid.UUID]*Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]*Appointment, len(m.appts))
	for id, a := range m.appts {
		cp := *a
		out[id] = &cp
	}
	return out
}

func (m *mockRepo) restore(snap map[uuid.UUID]*Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appts = snap
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.appts {
		if other.PetID == a.PetID && other.Active() {
			return ErrPetBusy
		}
		if other.DoctorID != a.DoctorID || other.Date != a.Date {
			continue
		}
		if other.Status == StatusUpcoming && other.Time == a.Time {
			return ErrSlotConflict
		}
		if other.Status == StatusInProgress && other.StartTime != nil && other.EndTime != nil &&
			*other.StartTime <= a.Time && a.Time < *other.EndTime {
			return ErrSlotConflict
		}
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Appointment
	for _, a := range m.appts {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) ListAll(_ context.Context, status, date string, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Appointment
	for _, a := range m.appts {
		if (status == "" || a.Status == status) && (date == "" || a.Date == date) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) ListActiveByDoctorDate(_ context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*Appointment
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.Date == date && a.Active() {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) CancelIfUpcoming(_ context.Context, id uuid.UUID) (*Appointment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || a.Status != StatusUpcoming {
		return nil, false, nil
	}
	a.Status = StatusCancelled
	cp := *a
	return &cp, true, nil
}

func (m *mockRepo) StartIfUpcoming(_ context.Context, id uuid.UUID, start, end string) (*Appointment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || a.Status != StatusUpcoming {
		return nil, false, nil
	}
	a.Status = StatusInProgress
	a.StartTime, a.EndTime = &start, &end
	cp := *a
	return &cp, true, nil
}

func (m *mockRepo) CompleteIfInProgress(_ context.Context, id uuid.UUID, note string) (*Appointment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || a.Status != StatusInProgress {
		return nil, false, nil
	}
	now := time.Now()
	a.Status = StatusCompleted
	a.AdminNote = note
	a.CompletedAt = &now
	cp := *a
	return &cp, true, nil
}

type ledgerEntry struct {
	amount    int
	entryType string
}

type mockLedger struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int
	entries  []ledgerEntry

	creditErr error
}

func newMockLedger() *mockLedger {
	return &mockLedger{balances: make(map[uuid.UUID]int)}
}

func (m *mockLedger) snapshot() (map[uuid.UUID]int, []ledgerEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balances := make(map[uuid.UUID]int, len(m.balances))
	for id, b := range m.balances {
		balances[id] = b
	}
	return balances, append([]ledgerEntry(nil), m.entries...)
}

func (m *mockLedger) restore(balances map[uuid.UUID]int, entries []ledgerEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances = balances
	m.entries = entries
}

func (m *mockLedger) Debit(_ context.Context, userID uuid.UUID, amount int, entryType, _ string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[userID] < amount {
		return 0, ledger.ErrInsufficientPoints
	}
	m.balances[userID] -= amount
	m.entries = append(m.entries, ledgerEntry{amount: -amount, entryType: entryType})
	return m.balances[userID], nil
}

func (m *mockLedger) Credit(_ context.Context, userID uuid.UUID, amount int, entryType, _ string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creditErr != nil {
		return 0, m.creditErr
	}
	m.balances[userID] += amount
	m.entries = append(m.entries, ledgerEntry{amount: amount, entryType: entryType})
	return m.balances[userID], nil
}

// snapshotTx imitates a rolled-back transaction by restoring both stores
// when the callback fails. gate, when set, serializes whole transactions the
// way the store serializes conditional statements, so concurrent tests can
// share one repo without snapshots clobbering each other.
type snapshotTx struct {
	repo   *mockRepo
	points *mockLedger
	gate   *sync.Mutex
}

func (t *snapshotTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.gate != nil {
		t.gate.Lock()
		defer t.gate.Unlock()
	}
	appts := t.repo.snapshot()
	balances, entries := t.points.snapshot()
	if err := fn(ctx); err != nil {
		t.repo.restore(appts)
		t.points.restore(balances, entries)
		return err
	}
	return nil
}

type mockPets struct {
	owner uuid.UUID
	name  string
}

func (m *mockPets) Info(context.Context, uuid.UUID) (uuid.UUID, string, error) {
	return m.owner, m.name, nil
}

type mockRecorder struct {
	mu         sync.Mutex
	records    []string
	treatments []string
	err        error
}

func (m *mockRecorder) AppendMedicalRecord(_ context.Context, _ uuid.UUID, _ *uuid.UUID, diagnosis, treatment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, diagnosis)
	m.treatments = append(m.treatments, treatment)
	return nil
}

type fixture struct {
	svc      *Service
	repo     *mockRepo
	points   *mockLedger
	recorder *mockRecorder
	userID   uuid.UUID
	petID    uuid.UUID
	doctorID uuid.UUID
}

func newFixture(balance int) *fixture {
	repo := newMockRepo()
	points := newMockLedger()
	recorder := &mockRecorder{}
	userID := uuid.New()
	points.balances[userID] = balance

	resolver := NewResolver(repo, zerolog.Nop())
	pets := &mockPets{owner: userID, name: "Rex"}
	svc := NewService(repo, resolver, points, pets, recorder,
		&snapshotTx{repo: repo, points: points}, zerolog.Nop())

	return &fixture{
		svc: svc, repo: repo, points: points, recorder: recorder,
		userID: userID, petID: uuid.New(), doctorID: uuid.New(),
	}
}

func (f *fixture) createInput() CreateInput {
	return CreateInput{
		DoctorID: f.doctorID, PetID: f.petID,
		Date: "2026-09-15", Time: "09:00", Service: "vaccination", Cost: 300,
	}
}

func TestCreateDebitsCost(t *testing.T) {
	f := newFixture(300)

	a, err := f.svc.Create(context.Background(), f.userID, f.createInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if a.Status != StatusUpcoming || a.PetName != "Rex" {
		t.Errorf("appointment = %+v", a)
	}
	if got := f.points.balances[f.userID]; got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
	if len(f.points.entries) != 1 || f.points.entries[0].amount != -300 ||
		f.points.entries[0].entryType != ledger.EntryConsume {
		t.Errorf("ledger entries = %+v, want one consume of -300", f.points.entries)
	}
}

func TestCreateInsufficientPointsLeavesNoTrace(t *testing.T) {
	f := newFixture(100)

	_, err := f.svc.Create(context.Background(), f.userID, f.createInput())
	if !errors.Is(err, ledger.ErrInsufficientPoints) {
		t.Fatalf("error = %v, want ErrInsufficientPoints", err)
	}
	if len(f.repo.appts) != 0 {
		t.Errorf("failed booking left %d appointments behind", len(f.repo.appts))
	}
	if f.points.balances[f.userID] != 100 {
		t.Errorf("balance = %d, want 100", f.points.balances[f.userID])
	}
}

func TestCreateFreeAppointmentSkipsDebit(t *testing.T) {
	f := newFixture(0)
	in := f.createInput()
	in.Cost = 0

	if _, err := f.svc.Create(context.Background(), f.userID, in); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if len(f.points.entries) != 0 {
		t.Errorf("free appointment wrote ledger entries: %+v", f.points.entries)
	}
}

func TestCreateSlotConflict(t *testing.T) {
	f := newFixture(1000)

	if _, err := f.svc.Create(context.Background(), f.userID, f.createInput()); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	// Same doctor, same slot, different pet and user.
	otherUser := uuid.New()
	otherPoints := newMockLedger()
	otherPoints.balances[otherUser] = 1000
	otherSvc := NewService(f.repo, NewResolver(f.repo, zerolog.Nop()), otherPoints,
		&mockPets{owner: otherUser, name: "Milo"}, &mockRecorder{},
		&snapshotTx{repo: f.repo, points: otherPoints}, zerolog.Nop())

	in := f.createInput()
	in.PetID = uuid.New()
	_, err := otherSvc.Create(context.Background(), otherUser, in)
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("error = %v, want ErrSlotConflict", err)
	}
	if otherPoints.balances[otherUser] != 1000 {
		t.Errorf("conflicting booking was charged, balance = %d", otherPoints.balances[otherUser])
	}
}

func TestCreateFailsClosedWhenAvailabilityUnreadable(t *testing.T) {
	f := newFixture(1000)
	f.repo.listErr = errors.New("db down")

	_, err := f.svc.Create(context.Background(), f.userID, f.createInput())
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("error = %v, want ErrSlotConflict when availability cannot be read", err)
	}
	if len(f.repo.appts) != 0 {
		t.Errorf("booking landed despite unreadable availability")
	}
	if f.points.balances[f.userID] != 1000 {
		t.Errorf("balance = %d, want untouched 1000", f.points.balances[f.userID])
	}
}

func TestCreatePetBusy(t *testing.T) {
	f := newFixture(1000)

	if _, err := f.svc.Create(context.Background(), f.userID, f.createInput()); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	in := f.createInput()
	in.Time = "10:00"
	_, err := f.svc.Create(context.Background(), f.userID, in)
	if !errors.Is(err, ErrPetBusy) {
		t.Fatalf("error = %v, want ErrPetBusy", err)
	}
}

func TestCreateRejectsStrangersPet(t *testing.T) {
	f := newFixture(1000)

	_, err := f.svc.Create(context.Background(), uuid.New(), f.createInput())
	if !errors.Is(err, ErrNotPetOwner) {
		t.Fatalf("error = %v, want ErrNotPetOwner", err)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(1000)

	cases := []func(*CreateInput){
		func(in *CreateInput) { in.Date = "15/09/2026" },
		func(in *CreateInput) { in.Time = "09:15" },
		func(in *CreateInput) { in.Time = "08:00" },
		func(in *CreateInput) { in.Time = "17:00" },
		func(in *CreateInput) { in.Service = "  " },
		func(in *CreateInput) { in.Cost = -1 },
		func(in *CreateInput) { in.DoctorID = uuid.Nil },
		func(in *CreateInput) { in.PetID = uuid.Nil },
	}
	for i, mutate := range cases {
		in := f.createInput()
		mutate(&in)
		if _, err := f.svc.Create(context.Background(), f.userID, in); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: error = %v, want ErrValidation", i, err)
		}
	}
}

func TestCancelRefundsExactlyOnce(t *testing.T) {
	f := newFixture(300)

	a, err := f.svc.Create(context.Background(), f.userID, f.createInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	refunded, err := f.svc.Cancel(context.Background(), a.ID, f.userID, false)
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if refunded != 300 {
		t.Errorf("refunded = %d, want 300", refunded)
	}
	if f.points.balances[f.userID] != 300 {
		t.Errorf("balance = %d, want 300 after round trip", f.points.balances[f.userID])
	}

	// Second cancel hits the status precondition, never the ledger.
	_, err = f.svc.Cancel(context.Background(), a.ID, f.userID, false)
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("second cancel error = %v, want ErrInvalidStateTransition", err)
	}
	refunds := 0
	for _, e := range f.points.entries {
		if e.entryType == ledger.EntryRefund {
			refunds++
		}
	}
	if refunds != 1 {
		t.Errorf("refund entries = %d, want 1", refunds)
	}
}

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture(1000)

	a, err := f.svc.Create(context.Background(), f.userID, f.createInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), a.ID, f.userID, false); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if _, err := f.svc.Create(context.Background(), f.userID, f.createInput()); err != nil {
		t.Fatalf("rebooking freed slot failed: %v", err)
	}
}

func TestCancelOwnership(t *testing.T) {
	f := newFixture(1000)

	a, err := f.svc.Create(context.Background(), f.userID, f.createInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := f.svc.Cancel(context.Background(), a.ID, uuid.New(), false); !errors.Is(err, ErrNotAppointmentOwner) {
		t.Errorf("stranger cancel error = %v, want ErrNotAppointmentOwner", err)
	}
	if _, err := f.svc.Cancel(context.Background(), a.ID, uuid.New(), true); err != nil {
		t.Errorf("admin cancel error = %v, want nil", err)
	}
}

func TestCancelInProgressFails(t *testing.T) {
	f := newFixture(1000)

	a, err := f.svc.Create(context.Background(), f.userID, f.createInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := f.svc.SetInProgress(context.Background(), a.ID, "09:00", "10:00"); err != nil {
		t.Fatalf("SetInProgress returned error: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), a.ID, f.userID, false); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("error = %v, want ErrInvalidStateTransition", err)
	}
}

func TestCancelRefundFailureStillCancels(t *testing.T) {
	f := newFixture(300)

	a, err := f.svc.Create(context.Background(), f.userID, f.createInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	f.points.creditErr = errors.New("ledger down")

	refunded, err := f.svc.Cancel(context.Background(), a.ID, f.userID, false)
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if refunded != 0 {
		t.Errorf("refunded = %d, want 0 when the credit fails", refunded)
	}
	got, _ := f.repo.GetByID(context.Background(), a.ID)
	if got.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled despite refund failure", got.Status)
	}
}

func TestSetInProgressBadTimeRange(t *testing.T) {
	f := newFixture(1000)

	a, err := f.svc.Create(context.Background(), f.userID, f.createInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	for _, tc := range [][2]string{
		{"10:00", "09:00"},
		{"09:00", "09:00"},
		{"9:00", "10:00"},
		{"morning", "10:00"},
	} {
		if _, err := f.svc.SetInProgress(context.Background(), a.ID, tc[0], tc[1]); !errors.Is(err, ErrBadTimeRange) {
			t.Errorf("SetInProgress(%q, %q) error = %v, want ErrBadTimeRange", tc[0], tc[1], err)
		}
	}
}

func TestSetInProgressOnCompletedFails(t *testing.T) {
	f := newFixture(1000)

	a, err := f.svc.Create(context.Background(), f.userID, f.createInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := f.svc.SetInProgress(context.Background(), a.ID, "09:00", "10:00"); err != nil {
		t.Fatalf("SetInProgress returned error: %v", err)
	}
	if _, err := f.svc.Complete(context.Background(), a.ID, "all done"); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	_, err = f.svc.SetInProgress(context.Background(), a.ID, "10:00", "11:00")
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("error = %v, want ErrInvalidStateTransition", err)
	}
}

func TestSetInProgressUnknownAppointment(t *testing.T) {
	f := newFixture(0)

	_, err := f.svc.SetInProgress(context.Background(), uuid.New(), "09:00", "10:00")
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("error = %v, want ErrAppointmentNotFound", err)
	}
}

func TestCompleteWritesMedicalRecord(t *testing.T) {
	f := newFixture(1000)

	a, err := f.svc.Create(context.Background(), f.userID, f.createInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := f.svc.SetInProgress(context.Background(), a.ID, "09:00", "10:00"); err != nil {
		t.Fatalf("SetInProgress returned error: %v", err)
	}

	done, err := f.svc.Complete(context.Background(), a.ID, "healthy")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if done.Status != StatusCompleted || done.CompletedAt == nil || done.AdminNote != "healthy" {
		t.Errorf("appointment = %+v", done)
	}
	if len(f.recorder.records) != 1 || f.recorder.records[0] != "vaccination" {
		t.Errorf("medical records = %v, want [vaccination]", f.recorder.records)
	}
	wantTreatment := "doctor " + f.doctorID.String() + ": healthy"
	if f.recorder.treatments[0] != wantTreatment {
		t.Errorf("treatment = %q, want %q", f.recorder.treatments[0], wantTreatment)
	}
}

func TestCompleteRecordFailureDoesNotUnwind(t *testing.T) {
	f := newFixture(1000)
	f.recorder.err = errors.New("pet store down")

	a, err := f.svc.Create(context.Background(), f.userID, f.createInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := f.svc.SetInProgress(context.Background(), a.ID, "09:00", "10:00"); err != nil {
		t.Fatalf("SetInProgress returned error: %v", err)
	}

	done, err := f.svc.Complete(context.Background(), a.ID, "healthy")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Errorf("status = %s, want completed despite record failure", done.Status)
	}
}

func TestCompleteRequiresInProgress(t *testing.T) {
	f := newFixture(1000)

	a, err := f.svc.Create(context.Background(), f.userID, f.createInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := f.svc.Complete(context.Background(), a.ID, ""); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("error = %v, want ErrInvalidStateTransition", err)
	}
}

func TestConcurrentBookingsForOneSlot(t *testing.T) {
	repo := newMockRepo()
	doctorID := uuid.New()
	date := "2026-09-15"

	const racers = 10
	var wg sync.WaitGroup
	var gate sync.Mutex
	var conflicts, created int
	var mu sync.Mutex

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			points := newMockLedger()
			userID := uuid.New()
			points.balances[userID] = 1000
			svc := NewService(repo, NewResolver(repo, zerolog.Nop()), points,
				&mockPets{owner: userID, name: "Rex"}, &mockRecorder{},
				&snapshotTx{repo: repo, points: points, gate: &gate}, zerolog.Nop())

			_, err := svc.Create(context.Background(), userID, CreateInput{
				DoctorID: doctorID, PetID: uuid.New(),
				Date: date, Time: "09:00", Service: "checkup", Cost: 100,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrSlotConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || conflicts != racers-1 {
		t.Errorf("created = %d, conflicts = %d, want 1 and %d", created, conflicts, racers-1)
	}
}
