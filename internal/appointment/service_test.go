package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/hospital-api/internal/auth"
	redisclient "github.com/medibook/hospital-api/internal/redis"
	"github.com/medibook/hospital-api/internal/schedule"
)

// fakeRepo is an in-memory Repository.
type fakeRepo struct {
	appointments map[uuid.UUID]*Appointment
	patients     map[uuid.UUID]bool
	doctors      map[uuid.UUID]bool
	insertErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		appointments: make(map[uuid.UUID]*Appointment),
		patients:     make(map[uuid.UUID]bool),
		doctors:      make(map[uuid.UUID]bool),
	}
}

func (f *fakeRepo) PatientExists(_ context.Context, id uuid.UUID) error {
	if !f.patients[id] {
		return ErrPatientNotFound
	}
	return nil
}

func (f *fakeRepo) DoctorExists(_ context.Context, id uuid.UUID) error {
	if !f.doctors[id] {
		return ErrDoctorNotFound
	}
	return nil
}

func (f *fakeRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	a, err := f.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Appointment: *a}, nil
}

func (f *fakeRepo) details(filter func(*Appointment) bool) []Detail {
	out := []Detail{}
	for _, a := range f.appointments {
		if filter(a) {
			out = append(out, Detail{Appointment: *a})
		}
	}
	return out
}

func (f *fakeRepo) ListAll(context.Context) ([]Detail, error) {
	return f.details(func(*Appointment) bool { return true }), nil
}

func (f *fakeRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]Detail, error) {
	return f.details(func(a *Appointment) bool { return a.PatientID == patientID }), nil
}

func (f *fakeRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]Detail, error) {
	return f.details(func(a *Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (f *fakeRepo) ListByDoctorAndPatient(_ context.Context, doctorID, patientID uuid.UUID) ([]Detail, error) {
	return f.details(func(a *Appointment) bool {
		return a.DoctorID == doctorID && a.PatientID == patientID
	}), nil
}

func (f *fakeRepo) ListByStatus(_ context.Context, status Status) ([]Detail, error) {
	return f.details(func(a *Appointment) bool { return a.Status == status }), nil
}

func (f *fakeRepo) ListByDoctorAndStatus(_ context.Context, doctorID uuid.UUID, status Status) ([]Detail, error) {
	return f.details(func(a *Appointment) bool {
		return a.DoctorID == doctorID && a.Status == status
	}), nil
}

func (f *fakeRepo) ListByPatientAndStatus(_ context.Context, patientID uuid.UUID, status Status) ([]Detail, error) {
	return f.details(func(a *Appointment) bool {
		return a.PatientID == patientID && a.Status == status
	}), nil
}

func (f *fakeRepo) Insert(_ context.Context, a *Appointment) (*Appointment, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	cp := *a
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.appointments[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeRepo) SetStatus(_ context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) MarkCancelled(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	a.Status = StatusCancelled
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) SetReason(_ context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Reason = reason
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(f.appointments, id)
	return nil
}

// fakeAllocator is an in-memory schedule.Allocator.
type fakeAllocator struct {
	slots    map[uuid.UUID]*schedule.Slot
	books    int
	releases int
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{slots: make(map[uuid.UUID]*schedule.Slot)}
}

func (f *fakeAllocator) addSlot(doctorID uuid.UUID, maxPatients int) *schedule.Slot {
	slot := &schedule.Slot{
		ID:            uuid.New(),
		DoctorID:      doctorID,
		AvailableDate: time.Now().AddDate(0, 0, 1),
		StartTime:     "09:00",
		EndTime:       "09:30",
		SlotDuration:  30,
		MaxPatients:   maxPatients,
	}
	f.slots[slot.ID] = slot
	return slot
}

func (f *fakeAllocator) GetSlotByID(_ context.Context, id uuid.UUID) (*schedule.Slot, error) {
	s, ok := f.slots[id]
	if !ok {
		return nil, schedule.ErrSlotNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeAllocator) Book(_ context.Context, id uuid.UUID) (*schedule.Slot, error) {
	s, ok := f.slots[id]
	if !ok {
		return nil, schedule.ErrSlotNotFound
	}
	if s.CurrentBookings >= s.MaxPatients {
		return nil, schedule.ErrSlotFull
	}
	s.Book()
	f.books++
	cp := *s
	return &cp, nil
}

func (f *fakeAllocator) Release(_ context.Context, id uuid.UUID) (*schedule.Slot, error) {
	s, ok := f.slots[id]
	if !ok {
		return nil, schedule.ErrSlotNotFound
	}
	s.Release()
	f.releases++
	cp := *s
	return &cp, nil
}

// noopLocker runs the critical section inline.
type noopLocker struct{}

func (noopLocker) WithSlotLock(ctx context.Context, _ uuid.UUID, fn func(context.Context) error) error {
	return fn(ctx)
}

// busyLocker simulates a lock held by another request.
type busyLocker struct{}

func (busyLocker) WithSlotLock(context.Context, uuid.UUID, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

type fixture struct {
	svc   *Service
	repo  *fakeRepo
	slots *fakeAllocator

	admin   auth.Actor
	doctor  auth.Actor
	patient auth.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newFakeRepo()
	slots := newFakeAllocator()
	svc := NewService(repo, slots, noopLocker{}, zerolog.Nop())

	doctorID := uuid.New()
	patientID := uuid.New()
	repo.doctors[doctorID] = true
	repo.patients[patientID] = true

	return &fixture{
		svc:   svc,
		repo:  repo,
		slots: slots,
		admin: auth.Actor{
			UserID:   uuid.New(),
			Username: "admin",
			Role:     auth.RoleAdmin,
		},
		doctor: auth.Actor{
			UserID:   uuid.New(),
			Username: "drsmith",
			Role:     auth.RoleDoctor,
			DoctorID: doctorID,
		},
		patient: auth.Actor{
			UserID:    uuid.New(),
			Username:  "jdoe",
			Role:      auth.RolePatient,
			PatientID: patientID,
		},
	}
}

func (fx *fixture) book(t *testing.T, slotID uuid.UUID) *Detail {
	t.Helper()
	detail, err := fx.svc.Create(context.Background(), fx.patient, CreateInput{
		DoctorID:   fx.doctor.DoctorID,
		ScheduleID: slotID,
		Reason:     "checkup",
	})
	require.NoError(t, err)
	return detail
}

func TestCreateBooksSlot(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 3)

	detail := fx.book(t, slot.ID)

	assert.Equal(t, StatusScheduled, detail.Status)
	assert.Equal(t, fx.patient.PatientID, detail.PatientID)
	assert.Equal(t, 1, fx.slots.slots[slot.ID].CurrentBookings)
	require.NotNil(t, detail.AppointmentDate)
	require.NotNil(t, detail.AppointmentTime)
	assert.Equal(t, "09:00", *detail.AppointmentTime)
}

func TestCreateIgnoresSuppliedPatientIDForPatients(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 3)

	other := uuid.New()
	fx.repo.patients[other] = true

	detail, err := fx.svc.Create(context.Background(), fx.patient, CreateInput{
		PatientID:  other,
		DoctorID:   fx.doctor.DoctorID,
		ScheduleID: slot.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, fx.patient.PatientID, detail.PatientID)
}

func TestCreateRejectsSlotOfAnotherDoctor(t *testing.T) {
	fx := newFixture(t)

	otherDoctor := uuid.New()
	fx.repo.doctors[otherDoctor] = true
	slot := fx.slots.addSlot(otherDoctor, 3)

	_, err := fx.svc.Create(context.Background(), fx.patient, CreateInput{
		DoctorID:   fx.doctor.DoctorID,
		ScheduleID: slot.ID,
	})
	assert.ErrorIs(t, err, ErrSlotDoctorMismatch)
}

func TestCreateConflictsWhenSlotFull(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 1)

	fx.book(t, slot.ID)

	_, err := fx.svc.Create(context.Background(), fx.patient, CreateInput{
		DoctorID:   fx.doctor.DoctorID,
		ScheduleID: slot.ID,
	})
	assert.ErrorIs(t, err, schedule.ErrSlotFull)
	assert.Equal(t, 1, fx.slots.slots[slot.ID].CurrentBookings)
}

func TestCreateReleasesSlotWhenInsertFails(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 3)
	fx.repo.insertErr = errors.New("db down")

	_, err := fx.svc.Create(context.Background(), fx.patient, CreateInput{
		DoctorID:   fx.doctor.DoctorID,
		ScheduleID: slot.ID,
	})
	require.Error(t, err)
	assert.Equal(t, 0, fx.slots.slots[slot.ID].CurrentBookings)
	assert.Equal(t, 1, fx.slots.releases)
}

func TestCreateValidatesExplicitPatientForAdmins(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 3)

	_, err := fx.svc.Create(context.Background(), fx.admin, CreateInput{
		PatientID:  uuid.New(),
		DoctorID:   fx.doctor.DoctorID,
		ScheduleID: slot.ID,
	})
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestCancelReleasesCapacityExactlyOnce(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 3)
	detail := fx.book(t, slot.ID)

	cancelled, err := fx.svc.Cancel(context.Background(), fx.patient, detail.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, 0, fx.slots.slots[slot.ID].CurrentBookings)

	// Second cancel is a no-op and must not release again.
	_, err = fx.svc.Cancel(context.Background(), fx.patient, detail.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fx.slots.releases)
	assert.Equal(t, 0, fx.slots.slots[slot.ID].CurrentBookings)
}

func TestCancelViaStatusUpdateReleasesCapacity(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 3)
	detail := fx.book(t, slot.ID)

	_, err := fx.svc.UpdateStatus(context.Background(), fx.doctor, detail.ID, "CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, 0, fx.slots.slots[slot.ID].CurrentBookings)
	assert.Equal(t, 1, fx.slots.releases)
}

func TestReactivatingCancelledAppointmentRebooks(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 1)
	detail := fx.book(t, slot.ID)

	_, err := fx.svc.Cancel(context.Background(), fx.patient, detail.ID)
	require.NoError(t, err)

	updated, err := fx.svc.UpdateStatus(context.Background(), fx.doctor, detail.ID, "SCHEDULED")
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, updated.Status)
	assert.Equal(t, 1, fx.slots.slots[slot.ID].CurrentBookings)
}

func TestReactivationFailsWhenSlotRefilled(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 1)
	detail := fx.book(t, slot.ID)

	_, err := fx.svc.Cancel(context.Background(), fx.patient, detail.ID)
	require.NoError(t, err)

	// Another patient takes the freed capacity.
	fx.book(t, slot.ID)

	_, err = fx.svc.UpdateStatus(context.Background(), fx.doctor, detail.ID, "SCHEDULED")
	assert.ErrorIs(t, err, schedule.ErrSlotFull)

	stored, err := fx.repo.GetAppointmentByID(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 3)
	detail := fx.book(t, slot.ID)

	_, err := fx.svc.UpdateStatus(context.Background(), fx.doctor, detail.ID, "DONE")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestPatientsCannotUpdateStatus(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 3)
	detail := fx.book(t, slot.ID)

	_, err := fx.svc.UpdateStatus(context.Background(), fx.patient, detail.ID, "COMPLETED")
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestDoctorCannotTouchOtherDoctorsAppointment(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 3)
	detail := fx.book(t, slot.ID)

	stranger := auth.Actor{
		UserID:   uuid.New(),
		Role:     auth.RoleDoctor,
		DoctorID: uuid.New(),
	}

	_, err := fx.svc.Get(context.Background(), stranger, detail.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = fx.svc.UpdateStatus(context.Background(), stranger, detail.ID, "COMPLETED")
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestDeleteReleasesHeldCapacity(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 3)
	detail := fx.book(t, slot.ID)

	err := fx.svc.Delete(context.Background(), fx.admin, detail.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fx.slots.slots[slot.ID].CurrentBookings)

	_, err = fx.repo.GetAppointmentByID(context.Background(), detail.ID)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestDeleteOfCancelledAppointmentDoesNotRelease(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 3)
	detail := fx.book(t, slot.ID)

	_, err := fx.svc.Cancel(context.Background(), fx.patient, detail.ID)
	require.NoError(t, err)

	err = fx.svc.Delete(context.Background(), fx.admin, detail.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fx.slots.releases)
}

func TestListIsRoleScoped(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 3)
	fx.book(t, slot.ID)

	// An unrelated appointment for a different doctor and patient.
	otherDoctor, otherPatient := uuid.New(), uuid.New()
	fx.repo.doctors[otherDoctor] = true
	fx.repo.patients[otherPatient] = true
	otherSlot := fx.slots.addSlot(otherDoctor, 3)
	_, err := fx.svc.Create(context.Background(), fx.admin, CreateInput{
		PatientID:  otherPatient,
		DoctorID:   otherDoctor,
		ScheduleID: otherSlot.ID,
	})
	require.NoError(t, err)

	all, err := fx.svc.List(context.Background(), fx.admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := fx.svc.List(context.Background(), fx.patient)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, fx.patient.PatientID, mine[0].PatientID)

	docs, err := fx.svc.List(context.Background(), fx.doctor)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, fx.doctor.DoctorID, docs[0].DoctorID)
}

func TestUpdateChangesReasonAndStatus(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 3)
	detail := fx.book(t, slot.ID)

	reason := "follow-up"
	status := "CONFIRMED"
	updated, err := fx.svc.Update(context.Background(), fx.doctor, detail.ID, UpdateInput{
		Reason: &reason,
		Status: &status,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)
	assert.Equal(t, "follow-up", updated.Reason)
}

func TestCreateReportsBusySlot(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 3)

	svc := NewService(fx.repo, fx.slots, busyLocker{}, zerolog.Nop())
	_, err := svc.Create(context.Background(), fx.patient, CreateInput{
		DoctorID:   fx.doctor.DoctorID,
		ScheduleID: slot.ID,
	})
	assert.ErrorIs(t, err, ErrSlotBusy)
	assert.Equal(t, 0, fx.slots.slots[slot.ID].CurrentBookings)
}

func TestStatsCountsCallerScope(t *testing.T) {
	fx := newFixture(t)
	slot := fx.slots.addSlot(fx.doctor.DoctorID, 3)

	first := fx.book(t, slot.ID)
	fx.book(t, slot.ID)

	_, err := fx.svc.Cancel(context.Background(), fx.patient, first.ID)
	require.NoError(t, err)

	stats, err := fx.svc.Stats(context.Background(), fx.patient)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Scheduled)
	assert.Equal(t, 1, stats.Cancelled)
	assert.Equal(t, 0, stats.Completed)
}
