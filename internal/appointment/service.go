package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medibook/hospital-api/internal/auth"
	redisclient "github.com/medibook/hospital-api/internal/redis"
	"github.com/medibook/hospital-api/internal/schedule"
)

var (
	ErrAccessDenied         = errors.New("access denied to this appointment")
	ErrPatientRequired      = errors.New("patient id is required")
	ErrDoctorRequired       = errors.New("doctor id is required")
	ErrScheduleRequired     = errors.New("schedule id is required")
	ErrSlotDoctorMismatch   = errors.New("schedule does not belong to the specified doctor")
	ErrDoctorProfileMissing = errors.New("doctor profile not found")
	ErrSlotBusy             = errors.New("slot is currently being booked, please retry")
)

// Service is the appointment lifecycle manager: it orchestrates
// creation, reads, status changes, cancellation, and deletion, keeping
// slot capacity consistent with appointment state and enforcing the
// role-based access rules on every operation.
type Service struct {
	repo   Repository
	slots  schedule.Allocator
	locker redisclient.Locker
	log    zerolog.Logger
}

func NewService(repo Repository, slots schedule.Allocator, locker redisclient.Locker, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		slots:  slots,
		locker: locker,
		log:    log,
	}
}

type CreateInput struct {
	PatientID  uuid.UUID // ignored for PATIENT callers, who always book as themselves
	DoctorID   uuid.UUID
	ScheduleID uuid.UUID
	Reason     string
}

// Create books a slot and persists the appointment. The slot booking is
// a conditional increment, so two concurrent requests for the last unit
// of capacity cannot both succeed; the per-slot lock only keeps the
// compensating release from interleaving with another booking.
func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (*Detail, error) {
	// Patients book for themselves regardless of the supplied id.
	patientID := in.PatientID
	if actor.IsPatient() {
		patientID = actor.PatientID
	} else {
		if patientID == uuid.Nil {
			return nil, ErrPatientRequired
		}
		if err := s.repo.PatientExists(ctx, patientID); err != nil {
			return nil, err
		}
	}

	if in.DoctorID == uuid.Nil {
		return nil, ErrDoctorRequired
	}
	if err := s.repo.DoctorExists(ctx, in.DoctorID); err != nil {
		return nil, err
	}

	if in.ScheduleID == uuid.Nil {
		return nil, ErrScheduleRequired
	}
	slot, err := s.slots.GetSlotByID(ctx, in.ScheduleID)
	if err != nil {
		return nil, err
	}
	if slot.DoctorID != in.DoctorID {
		return nil, ErrSlotDoctorMismatch
	}

	// Fast-path rejection; the conditional Book below is authoritative.
	if !slot.IsAvailable() {
		return nil, schedule.ErrSlotFull
	}

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, slot.ID, func(lockCtx context.Context) error {
		booked, err := s.slots.Book(lockCtx, slot.ID)
		if err != nil {
			return err
		}

		scheduleID := booked.ID
		startTime := booked.StartTime
		appt := &Appointment{
			PatientID:       patientID,
			DoctorID:        in.DoctorID,
			ScheduleID:      &scheduleID,
			Status:          StatusScheduled,
			Reason:          in.Reason,
			AppointmentDate: &booked.AvailableDate,
			AppointmentTime: &startTime,
		}

		created, err = s.repo.Insert(lockCtx, appt)
		if err != nil {
			// Compensating release; without it the slot leaks one unit
			// of capacity.
			if _, relErr := s.slots.Release(lockCtx, slot.ID); relErr != nil {
				s.log.Error().Err(relErr).Stringer("slot_id", slot.ID).
					Msg("compensating slot release failed, capacity leaked")
			}
			return fmt.Errorf("persist appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBusy
		}
		return nil, err
	}

	s.log.Info().
		Stringer("appointment_id", created.ID).
		Stringer("slot_id", slot.ID).
		Str("booked_by", actor.Username).
		Msg("appointment created")

	return s.repo.GetDetail(ctx, created.ID)
}

// List returns the caller's role-scoped view: admins see everything,
// doctors their own calendar, patients their own bookings.
func (s *Service) List(ctx context.Context, actor auth.Actor) ([]Detail, error) {
	switch actor.Role {
	case auth.RoleAdmin:
		return s.repo.ListAll(ctx)
	case auth.RoleDoctor:
		if actor.DoctorID == uuid.Nil {
			return nil, ErrDoctorProfileMissing
		}
		return s.repo.ListByDoctor(ctx, actor.DoctorID)
	case auth.RolePatient:
		return s.repo.ListByPatient(ctx, actor.PatientID)
	}
	return nil, ErrAccessDenied
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Detail, error) {
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.hasAccess(actor, &detail.Appointment) {
		return nil, ErrAccessDenied
	}
	return detail, nil
}

func (s *Service) ListForPatient(ctx context.Context, actor auth.Actor, patientID uuid.UUID) ([]Detail, error) {
	switch actor.Role {
	case auth.RoleAdmin:
		return s.repo.ListByPatient(ctx, patientID)
	case auth.RoleDoctor:
		if actor.DoctorID == uuid.Nil {
			return nil, ErrDoctorProfileMissing
		}
		return s.repo.ListByDoctorAndPatient(ctx, actor.DoctorID, patientID)
	case auth.RolePatient:
		if actor.PatientID != patientID {
			return nil, ErrAccessDenied
		}
		return s.repo.ListByPatient(ctx, patientID)
	}
	return nil, ErrAccessDenied
}

func (s *Service) ListForDoctor(ctx context.Context, actor auth.Actor, doctorID uuid.UUID) ([]Detail, error) {
	switch actor.Role {
	case auth.RoleAdmin:
		return s.repo.ListByDoctor(ctx, doctorID)
	case auth.RoleDoctor:
		if actor.DoctorID != doctorID {
			return nil, ErrAccessDenied
		}
		return s.repo.ListByDoctor(ctx, doctorID)
	case auth.RolePatient:
		return s.repo.ListByDoctorAndPatient(ctx, doctorID, actor.PatientID)
	}
	return nil, ErrAccessDenied
}

func (s *Service) ListByStatus(ctx context.Context, actor auth.Actor, statusStr string) ([]Detail, error) {
	status, err := ParseStatus(statusStr)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case auth.RoleAdmin:
		return s.repo.ListByStatus(ctx, status)
	case auth.RoleDoctor:
		if actor.DoctorID == uuid.Nil {
			return nil, ErrDoctorProfileMissing
		}
		return s.repo.ListByDoctorAndStatus(ctx, actor.DoctorID, status)
	case auth.RolePatient:
		return s.repo.ListByPatientAndStatus(ctx, actor.PatientID, status)
	}
	return nil, ErrAccessDenied
}

// UpdateStatus applies a status value on the generic path. Admins may
// set any status anywhere; doctors only on their own appointments;
// patients have no status-update path at all (cancel is their route).
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, statusStr string) (*Detail, error) {
	status, err := ParseStatus(statusStr)
	if err != nil {
		return nil, err
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case auth.RoleAdmin:
	case auth.RoleDoctor:
		if actor.DoctorID == uuid.Nil || actor.DoctorID != appt.DoctorID {
			return nil, ErrAccessDenied
		}
	default:
		return nil, ErrAccessDenied
	}

	if err := s.transition(ctx, appt, status); err != nil {
		return nil, err
	}
	return s.repo.GetDetail(ctx, id)
}

// Cancel is the self-service cancellation path, open to the
// appointment's patient, its doctor, and admins.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Detail, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.hasAccess(actor, appt) {
		return nil, ErrAccessDenied
	}

	if err := s.transition(ctx, appt, StatusCancelled); err != nil {
		return nil, err
	}
	return s.repo.GetDetail(ctx, id)
}

type UpdateInput struct {
	Reason *string
	Status *string
}

// Update applies a partial edit: only supplied fields change.
func (s *Service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, in UpdateInput) (*Detail, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.hasAccess(actor, appt) {
		return nil, ErrAccessDenied
	}

	if in.Status != nil {
		status, err := ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		if err := s.transition(ctx, appt, status); err != nil {
			return nil, err
		}
	}

	if in.Reason != nil {
		if _, err := s.repo.SetReason(ctx, id, *in.Reason); err != nil {
			return nil, err
		}
	}

	return s.repo.GetDetail(ctx, id)
}

// Delete removes the record, releasing held capacity first.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasAccess(actor, appt) {
		return ErrAccessDenied
	}

	if appt.Status.HoldsCapacity() {
		// Claim the release through the cancellation flip so a racing
		// cancel and delete cannot both free the slot.
		if _, err := s.repo.MarkCancelled(ctx, id); err == nil {
			s.releaseSlot(ctx, appt)
		} else if !errors.Is(err, ErrAlreadyCancelled) && !errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
	}

	return s.repo.Delete(ctx, id)
}

// Stats summarizes the caller's role-scoped appointments.
func (s *Service) Stats(ctx context.Context, actor auth.Actor) (*Stats, error) {
	appointments, err := s.List(ctx, actor)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Total: len(appointments)}
	for _, a := range appointments {
		switch a.Status {
		case StatusScheduled:
			stats.Scheduled++
		case StatusCompleted:
			stats.Completed++
		case StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

// hasAccess is the single ownership predicate shared by read-by-id,
// update, cancel, and delete.
func (s *Service) hasAccess(actor auth.Actor, appt *Appointment) bool {
	switch actor.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleDoctor:
		return actor.DoctorID != uuid.Nil && actor.DoctorID == appt.DoctorID
	case auth.RolePatient:
		return actor.PatientID != uuid.Nil && actor.PatientID == appt.PatientID
	}
	return false
}

// transition applies a status change while keeping slot capacity
// consistent: entering CANCELLED releases the slot exactly once, and
// leaving CANCELLED re-books it through the same conditional increment,
// so reactivating against a refilled slot fails rather than over-books.
func (s *Service) transition(ctx context.Context, appt *Appointment, to Status) error {
	switch {
	case to == StatusCancelled && appt.Status != StatusCancelled:
		if _, err := s.repo.MarkCancelled(ctx, appt.ID); err != nil {
			if errors.Is(err, ErrAlreadyCancelled) {
				// Lost the flip to a concurrent cancel; capacity is
				// already released.
				return nil
			}
			return err
		}
		s.releaseSlot(ctx, appt)
		return nil

	case to != StatusCancelled && appt.Status == StatusCancelled:
		if appt.ScheduleID != nil {
			if _, err := s.slots.Book(ctx, *appt.ScheduleID); err != nil {
				return err
			}
		}
		if _, err := s.repo.SetStatus(ctx, appt.ID, to); err != nil {
			if appt.ScheduleID != nil {
				if _, relErr := s.slots.Release(ctx, *appt.ScheduleID); relErr != nil {
					s.log.Error().Err(relErr).Stringer("slot_id", *appt.ScheduleID).
						Msg("rollback slot release failed")
				}
			}
			return err
		}
		return nil

	default:
		_, err := s.repo.SetStatus(ctx, appt.ID, to)
		return err
	}
}

func (s *Service) releaseSlot(ctx context.Context, appt *Appointment) {
	if appt.ScheduleID == nil {
		return
	}
	if _, err := s.slots.Release(ctx, *appt.ScheduleID); err != nil {
		s.log.Error().Err(err).
			Stringer("appointment_id", appt.ID).
			Stringer("slot_id", *appt.ScheduleID).
			Msg("release slot after cancellation failed")
	}
}
