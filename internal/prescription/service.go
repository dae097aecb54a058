package prescription

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medibook/hospital-api/internal/appointment"
	"github.com/medibook/hospital-api/internal/auth"
)

var (
	ErrAccessDenied     = errors.New("access denied to this prescription")
	ErrDiagnosisMissing = errors.New("diagnosis is required")
)

// AppointmentGetter is the slice of the appointment store the
// prescription service needs for its ownership checks.
type AppointmentGetter interface {
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
}

// Service handles prescription writing and reading. Writing is a
// doctor-only act scoped to the doctor's own appointments; reading is
// open to the appointment's doctor, its patient, and admins.
type Service struct {
	repo         Repository
	appointments AppointmentGetter
	log          zerolog.Logger
}

func NewService(repo Repository, appointments AppointmentGetter, log zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		appointments: appointments,
		log:          log,
	}
}

type CreateInput struct {
	AppointmentID uuid.UUID
	Diagnosis     string
	Instructions  string
	FollowUpDate  *time.Time
	Medications   []MedicationInput
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (*Detail, error) {
	appt, err := s.appointments.GetAppointmentByID(ctx, in.AppointmentID)
	if err != nil {
		return nil, err
	}
	if !canWrite(actor, appt) {
		return nil, ErrAccessDenied
	}

	diagnosis := strings.TrimSpace(in.Diagnosis)
	if diagnosis == "" {
		return nil, ErrDiagnosisMissing
	}

	created, err := s.repo.Insert(ctx, &Prescription{
		AppointmentID: appt.ID,
		Diagnosis:     diagnosis,
		Instructions:  in.Instructions,
		FollowUpDate:  in.FollowUpDate,
		Medications:   toMedications(in.Medications),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Stringer("prescription_id", created.ID).
		Stringer("appointment_id", appt.ID).
		Msg("prescription created")

	return s.repo.GetDetail(ctx, created.ID)
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Detail, error) {
	d, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkRead(ctx, actor, &d.Prescription); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) GetByAppointment(ctx context.Context, actor auth.Actor, appointmentID uuid.UUID) (*Detail, error) {
	appt, err := s.appointments.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, appt) {
		return nil, ErrAccessDenied
	}
	return s.repo.GetDetailByAppointment(ctx, appointmentID)
}

// List returns the caller's own prescriptions: written ones for
// doctors, received ones for patients. Admins see none here, mirroring
// the write side where admins do not prescribe.
func (s *Service) List(ctx context.Context, actor auth.Actor) ([]Detail, error) {
	switch actor.Role {
	case auth.RoleDoctor:
		if actor.DoctorID == uuid.Nil {
			return []Detail{}, nil
		}
		return s.repo.ListByDoctor(ctx, actor.DoctorID)
	case auth.RolePatient:
		return s.repo.ListByPatient(ctx, actor.PatientID)
	case auth.RoleAdmin:
		return []Detail{}, nil
	}
	return nil, ErrAccessDenied
}

type UpdateInput struct {
	Diagnosis    string
	Instructions string
	FollowUpDate *time.Time
	Medications  []MedicationInput
}

func (s *Service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, in UpdateInput) (*Detail, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	appt, err := s.appointments.GetAppointmentByID(ctx, p.AppointmentID)
	if err != nil {
		return nil, err
	}
	if !canWrite(actor, appt) {
		return nil, ErrAccessDenied
	}

	diagnosis := strings.TrimSpace(in.Diagnosis)
	if diagnosis == "" {
		return nil, ErrDiagnosisMissing
	}

	if _, err := s.repo.Update(ctx, id, PrescriptionUpdate{
		Diagnosis:    diagnosis,
		Instructions: in.Instructions,
		FollowUpDate: in.FollowUpDate,
		Medications:  toMedications(in.Medications),
	}); err != nil {
		return nil, err
	}
	return s.repo.GetDetail(ctx, id)
}

func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	appt, err := s.appointments.GetAppointmentByID(ctx, p.AppointmentID)
	if err != nil {
		return err
	}
	if !canWrite(actor, appt) {
		return ErrAccessDenied
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) checkRead(ctx context.Context, actor auth.Actor, p *Prescription) error {
	appt, err := s.appointments.GetAppointmentByID(ctx, p.AppointmentID)
	if err != nil {
		return err
	}
	if !canRead(actor, appt) {
		return ErrAccessDenied
	}
	return nil
}

// canWrite: only the doctor assigned to the appointment may create,
// edit, or delete its prescription.
func canWrite(actor auth.Actor, appt *appointment.Appointment) bool {
	return actor.IsDoctor() && actor.DoctorID != uuid.Nil && actor.DoctorID == appt.DoctorID
}

func canRead(actor auth.Actor, appt *appointment.Appointment) bool {
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

func toMedications(in []MedicationInput) []Medication {
	out := make([]Medication, 0, len(in))
	for _, m := range in {
		out = append(out, Medication{
			Name:      m.Name,
			Dosage:    m.Dosage,
			Frequency: m.Frequency,
			Duration:  m.Duration,
			Notes:     m.Notes,
		})
	}
	return out
}
