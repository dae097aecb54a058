package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrAlreadyCancelled    = errors.New("appointment is already cancelled")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// Referential checks
	PatientExists(ctx context.Context, id uuid.UUID) error
	DoctorExists(ctx context.Context, id uuid.UUID) error

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)

	ListAll(ctx context.Context) ([]Detail, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Detail, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Detail, error)
	ListByDoctorAndPatient(ctx context.Context, doctorID, patientID uuid.UUID) ([]Detail, error)
	ListByStatus(ctx context.Context, status Status) ([]Detail, error)
	ListByDoctorAndStatus(ctx context.Context, doctorID uuid.UUID, status Status) ([]Detail, error)
	ListByPatientAndStatus(ctx context.Context, patientID uuid.UUID, status Status) ([]Detail, error)

	Insert(ctx context.Context, a *Appointment) (*Appointment, error)
	SetStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error)
	// MarkCancelled flips the status to CANCELLED iff it is not already
	// there; the request that wins the flip owns the capacity release.
	MarkCancelled(ctx context.Context, id uuid.UUID) (*Appointment, error)
	SetReason(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
