package prescription

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrPrescriptionExists   = errors.New("appointment already has a prescription")
)

// PrescriptionUpdate is the full replacement state for an edit; the
// medication set is replaced wholesale, not merged.
type PrescriptionUpdate struct {
	Diagnosis    string
	Instructions string
	FollowUpDate *time.Time
	Medications  []Medication
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)

	// GetDetail and the list methods return prescriptions hydrated
	// with the patient/doctor display fields of their appointment.
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)
	GetDetailByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Detail, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Detail, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Detail, error)

	// Insert persists the prescription together with its medication
	// lines in one transaction.
	Insert(ctx context.Context, p *Prescription) (*Prescription, error)

	Update(ctx context.Context, id uuid.UUID, upd PrescriptionUpdate) (*Prescription, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
