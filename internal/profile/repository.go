package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrPatientNotFound = errors.New("patient not found")
)

// Repository contains all profile DB interactions needed by the service.
type Repository interface {
	ListDoctors(ctx context.Context) ([]Doctor, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetDoctorByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	GetDoctorByUsername(ctx context.Context, username string) (*Doctor, error)
	CreateDoctor(ctx context.Context, userID uuid.UUID, name, specialization string, contact *string) (*Doctor, error)
	UpdateDoctor(ctx context.Context, id uuid.UUID, upd DoctorUpdate) (*Doctor, error)
	DeleteDoctor(ctx context.Context, id uuid.UUID) error

	ListPatients(ctx context.Context) ([]Patient, error)
	// ListPatientsByDoctor returns the distinct patients a doctor has
	// appointments with.
	ListPatientsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Patient, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetPatientByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error)
	GetPatientByUsername(ctx context.Context, username string) (*Patient, error)
	CreatePatient(ctx context.Context, userID uuid.UUID, name string, age int, gender string, contact *string) (*Patient, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, upd PatientUpdate) (*Patient, error)
	DeletePatient(ctx context.Context, id uuid.UUID) error
}
