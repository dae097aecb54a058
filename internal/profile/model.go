package profile

import (
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Name           string
	Specialization string
	Contact        *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Patient struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Age       int
	Gender    string
	Contact   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DoctorUpdate carries optional fields for a partial doctor update.
type DoctorUpdate struct {
	Name           *string
	Specialization *string
	Contact        *string
}

// PatientUpdate carries optional fields for a partial patient update.
type PatientUpdate struct {
	Name    *string
	Age     *int
	Gender  *string
	Contact *string
}
