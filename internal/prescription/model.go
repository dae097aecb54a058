package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Medication is one line item on a prescription. Dosage, frequency,
// duration and notes are free-form text as captured by the prescribing
// doctor.
type Medication struct {
	ID        uuid.UUID
	Name      string
	Dosage    string
	Frequency string
	Duration  string
	Notes     string
}

type Prescription struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	Diagnosis     string
	Instructions  string
	FollowUpDate  *time.Time
	Medications   []Medication
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Detail is a prescription hydrated with the denormalized display
// fields of the appointment's patient and doctor.
type Detail struct {
	Prescription
	PatientName          string
	PatientAge           int
	PatientGender        string
	DoctorName           string
	DoctorSpecialization string
}

// MedicationInput carries a medication line on create and update.
type MedicationInput struct {
	Name      string
	Dosage    string
	Frequency string
	Duration  string
	Notes     string
}
