package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/medibook/hospital-api/internal/appointment"
	"github.com/medibook/hospital-api/internal/prescription"
	"github.com/medibook/hospital-api/internal/profile"
	"github.com/medibook/hospital-api/internal/schedule"
)

const dateLayout = "2006-01-02"

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// -- Auth --

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type RegisterResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Roles    []string  `json:"roles"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string   `json:"token"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// -- Profiles --

type DoctorRequest struct {
	Name           string  `json:"name"`
	Specialization string  `json:"specialization"`
	Contact        *string `json:"contact,omitempty"`
}

type DoctorUpdateRequest struct {
	Name           *string `json:"name,omitempty"`
	Specialization *string `json:"specialization,omitempty"`
	Contact        *string `json:"contact,omitempty"`
}

type DoctorResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
	Contact        *string   `json:"contact,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toDoctorResponse(d *profile.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:             d.ID,
		Name:           d.Name,
		Specialization: d.Specialization,
		Contact:        d.Contact,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func toDoctorResponses(doctors []profile.Doctor) []DoctorResponse {
	out := make([]DoctorResponse, 0, len(doctors))
	for i := range doctors {
		out = append(out, toDoctorResponse(&doctors[i]))
	}
	return out
}

type PatientUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Age     *int    `json:"age,omitempty"`
	Gender  *string `json:"gender,omitempty"`
	Contact *string `json:"contact,omitempty"`
}

type PatientResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Gender    string    `json:"gender"`
	Contact   *string   `json:"contact,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toPatientResponse(p *profile.Patient) PatientResponse {
	return PatientResponse{
		ID:        p.ID,
		Name:      p.Name,
		Age:       p.Age,
		Gender:    p.Gender,
		Contact:   p.Contact,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toPatientResponses(patients []profile.Patient) []PatientResponse {
	out := make([]PatientResponse, 0, len(patients))
	for i := range patients {
		out = append(out, toPatientResponse(&patients[i]))
	}
	return out
}

type ProfileCheckResponse struct {
	Exists bool `json:"exists"`
}

// -- Schedules --

type CreateSlotRequest struct {
	DoctorID      string `json:"doctor_id,omitempty"`
	AvailableDate string `json:"available_date"` // YYYY-MM-DD
	StartTime     string `json:"start_time"`     // HH:MM
	EndTime       string `json:"end_time"`       // HH:MM
	SlotDuration  int    `json:"slot_duration,omitempty"`
	MaxPatients   int    `json:"max_patients,omitempty"`
}

type UpdateSlotRequest struct {
	AvailableDate *string `json:"available_date,omitempty"`
	StartTime     *string `json:"start_time,omitempty"`
	EndTime       *string `json:"end_time,omitempty"`
	SlotDuration  *int    `json:"slot_duration,omitempty"`
	MaxPatients   *int    `json:"max_patients,omitempty"`
}

type SlotResponse struct {
	ID              uuid.UUID `json:"id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	AvailableDate   string    `json:"available_date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	SlotDuration    int       `json:"slot_duration"`
	MaxPatients     int       `json:"max_patients"`
	CurrentBookings int       `json:"current_bookings"`
	IsBooked        bool      `json:"is_booked"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toSlotResponse(s *schedule.Slot) SlotResponse {
	return SlotResponse{
		ID:              s.ID,
		DoctorID:        s.DoctorID,
		AvailableDate:   s.AvailableDate.Format(dateLayout),
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		SlotDuration:    s.SlotDuration,
		MaxPatients:     s.MaxPatients,
		CurrentBookings: s.CurrentBookings,
		IsBooked:        s.IsBooked,
		CreatedBy:       string(s.CreatedBy),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func toSlotResponses(slots []schedule.Slot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for i := range slots {
		out = append(out, toSlotResponse(&slots[i]))
	}
	return out
}

// -- Appointments --

type CreateAppointmentRequest struct {
	PatientID  string `json:"patient_id,omitempty"`
	DoctorID   string `json:"doctor_id"`
	ScheduleID string `json:"schedule_id"`
	Reason     string `json:"reason,omitempty"`
}

type UpdateAppointmentRequest struct {
	Reason *string `json:"reason,omitempty"`
	Status *string `json:"status,omitempty"`
}

// AppointmentResponse is the denormalized projection: the appointment
// plus the display fields of its patient, doctor, and slot.
type AppointmentResponse struct {
	ID                   uuid.UUID  `json:"id"`
	PatientID            uuid.UUID  `json:"patient_id"`
	DoctorID             uuid.UUID  `json:"doctor_id"`
	ScheduleID           *uuid.UUID `json:"schedule_id,omitempty"`
	Status               string     `json:"status"`
	Reason               string     `json:"reason,omitempty"`
	PatientName          string     `json:"patient_name"`
	DoctorName           string     `json:"doctor_name"`
	DoctorSpecialization string     `json:"doctor_specialization"`
	AppointmentDate      *string    `json:"appointment_date,omitempty"`
	StartTime            *string    `json:"start_time,omitempty"`
	EndTime              *string    `json:"end_time,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func toAppointmentResponse(d *appointment.Detail) AppointmentResponse {
	resp := AppointmentResponse{
		ID:                   d.ID,
		PatientID:            d.PatientID,
		DoctorID:             d.DoctorID,
		ScheduleID:           d.ScheduleID,
		Status:               string(d.Status),
		Reason:               d.Reason,
		PatientName:          d.PatientName,
		DoctorName:           d.DoctorName,
		DoctorSpecialization: d.DoctorSpecialization,
		StartTime:            d.StartTime(),
		EndTime:              d.SlotEndTime,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
	if date := d.Date(); date != nil {
		formatted := date.Format(dateLayout)
		resp.AppointmentDate = &formatted
	}
	return resp
}

func toAppointmentResponses(details []appointment.Detail) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(details))
	for i := range details {
		out = append(out, toAppointmentResponse(&details[i]))
	}
	return out
}

// -- Prescriptions --

type MedicationRequest struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
	Notes     string `json:"notes,omitempty"`
}

type CreatePrescriptionRequest struct {
	AppointmentID string              `json:"appointment_id"`
	Diagnosis     string              `json:"diagnosis"`
	Instructions  string              `json:"instructions,omitempty"`
	FollowUpDate  string              `json:"follow_up_date,omitempty"` // YYYY-MM-DD
	Medications   []MedicationRequest `json:"medications,omitempty"`
}

type UpdatePrescriptionRequest struct {
	Diagnosis    string              `json:"diagnosis"`
	Instructions string              `json:"instructions,omitempty"`
	FollowUpDate string              `json:"follow_up_date,omitempty"` // YYYY-MM-DD
	Medications  []MedicationRequest `json:"medications,omitempty"`
}

type MedicationResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Dosage    string    `json:"dosage"`
	Frequency string    `json:"frequency"`
	Duration  string    `json:"duration"`
	Notes     string    `json:"notes,omitempty"`
}

// PrescriptionResponse is the denormalized projection: the prescription
// plus the display fields of the appointment's patient and doctor.
type PrescriptionResponse struct {
	ID                   uuid.UUID            `json:"id"`
	AppointmentID        uuid.UUID            `json:"appointment_id"`
	PatientName          string               `json:"patient_name"`
	PatientAge           int                  `json:"patient_age"`
	PatientGender        string               `json:"patient_gender"`
	DoctorName           string               `json:"doctor_name"`
	DoctorSpecialization string               `json:"doctor_specialization"`
	Diagnosis            string               `json:"diagnosis"`
	Instructions         string               `json:"instructions,omitempty"`
	FollowUpDate         *string              `json:"follow_up_date,omitempty"`
	Medications          []MedicationResponse `json:"medications"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

func toPrescriptionResponse(d *prescription.Detail) PrescriptionResponse {
	medications := make([]MedicationResponse, 0, len(d.Medications))
	for _, m := range d.Medications {
		medications = append(medications, MedicationResponse(m))
	}

	resp := PrescriptionResponse{
		ID:                   d.ID,
		AppointmentID:        d.AppointmentID,
		PatientName:          d.PatientName,
		PatientAge:           d.PatientAge,
		PatientGender:        d.PatientGender,
		DoctorName:           d.DoctorName,
		DoctorSpecialization: d.DoctorSpecialization,
		Diagnosis:            d.Diagnosis,
		Instructions:         d.Instructions,
		Medications:          medications,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
	if d.FollowUpDate != nil {
		formatted := d.FollowUpDate.Format(dateLayout)
		resp.FollowUpDate = &formatted
	}
	return resp
}

func toPrescriptionResponses(details []prescription.Detail) []PrescriptionResponse {
	out := make([]PrescriptionResponse, 0, len(details))
	for i := range details {
		out = append(out, toPrescriptionResponse(&details[i]))
	}
	return out
}

func toMedicationInputs(in []MedicationRequest) []prescription.MedicationInput {
	out := make([]prescription.MedicationInput, 0, len(in))
	for _, m := range in {
		out = append(out, prescription.MedicationInput(m))
	}
	return out
}
