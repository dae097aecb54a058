package appointment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusConfirmed  Status = "CONFIRMED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

var ErrInvalidStatus = errors.New("invalid appointment status")

// ParseStatus validates a status value against the allow-list. Any
// allow-listed value may follow any other; there is no transition graph
// beyond membership.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// HoldsCapacity reports whether an appointment in this status still
// consumes a unit of its slot's capacity.
func (s Status) HoldsCapacity() bool {
	return s != StatusCancelled
}

type Appointment struct {
	ID         uuid.UUID
	PatientID  uuid.UUID
	DoctorID   uuid.UUID
	ScheduleID *uuid.UUID
	Status     Status
	Reason     string
	// Direct date/time copies taken from the slot at booking time; they
	// survive slot deletion and back the response projection as a fallback.
	AppointmentDate *time.Time
	AppointmentTime *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Detail is an appointment hydrated with the denormalized display
// fields of its patient, doctor, and slot.
type Detail struct {
	Appointment
	PatientName          string
	DoctorName           string
	DoctorSpecialization string
	SlotDate             *time.Time
	SlotStartTime        *string
	SlotEndTime          *string
}

// Date resolves the appointment date, preferring the slot's calendar
// date over the appointment-level fallback.
func (d *Detail) Date() *time.Time {
	if d.SlotDate != nil {
		return d.SlotDate
	}
	return d.AppointmentDate
}

// StartTime resolves the start time with the same fallback rule.
func (d *Detail) StartTime() *string {
	if d.SlotStartTime != nil {
		return d.SlotStartTime
	}
	return d.AppointmentTime
}

// Stats summarizes the appointments visible to one caller.
type Stats struct {
	Total     int `json:"totalAppointments"`
	Scheduled int `json:"scheduledAppointments"`
	Completed int `json:"completedAppointments"`
	Cancelled int `json:"cancelledAppointments"`
}
