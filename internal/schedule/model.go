package schedule

import (
	"time"

	"github.com/google/uuid"
)

// CreatedBy records which kind of actor opened the slot.
type CreatedBy string

const (
	CreatedByDoctor CreatedBy = "DOCTOR"
	CreatedByAdmin  CreatedBy = "ADMIN"
)

const (
	DefaultSlotDuration = 30
	DefaultMaxPatients  = 3
)

// Slot is a doctor's bookable time window with finite patient capacity.
// Invariant: 0 <= CurrentBookings <= MaxPatients and
// IsBooked == (CurrentBookings >= MaxPatients).
type Slot struct {
	ID              uuid.UUID
	DoctorID        uuid.UUID
	AvailableDate   time.Time
	StartTime       string // HH:MM
	EndTime         string // HH:MM
	SlotDuration    int    // minutes
	MaxPatients     int
	CurrentBookings int
	IsBooked        bool
	CreatedBy       CreatedBy
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsAvailable reports whether the slot can take one more booking.
func (s *Slot) IsAvailable() bool {
	return !s.IsBooked && s.CurrentBookings < s.MaxPatients
}

// Book consumes one unit of capacity. Callers must check IsAvailable
// first; Book itself never fails. A negative counter is treated as zero
// before incrementing.
func (s *Slot) Book() {
	if s.CurrentBookings < 0 {
		s.CurrentBookings = 0
	}
	s.CurrentBookings++
	if s.CurrentBookings >= s.MaxPatients {
		s.IsBooked = true
	}
}

// Release returns one unit of capacity, floored at zero.
func (s *Slot) Release() {
	if s.CurrentBookings > 0 {
		s.CurrentBookings--
	}
	if s.CurrentBookings < s.MaxPatients {
		s.IsBooked = false
	}
}

// SlotUpdate carries optional fields for a partial slot edit.
type SlotUpdate struct {
	AvailableDate *time.Time
	StartTime     *string
	EndTime       *string
	SlotDuration  *int
	MaxPatients   *int
}
