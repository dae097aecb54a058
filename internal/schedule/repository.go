package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound          = errors.New("schedule slot not found")
	ErrSlotFull              = errors.New("schedule slot is fully booked")
	ErrDoctorNotFound        = errors.New("doctor not found")
	ErrCapacityBelowBookings = errors.New("max patients cannot drop below current bookings")
)

// Allocator mutates slot capacity. Book and Release are single
// conditional updates executed under the database's row-locking
// guarantee, so concurrent bookings cannot over-fill a slot.
type Allocator interface {
	GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error)

	// Book increments the booking counter iff capacity remains,
	// returning ErrSlotFull when it does not.
	Book(ctx context.Context, id uuid.UUID) (*Slot, error)

	// Release decrements the booking counter, floored at zero.
	Release(ctx context.Context, id uuid.UUID) (*Slot, error)
}

// Repository contains all slot DB interactions needed by the service.
type Repository interface {
	Allocator

	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Slot, error)
	ListAvailableByDoctor(ctx context.Context, doctorID uuid.UUID, date *time.Time) ([]Slot, error)
	CreateSlot(ctx context.Context, s *Slot) (*Slot, error)
	UpdateSlot(ctx context.Context, id uuid.UUID, upd SlotUpdate) (*Slot, error)
	DeleteSlot(ctx context.Context, id uuid.UUID) error
}
