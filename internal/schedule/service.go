package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medibook/hospital-api/internal/auth"
)

var (
	ErrAccessDenied = errors.New("access denied")
	ErrInvalidSlot  = errors.New("invalid slot definition")
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

type CreateSlotInput struct {
	DoctorID      uuid.UUID
	AvailableDate time.Time
	StartTime     string
	EndTime       string
	SlotDuration  int
	MaxPatients   int
}

// Create opens a slot. Admins may open slots for any doctor; a doctor
// may only open slots on their own calendar.
func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateSlotInput) (*Slot, error) {
	var createdBy CreatedBy
	switch actor.Role {
	case auth.RoleAdmin:
		createdBy = CreatedByAdmin
	case auth.RoleDoctor:
		if actor.DoctorID == uuid.Nil {
			return nil, ErrDoctorNotFound
		}
		if in.DoctorID == uuid.Nil {
			in.DoctorID = actor.DoctorID
		}
		if in.DoctorID != actor.DoctorID {
			return nil, ErrAccessDenied
		}
		createdBy = CreatedByDoctor
	default:
		return nil, ErrAccessDenied
	}

	if in.DoctorID == uuid.Nil || in.AvailableDate.IsZero() || in.StartTime == "" || in.EndTime == "" {
		return nil, ErrInvalidSlot
	}
	if in.SlotDuration <= 0 {
		in.SlotDuration = DefaultSlotDuration
	}
	if in.MaxPatients <= 0 {
		in.MaxPatients = DefaultMaxPatients
	}

	slot := &Slot{
		DoctorID:      in.DoctorID,
		AvailableDate: in.AvailableDate,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		SlotDuration:  in.SlotDuration,
		MaxPatients:   in.MaxPatients,
		CreatedBy:     createdBy,
	}

	created, err := s.repo.CreateSlot(ctx, slot)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Stringer("slot_id", created.ID).
		Stringer("doctor_id", created.DoctorID).
		Str("created_by", string(createdBy)).
		Msg("schedule slot created")

	return created, nil
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]Slot, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

func (s *Service) ListAvailableForDoctor(ctx context.Context, doctorID uuid.UUID, date *time.Time) ([]Slot, error) {
	return s.repo.ListAvailableByDoctor(ctx, doctorID, date)
}

// Update edits slot details. Owner doctor or admin only. Capacity can
// never drop below the bookings currently held.
func (s *Service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, upd SlotUpdate) (*Slot, error) {
	slot, err := s.repo.GetSlotByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canManage(actor, slot) {
		return nil, ErrAccessDenied
	}
	if upd.MaxPatients != nil && *upd.MaxPatients < 1 {
		return nil, ErrInvalidSlot
	}
	return s.repo.UpdateSlot(ctx, id, upd)
}

func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	slot, err := s.repo.GetSlotByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.canManage(actor, slot) {
		return ErrAccessDenied
	}
	return s.repo.DeleteSlot(ctx, id)
}

func (s *Service) canManage(actor auth.Actor, slot *Slot) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.IsDoctor() && actor.DoctorID == slot.DoctorID
}
