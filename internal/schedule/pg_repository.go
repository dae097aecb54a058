package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const slotColumns = `id, doctor_id, available_date,
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	slot_duration, max_patients, current_bookings, is_booked, created_by,
	created_at, updated_at`

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.AvailableDate,
		&s.StartTime,
		&s.EndTime,
		&s.SlotDuration,
		&s.MaxPatients,
		&s.CurrentBookings,
		&s.IsBooked,
		&s.CreatedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	return &s, nil
}

func (r *PgRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM doctor_schedules
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

// Book is the capacity increment as one conditional update: zero rows
// affected means the slot was already full (or gone), never that a
// concurrent request slipped past the check.
func (r *PgRepository) Book(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctor_schedules
		SET current_bookings = current_bookings + 1,
		    is_booked        = current_bookings + 1 >= max_patients,
		    updated_at       = now()
		WHERE id = $1
		  AND current_bookings < max_patients
		RETURNING `+slotColumns+`
	`, id)

	s, err := scanSlot(row)
	if errors.Is(err, ErrSlotNotFound) {
		// Distinguish a full slot from a missing one.
		if _, getErr := r.GetSlotByID(ctx, id); getErr == nil {
			return nil, ErrSlotFull
		}
		return nil, ErrSlotNotFound
	}
	return s, err
}

func (r *PgRepository) Release(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctor_schedules
		SET current_bookings = GREATEST(current_bookings - 1, 0),
		    is_booked        = GREATEST(current_bookings - 1, 0) >= max_patients,
		    updated_at       = now()
		WHERE id = $1
		RETURNING `+slotColumns+`
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM doctor_schedules
		WHERE doctor_id = $1
		ORDER BY available_date, start_time
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSlots(rows)
}

func (r *PgRepository) ListAvailableByDoctor(ctx context.Context, doctorID uuid.UUID, date *time.Time) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM doctor_schedules
		WHERE doctor_id = $1
		  AND NOT is_booked
		  AND current_bookings < max_patients
		  AND ($2::date IS NULL OR available_date = $2::date)
		ORDER BY available_date, start_time
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSlots(rows)
}

func collectSlots(rows pgx.Rows) ([]Slot, error) {
	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateSlot(ctx context.Context, s *Slot) (*Slot, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctor_schedules
			(id, doctor_id, available_date, start_time, end_time,
			 slot_duration, max_patients, current_bookings, is_booked, created_by,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4::time, $5::time, $6, $7, 0, false, $8, now(), now())
		RETURNING `+slotColumns+`
	`, id, s.DoctorID, s.AvailableDate, s.StartTime, s.EndTime,
		s.SlotDuration, s.MaxPatients, s.CreatedBy)

	created, err := scanSlot(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) UpdateSlot(ctx context.Context, id uuid.UUID, upd SlotUpdate) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctor_schedules
		SET available_date = COALESCE($2, available_date),
		    start_time     = COALESCE($3::time, start_time),
		    end_time       = COALESCE($4::time, end_time),
		    slot_duration  = COALESCE($5, slot_duration),
		    max_patients   = COALESCE($6, max_patients),
		    is_booked      = current_bookings >= COALESCE($6, max_patients),
		    updated_at     = now()
		WHERE id = $1
		  AND ($6::int IS NULL OR $6 >= current_bookings)
		RETURNING `+slotColumns+`
	`, id, upd.AvailableDate, upd.StartTime, upd.EndTime, upd.SlotDuration, upd.MaxPatients)

	s, err := scanSlot(row)
	if errors.Is(err, ErrSlotNotFound) {
		// The capacity guard also produces zero rows; report it precisely.
		if _, getErr := r.GetSlotByID(ctx, id); getErr == nil {
			return nil, ErrCapacityBelowBookings
		}
		return nil, ErrSlotNotFound
	}
	return s, err
}

func (r *PgRepository) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctor_schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}
