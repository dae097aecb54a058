package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

const appointmentColumns = `id, patient_id, doctor_id, schedule_id, status, reason,
	appointment_date, to_char(appointment_time, 'HH24:MI'), created_at, updated_at`

const detailQuery = `
	SELECT a.id, a.patient_id, a.doctor_id, a.schedule_id, a.status, a.reason,
	       a.appointment_date, to_char(a.appointment_time, 'HH24:MI'),
	       a.created_at, a.updated_at,
	       p.name, d.name, d.specialization,
	       s.available_date,
	       to_char(s.start_time, 'HH24:MI'), to_char(s.end_time, 'HH24:MI')
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN doctors d  ON d.id = a.doctor_id
	LEFT JOIN doctor_schedules s ON s.id = a.schedule_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.ScheduleID,
		&a.Status,
		&a.Reason,
		&a.AppointmentDate,
		&a.AppointmentTime,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanDetail(row pgx.Row) (*Detail, error) {
	var d Detail

	err := row.Scan(
		&d.ID,
		&d.PatientID,
		&d.DoctorID,
		&d.ScheduleID,
		&d.Status,
		&d.Reason,
		&d.AppointmentDate,
		&d.AppointmentTime,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.PatientName,
		&d.DoctorName,
		&d.DoctorSpecialization,
		&d.SlotDate,
		&d.SlotStartTime,
		&d.SlotEndTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &d, nil
}

func (r *PgRepository) collectDetails(ctx context.Context, query string, args ...any) ([]Detail, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Detail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

// Interface methods

func (r *PgRepository) PatientExists(ctx context.Context, id uuid.UUID) error {
	var found bool
	err := r.pool.QueryRow(ctx, `SELECT true FROM patients WHERE id = $1`, id).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPatientNotFound
	}
	return err
}

func (r *PgRepository) DoctorExists(ctx context.Context, id uuid.UUID) error {
	var found bool
	err := r.pool.QueryRow(ctx, `SELECT true FROM doctors WHERE id = $1`, id).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDoctorNotFound
	}
	return err
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	row := r.pool.QueryRow(ctx, detailQuery+` WHERE a.id = $1`, id)
	return scanDetail(row)
}

func (r *PgRepository) ListAll(ctx context.Context) ([]Detail, error) {
	return r.collectDetails(ctx, detailQuery+` ORDER BY a.created_at DESC`)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Detail, error) {
	return r.collectDetails(ctx, detailQuery+` WHERE a.patient_id = $1 ORDER BY a.created_at DESC`, patientID)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Detail, error) {
	return r.collectDetails(ctx, detailQuery+` WHERE a.doctor_id = $1 ORDER BY a.created_at DESC`, doctorID)
}

func (r *PgRepository) ListByDoctorAndPatient(ctx context.Context, doctorID, patientID uuid.UUID) ([]Detail, error) {
	return r.collectDetails(ctx, detailQuery+` WHERE a.doctor_id = $1 AND a.patient_id = $2 ORDER BY a.created_at DESC`, doctorID, patientID)
}

func (r *PgRepository) ListByStatus(ctx context.Context, status Status) ([]Detail, error) {
	return r.collectDetails(ctx, detailQuery+` WHERE a.status = $1 ORDER BY a.created_at DESC`, status)
}

func (r *PgRepository) ListByDoctorAndStatus(ctx context.Context, doctorID uuid.UUID, status Status) ([]Detail, error) {
	return r.collectDetails(ctx, detailQuery+` WHERE a.doctor_id = $1 AND a.status = $2 ORDER BY a.created_at DESC`, doctorID, status)
}

func (r *PgRepository) ListByPatientAndStatus(ctx context.Context, patientID uuid.UUID, status Status) ([]Detail, error) {
	return r.collectDetails(ctx, detailQuery+` WHERE a.patient_id = $1 AND a.status = $2 ORDER BY a.created_at DESC`, patientID, status)
}

func (r *PgRepository) Insert(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(id, patient_id, doctor_id, schedule_id, status, reason,
			 appointment_date, appointment_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::time, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, a.PatientID, a.DoctorID, a.ScheduleID, a.Status, a.Reason,
		a.AppointmentDate, a.AppointmentTime)

	return scanAppointment(row)
}

func (r *PgRepository) SetStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status     = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, to)
	return scanAppointment(row)
}

// MarkCancelled is a compare-and-set: only one request observes the
// flip succeed, so the slot release tied to it runs exactly once.
func (r *PgRepository) MarkCancelled(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status     = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status <> $2
		RETURNING `+appointmentColumns+`
	`, id, StatusCancelled)

	a, err := scanAppointment(row)
	if errors.Is(err, ErrAppointmentNotFound) {
		if _, getErr := r.GetAppointmentByID(ctx, id); getErr == nil {
			return nil, ErrAlreadyCancelled
		}
		return nil, ErrAppointmentNotFound
	}
	return a, err
}

func (r *PgRepository) SetReason(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET reason     = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, reason)
	return scanAppointment(row)
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}
