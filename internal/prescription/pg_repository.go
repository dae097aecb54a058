package prescription

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const prescriptionColumns = `id, appointment_id, diagnosis, instructions, follow_up_date, created_at, updated_at`

const detailQuery = `
	SELECT p.id, p.appointment_id, p.diagnosis, p.instructions, p.follow_up_date,
	       p.created_at, p.updated_at,
	       pt.name, pt.age, pt.gender,
	       d.name, d.specialization
	FROM prescriptions p
	JOIN appointments a ON a.id = p.appointment_id
	JOIN patients pt ON pt.id = a.patient_id
	JOIN doctors d ON d.id = a.doctor_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrescription(row rowScanner) (*Prescription, error) {
	var p Prescription
	err := row.Scan(
		&p.ID,
		&p.AppointmentID,
		&p.Diagnosis,
		&p.Instructions,
		&p.FollowUpDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanDetail(row rowScanner) (*Detail, error) {
	var d Detail
	err := row.Scan(
		&d.ID,
		&d.AppointmentID,
		&d.Diagnosis,
		&d.Instructions,
		&d.FollowUpDate,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.PatientName,
		&d.PatientAge,
		&d.PatientGender,
		&d.DoctorName,
		&d.DoctorSpecialization,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *pgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE id = $1`

	p, err := scanPrescription(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("get prescription: %w", err)
	}

	if err := r.attachMedications(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgRepository) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	d, err := scanDetail(r.pool.QueryRow(ctx, detailQuery+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("get prescription detail: %w", err)
	}

	if err := r.attachMedications(ctx, &d.Prescription); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *pgRepository) GetDetailByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Detail, error) {
	d, err := scanDetail(r.pool.QueryRow(ctx, detailQuery+` WHERE p.appointment_id = $1`, appointmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("get prescription by appointment: %w", err)
	}

	if err := r.attachMedications(ctx, &d.Prescription); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *pgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Detail, error) {
	return r.list(ctx, detailQuery+` WHERE a.doctor_id = $1 ORDER BY p.created_at DESC`, doctorID)
}

func (r *pgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Detail, error) {
	return r.list(ctx, detailQuery+` WHERE a.patient_id = $1 ORDER BY p.created_at DESC`, patientID)
}

func (r *pgRepository) list(ctx context.Context, query string, arg any) ([]Detail, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	defer rows.Close()

	details := []Detail{}
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prescription: %w", err)
		}
		details = append(details, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prescriptions: %w", err)
	}

	for i := range details {
		if err := r.attachMedications(ctx, &details[i].Prescription); err != nil {
			return nil, err
		}
	}
	return details, nil
}

func (r *pgRepository) attachMedications(ctx context.Context, p *Prescription) error {
	query := `
		SELECT id, name, dosage, frequency, duration, notes
		FROM medications
		WHERE prescription_id = $1
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, p.ID)
	if err != nil {
		return fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	p.Medications = []Medication{}
	for rows.Next() {
		var m Medication
		if err := rows.Scan(&m.ID, &m.Name, &m.Dosage, &m.Frequency, &m.Duration, &m.Notes); err != nil {
			return fmt.Errorf("scan medication: %w", err)
		}
		p.Medications = append(p.Medications, m)
	}
	return rows.Err()
}

func (r *pgRepository) Insert(ctx context.Context, p *Prescription) (*Prescription, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin insert prescription: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO prescriptions (appointment_id, diagnosis, instructions, follow_up_date)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + prescriptionColumns

	created, err := scanPrescription(tx.QueryRow(ctx, query, p.AppointmentID, p.Diagnosis, p.Instructions, p.FollowUpDate))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrPrescriptionExists
		}
		return nil, fmt.Errorf("insert prescription: %w", err)
	}

	created.Medications, err = insertMedications(ctx, tx, created.ID, p.Medications)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit insert prescription: %w", err)
	}
	return created, nil
}

func (r *pgRepository) Update(ctx context.Context, id uuid.UUID, upd PrescriptionUpdate) (*Prescription, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin update prescription: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE prescriptions
		SET diagnosis = $2, instructions = $3, follow_up_date = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + prescriptionColumns

	updated, err := scanPrescription(tx.QueryRow(ctx, query, id, upd.Diagnosis, upd.Instructions, upd.FollowUpDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("update prescription: %w", err)
	}

	// Medication lines are replaced wholesale, not merged.
	if _, err := tx.Exec(ctx, `DELETE FROM medications WHERE prescription_id = $1`, id); err != nil {
		return nil, fmt.Errorf("clear medications: %w", err)
	}

	updated.Medications, err = insertMedications(ctx, tx, id, upd.Medications)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit update prescription: %w", err)
	}
	return updated, nil
}

func insertMedications(ctx context.Context, tx pgx.Tx, prescriptionID uuid.UUID, medications []Medication) ([]Medication, error) {
	query := `
		INSERT INTO medications (prescription_id, name, dosage, frequency, duration, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, dosage, frequency, duration, notes`

	inserted := make([]Medication, 0, len(medications))
	for _, m := range medications {
		var out Medication
		err := tx.QueryRow(ctx, query, prescriptionID, m.Name, m.Dosage, m.Frequency, m.Duration, m.Notes).
			Scan(&out.ID, &out.Name, &out.Dosage, &out.Frequency, &out.Duration, &out.Notes)
		if err != nil {
			return nil, fmt.Errorf("insert medication: %w", err)
		}
		inserted = append(inserted, out)
	}
	return inserted, nil
}

func (r *pgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete prescription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPrescriptionNotFound
	}
	return nil
}
