package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/medibook/hospital-api/internal/db"
)

const seedPassword = "password123"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := applySchema(context.Background(), pool); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	if err := seedAdmin(context.Background(), pool); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	doctorIDs, err := seedDoctors(context.Background(), pool, 25)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedSchedules(context.Background(), pool, doctorIDs); err != nil {
		log.Fatalf("seed schedules: %v", err)
	}

	log.Println("seed complete")
}

func applySchema(ctx context.Context, pool *pgxpool.Pool) error {
	path := os.Getenv("SCHEMA_PATH")
	if path == "" {
		path = "migrations/schema.sql"
	}

	schema, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, string(schema))
	if err != nil {
		return err
	}

	log.Printf("schema applied from %s", path)
	return nil
}

func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(hash), err
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool) error {
	hash, err := hashPassword("admin123")
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO users (username, password_hash, roles)
		VALUES ('admin', $1, '{ADMIN}')
		ON CONFLICT (username) DO NOTHING
	`, hash)
	if err != nil {
		return err
	}

	log.Println("admin seeded")
	return nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	specializations := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	hash, err := hashPassword(seedPassword)
	if err != nil {
		return nil, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		spec := specializations[gofakeit.Number(0, len(specializations)-1)]
		username := gofakeit.Username()
		phone := gofakeit.Phone()

		var userID uuid.UUID
		err := tx.QueryRow(ctx, `
			INSERT INTO users (username, password_hash, roles)
			VALUES ($1, $2, '{DOCTOR}')
			RETURNING id
		`, username, hash).Scan(&userID)
		if err != nil {
			return nil, err
		}

		var doctorID uuid.UUID
		err = tx.QueryRow(ctx, `
			INSERT INTO doctors (user_id, name, specialization, contact)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, userID, name, spec, phone).Scan(&doctorID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, doctorID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("doctors seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	hash, err := hashPassword(seedPassword)
	if err != nil {
		return err
	}

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			username := gofakeit.Username()
			name := gofakeit.Name()
			age := gofakeit.Number(18, 90)
			gender := gofakeit.Gender()
			phone := gofakeit.Phone()

			var userID uuid.UUID
			err := tx.QueryRow(ctx, `
				INSERT INTO users (username, password_hash, roles)
				VALUES ($1, $2, '{PATIENT}')
				RETURNING id
			`, username, hash).Scan(&userID)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO patients (user_id, name, age, gender, contact)
				VALUES ($1, $2, $3, $4, $5)
			`, userID, name, age, gender, phone)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}

func seedSchedules(ctx context.Context, pool *pgxpool.Pool, doctorIDs []uuid.UUID) error {
	log.Printf("seeding schedules for %d doctors", len(doctorIDs))

	starts := []string{"09:00", "09:30", "10:00", "10:30", "11:00", "14:00", "14:30", "15:00"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, doctorID := range doctorIDs {
		// two weeks of weekday slots per doctor
		for day := 0; day < 14; day++ {
			date := time.Now().AddDate(0, 0, day)
			if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}

			for _, start := range starts {
				endTime, err := time.Parse("15:04", start)
				if err != nil {
					return err
				}
				end := endTime.Add(30 * time.Minute).Format("15:04")

				_, err = tx.Exec(ctx, `
					INSERT INTO doctor_schedules
						(doctor_id, available_date, start_time, end_time, slot_duration, max_patients, created_by)
					VALUES ($1, $2, $3::time, $4::time, 30, 3, 'ADMIN')
				`, doctorID, date.Format("2006-01-02"), start, end)
				if err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("schedules seeded")
	return nil
}
