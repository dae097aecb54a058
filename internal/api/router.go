package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medibook/hospital-api/internal/appointment"
	"github.com/medibook/hospital-api/internal/auth"
	"github.com/medibook/hospital-api/internal/prescription"
	"github.com/medibook/hospital-api/internal/profile"
	"github.com/medibook/hospital-api/internal/schedule"
)

type RouterConfig struct {
	Auth          *auth.Service
	Tokens        *auth.TokenManager
	Profiles      *profile.Service
	Schedules     *schedule.Service
	Appointments  *appointment.Service
	Prescriptions *prescription.Service
	PgPool        *pgxpool.Pool
	Redis         *redis.Client
	Logger        zerolog.Logger
	Env           string
	Version       string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Public auth endpoints
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", registerHandler(cfg.Auth))
		r.Post("/login", loginHandler(cfg.Auth))
	})

	// Everything under /api requires a valid token and a resolved actor.
	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Tokens))
		r.Use(ActorMiddleware(cfg.Profiles))

		r.Route("/doctors", func(r chi.Router) {
			r.Get("/", listDoctorsHandler(cfg.Profiles))
			r.Post("/", createDoctorHandler(cfg.Profiles))
			r.Get("/{id}", getDoctorHandler(cfg.Profiles))
			r.Put("/{id}", updateDoctorHandler(cfg.Profiles))
			r.Delete("/{id}", deleteDoctorHandler(cfg.Profiles))
		})

		r.Route("/doctor-profile", func(r chi.Router) {
			r.Post("/", createOwnDoctorProfileHandler(cfg.Profiles))
			r.Get("/me", getOwnDoctorProfileHandler(cfg.Profiles))
			r.Put("/me", updateOwnDoctorProfileHandler(cfg.Profiles))
			r.Get("/check", checkDoctorProfileHandler(cfg.Profiles))
		})

		r.Route("/patients", func(r chi.Router) {
			r.Get("/", listPatientsHandler(cfg.Profiles))
			r.Get("/{id}", getPatientHandler(cfg.Profiles))
			r.Put("/{id}", updatePatientHandler(cfg.Profiles))
			r.Delete("/{id}", deletePatientHandler(cfg.Profiles))
		})

		r.Route("/patient-profile", func(r chi.Router) {
			r.Get("/me", getOwnPatientProfileHandler(cfg.Profiles))
			r.Put("/me", updateOwnPatientProfileHandler(cfg.Profiles))
			r.Get("/check", checkPatientProfileHandler(cfg.Profiles))
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Post("/", createSlotHandler(cfg.Schedules))
			r.Get("/doctor/{doctorId}", listDoctorSlotsHandler(cfg.Schedules))
			r.Get("/doctor/{doctorId}/available", listAvailableSlotsHandler(cfg.Schedules))
			r.Put("/{id}", updateSlotHandler(cfg.Schedules))
			r.Delete("/{id}", deleteSlotHandler(cfg.Schedules))
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", createAppointmentHandler(cfg.Appointments))
			r.Get("/", listAppointmentsHandler(cfg.Appointments))
			r.Get("/stats", appointmentStatsHandler(cfg.Appointments))
			r.Get("/patient/{patientId}", listAppointmentsByPatientHandler(cfg.Appointments))
			r.Get("/doctor/{doctorId}", listAppointmentsByDoctorHandler(cfg.Appointments))
			r.Get("/status/{status}", listAppointmentsByStatusHandler(cfg.Appointments))
			r.Get("/{id}", getAppointmentHandler(cfg.Appointments))
			r.Put("/{id}/status", updateAppointmentStatusHandler(cfg.Appointments))
			r.Put("/{id}/cancel", cancelAppointmentHandler(cfg.Appointments))
			r.Put("/{id}", updateAppointmentHandler(cfg.Appointments))
			r.Delete("/{id}", deleteAppointmentHandler(cfg.Appointments))
		})

		r.Route("/prescriptions", func(r chi.Router) {
			r.Post("/", createPrescriptionHandler(cfg.Prescriptions))
			r.Get("/appointment/{appointmentId}", getPrescriptionByAppointmentHandler(cfg.Prescriptions))
			r.Get("/patient", listOwnPrescriptionsHandler(cfg.Prescriptions))
			r.Get("/doctor", listOwnPrescriptionsHandler(cfg.Prescriptions))
			r.Put("/{id}", updatePrescriptionHandler(cfg.Prescriptions))
			r.Delete("/{id}", deletePrescriptionHandler(cfg.Prescriptions))
		})
	})

	return r
}
