package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medibook/hospital-api/internal/appointment"
	"github.com/medibook/hospital-api/internal/prescription"
)

// parseFollowUpDate turns an optional YYYY-MM-DD field into a date; ok
// is false when the value is present but malformed.
func parseFollowUpDate(raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}

func createPrescriptionHandler(svc *prescription.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePrescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appointmentID, err := uuid.Parse(req.AppointmentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "appointment_id must be a valid UUID")
			return
		}

		followUp, ok := parseFollowUpDate(req.FollowUpDate)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_follow_up_date", "follow_up_date must be YYYY-MM-DD")
			return
		}

		d, err := svc.Create(r.Context(), actorFrom(r), prescription.CreateInput{
			AppointmentID: appointmentID,
			Diagnosis:     req.Diagnosis,
			Instructions:  req.Instructions,
			FollowUpDate:  followUp,
			Medications:   toMedicationInputs(req.Medications),
		})
		if err != nil {
			handlePrescriptionError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPrescriptionResponse(d))
	}
}

func getPrescriptionByAppointmentHandler(svc *prescription.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appointmentID, err := uuid.Parse(chi.URLParam(r, "appointmentId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "appointmentId must be a valid UUID")
			return
		}

		d, err := svc.GetByAppointment(r.Context(), actorFrom(r), appointmentID)
		if err != nil {
			handlePrescriptionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPrescriptionResponse(d))
	}
}

func listOwnPrescriptionsHandler(svc *prescription.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prescriptions, err := svc.List(r.Context(), actorFrom(r))
		if err != nil {
			handlePrescriptionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPrescriptionResponses(prescriptions))
	}
}

func updatePrescriptionHandler(svc *prescription.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_prescription_id", "id must be a valid UUID")
			return
		}

		var req UpdatePrescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		followUp, ok := parseFollowUpDate(req.FollowUpDate)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_follow_up_date", "follow_up_date must be YYYY-MM-DD")
			return
		}

		d, err := svc.Update(r.Context(), actorFrom(r), id, prescription.UpdateInput{
			Diagnosis:    req.Diagnosis,
			Instructions: req.Instructions,
			FollowUpDate: followUp,
			Medications:  toMedicationInputs(req.Medications),
		})
		if err != nil {
			handlePrescriptionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPrescriptionResponse(d))
	}
}

func deletePrescriptionHandler(svc *prescription.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_prescription_id", "id must be a valid UUID")
			return
		}

		if err := svc.Delete(r.Context(), actorFrom(r), id); err != nil {
			handlePrescriptionError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handlePrescriptionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, prescription.ErrPrescriptionNotFound):
		writeError(w, http.StatusNotFound, "prescription_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, prescription.ErrPrescriptionExists):
		writeError(w, http.StatusConflict, "prescription_exists", err.Error())
	case errors.Is(err, prescription.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access_denied", err.Error())
	case errors.Is(err, prescription.ErrDiagnosisMissing):
		writeError(w, http.StatusBadRequest, "diagnosis_required", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
