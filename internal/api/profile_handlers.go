package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medibook/hospital-api/internal/profile"
)

func listDoctorsHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.ListDoctors(r.Context())
		if err != nil {
			handleProfileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponses(doctors))
	}
}

func getDoctorHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		d, err := svc.GetDoctor(r.Context(), id)
		if err != nil {
			handleProfileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	}
}

func createDoctorHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DoctorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		d, err := svc.CreateDoctor(r.Context(), actorFrom(r), profile.CreateDoctorInput{
			Name:           req.Name,
			Specialization: req.Specialization,
			Contact:        req.Contact,
		})
		if err != nil {
			handleProfileError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDoctorResponse(d))
	}
}

func updateDoctorHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		var req DoctorUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		d, err := svc.UpdateDoctor(r.Context(), actorFrom(r), id, profile.DoctorUpdate{
			Name:           req.Name,
			Specialization: req.Specialization,
			Contact:        req.Contact,
		})
		if err != nil {
			handleProfileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	}
}

func deleteDoctorHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeleteDoctor(r.Context(), actorFrom(r), id); err != nil {
			handleProfileError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// -- Doctor self-service profile --

func getOwnDoctorProfileHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.GetOwnDoctorProfile(r.Context(), actorFrom(r))
		if err != nil {
			handleProfileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	}
}

func checkDoctorProfileHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := svc.GetOwnDoctorProfile(r.Context(), actorFrom(r))
		if err != nil {
			if errors.Is(err, profile.ErrDoctorNotFound) {
				writeJSON(w, http.StatusOK, ProfileCheckResponse{Exists: false})
				return
			}
			handleProfileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ProfileCheckResponse{Exists: true})
	}
}

func createOwnDoctorProfileHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DoctorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		d, err := svc.CreateOwnDoctorProfile(r.Context(), actorFrom(r), profile.CreateDoctorInput{
			Name:           req.Name,
			Specialization: req.Specialization,
			Contact:        req.Contact,
		})
		if err != nil {
			handleProfileError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDoctorResponse(d))
	}
}

func updateOwnDoctorProfileHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		if actor.DoctorID == uuid.Nil {
			writeError(w, http.StatusNotFound, "doctor_not_found", "no doctor profile for this account")
			return
		}

		var req DoctorUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		d, err := svc.UpdateDoctor(r.Context(), actor, actor.DoctorID, profile.DoctorUpdate{
			Name:           req.Name,
			Specialization: req.Specialization,
			Contact:        req.Contact,
		})
		if err != nil {
			handleProfileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	}
}

// -- Patients --

func listPatientsHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := svc.ListPatients(r.Context(), actorFrom(r))
		if err != nil {
			handleProfileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponses(patients))
	}
}

func getPatientHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		p, err := svc.GetPatient(r.Context(), actorFrom(r), id)
		if err != nil {
			handleProfileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func updatePatientHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		var req PatientUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := svc.UpdatePatient(r.Context(), actorFrom(r), id, profile.PatientUpdate{
			Name:    req.Name,
			Age:     req.Age,
			Gender:  req.Gender,
			Contact: req.Contact,
		})
		if err != nil {
			handleProfileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func deletePatientHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeletePatient(r.Context(), actorFrom(r), id); err != nil {
			handleProfileError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// -- Patient self-service profile --

func getOwnPatientProfileHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetOwnPatientProfile(r.Context(), actorFrom(r))
		if err != nil {
			handleProfileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func checkPatientProfileHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Patient profiles are provisioned at actor resolution, so for a
		// PATIENT caller the answer is always yes.
		writeJSON(w, http.StatusOK, ProfileCheckResponse{Exists: actorFrom(r).PatientID != uuid.Nil})
	}
}

func updateOwnPatientProfileHandler(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		if actor.PatientID == uuid.Nil {
			writeError(w, http.StatusNotFound, "patient_not_found", "no patient profile for this account")
			return
		}

		var req PatientUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := svc.UpdatePatient(r.Context(), actor, actor.PatientID, profile.PatientUpdate{
			Name:    req.Name,
			Age:     req.Age,
			Gender:  req.Gender,
			Contact: req.Contact,
		})
		if err != nil {
			handleProfileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func handleProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profile.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, profile.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, profile.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access_denied", err.Error())
	case errors.Is(err, profile.ErrDoctorProfileExists):
		writeError(w, http.StatusConflict, "doctor_profile_exists", err.Error())
	case errors.Is(err, profile.ErrNameRequired):
		writeError(w, http.StatusBadRequest, "name_required", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
