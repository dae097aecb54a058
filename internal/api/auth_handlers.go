package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medibook/hospital-api/internal/auth"
)

func registerHandler(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		u, err := svc.Register(r.Context(), req.Username, req.Password, req.Role)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingField), errors.Is(err, auth.ErrUnknownRole):
				writeError(w, http.StatusBadRequest, "invalid_registration", err.Error())
			case errors.Is(err, auth.ErrUsernameTaken):
				writeError(w, http.StatusConflict, "username_taken", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusCreated, RegisterResponse{
			ID:       u.ID,
			Username: u.Username,
			Roles:    u.Roles,
		})
	}
}

func loginHandler(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		token, u, err := svc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingField):
				writeError(w, http.StatusBadRequest, "invalid_login", err.Error())
			case errors.Is(err, auth.ErrInvalidLogin):
				writeError(w, http.StatusUnauthorized, "invalid_login", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			Token:    token,
			Username: u.Username,
			Roles:    u.Roles,
		})
	}
}
