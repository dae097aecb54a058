package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/medibook/hospital-api/internal/auth"
)

var (
	ErrAccessDenied        = errors.New("access denied")
	ErrUnknownCallerRole   = errors.New("caller has no recognized role")
	ErrDoctorProfileExists = errors.New("doctor profile already exists")
	ErrNameRequired        = errors.New("name is required")
)

// defaultDoctorPassword is issued to auto-provisioned doctor accounts;
// doctors are expected to change it on first login.
const defaultDoctorPassword = "doctor123"

type Service struct {
	repo  Repository
	users auth.Repository
	cost  int
	log   zerolog.Logger
}

func NewService(repo Repository, users auth.Repository, bcryptCost int, log zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		users: users,
		cost:  bcryptCost,
		log:   log,
	}
}

// ResolveActor turns verified token claims into an Actor with the
// owning profile resolved. Patient profiles are provisioned on first
// access; doctor profiles are not, a doctor without one carries a nil
// DoctorID until they create it.
func (s *Service) ResolveActor(ctx context.Context, claims *auth.Claims) (auth.Actor, error) {
	role, ok := auth.EffectiveRole(claims.Roles)
	if !ok {
		return auth.Actor{}, ErrUnknownCallerRole
	}

	u, err := s.users.GetUserByUsername(ctx, claims.Username)
	if err != nil {
		return auth.Actor{}, fmt.Errorf("load user: %w", err)
	}

	actor := auth.Actor{
		UserID:   u.ID,
		Username: u.Username,
		Role:     role,
	}

	switch role {
	case auth.RoleDoctor:
		d, err := s.repo.GetDoctorByUserID(ctx, u.ID)
		if err != nil && !errors.Is(err, ErrDoctorNotFound) {
			return auth.Actor{}, fmt.Errorf("load doctor profile: %w", err)
		}
		if d != nil {
			actor.DoctorID = d.ID
		}
	case auth.RolePatient:
		p, err := s.GetOrCreatePatient(ctx, u.ID)
		if err != nil {
			return auth.Actor{}, fmt.Errorf("resolve patient profile: %w", err)
		}
		actor.PatientID = p.ID
	}

	return actor, nil
}

// GetOrCreatePatient is the idempotent profile-provisioning operation:
// a patient record is created with placeholder details the first time a
// PATIENT user is seen.
func (s *Service) GetOrCreatePatient(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetPatientByUserID(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrPatientNotFound) {
		return nil, err
	}

	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	created, err := s.repo.CreatePatient(ctx, userID, u.Username, 0, "Not specified", nil)
	if err != nil {
		return nil, fmt.Errorf("create patient profile: %w", err)
	}

	s.log.Info().Str("username", u.Username).Stringer("patient_id", created.ID).Msg("patient profile auto-provisioned")
	return created, nil
}

// -- Doctors --

type CreateDoctorInput struct {
	Name           string
	Specialization string
	Contact        *string
}

func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	return s.repo.ListDoctors(ctx)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetDoctorByID(ctx, id)
}

// CreateDoctor registers a doctor on behalf of an admin, provisioning a
// linked user account with a generated username and the default password.
func (s *Service) CreateDoctor(ctx context.Context, actor auth.Actor, in CreateDoctorInput) (*Doctor, error) {
	if !actor.IsAdmin() {
		return nil, ErrAccessDenied
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrNameRequired
	}

	username, err := s.uniqueUsername(ctx, in.Name)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultDoctorPassword), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash default password: %w", err)
	}

	u, err := s.users.CreateUser(ctx, username, string(hash), []string{string(auth.RoleDoctor)})
	if err != nil {
		return nil, fmt.Errorf("create doctor account: %w", err)
	}

	d, err := s.repo.CreateDoctor(ctx, u.ID, in.Name, in.Specialization, in.Contact)
	if err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}

	s.log.Info().Str("username", username).Stringer("doctor_id", d.ID).Msg("doctor account provisioned")
	return d, nil
}

// CreateOwnDoctorProfile lets a DOCTOR-role user without a profile
// create one for themselves.
func (s *Service) CreateOwnDoctorProfile(ctx context.Context, actor auth.Actor, in CreateDoctorInput) (*Doctor, error) {
	if !actor.IsDoctor() {
		return nil, ErrAccessDenied
	}
	if actor.DoctorID != uuid.Nil {
		return nil, ErrDoctorProfileExists
	}
	return s.repo.CreateDoctor(ctx, actor.UserID, in.Name, in.Specialization, in.Contact)
}

func (s *Service) GetOwnDoctorProfile(ctx context.Context, actor auth.Actor) (*Doctor, error) {
	return s.repo.GetDoctorByUserID(ctx, actor.UserID)
}

func (s *Service) UpdateDoctor(ctx context.Context, actor auth.Actor, id uuid.UUID, upd DoctorUpdate) (*Doctor, error) {
	if !actor.IsAdmin() && actor.DoctorID != id {
		return nil, ErrAccessDenied
	}
	return s.repo.UpdateDoctor(ctx, id, upd)
}

func (s *Service) DeleteDoctor(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrAccessDenied
	}
	return s.repo.DeleteDoctor(ctx, id)
}

// uniqueUsername derives a login from a display name and appends a
// counter until it is free.
func (s *Service) uniqueUsername(ctx context.Context, name string) (string, error) {
	base := strings.ToLower(name)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, base)
	if base == "" {
		base = "doctor"
	}

	candidate := base
	for i := 1; ; i++ {
		_, err := s.users.GetUserByUsername(ctx, candidate)
		if errors.Is(err, auth.ErrUserNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
}

// -- Patients --

func (s *Service) ListPatients(ctx context.Context, actor auth.Actor) ([]Patient, error) {
	switch actor.Role {
	case auth.RoleAdmin:
		return s.repo.ListPatients(ctx)
	case auth.RoleDoctor:
		if actor.DoctorID == uuid.Nil {
			return nil, ErrDoctorNotFound
		}
		return s.repo.ListPatientsByDoctor(ctx, actor.DoctorID)
	default:
		// Patients have no cross-patient visibility.
		return []Patient{}, nil
	}
}

func (s *Service) GetPatient(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Patient, error) {
	if actor.IsPatient() && actor.PatientID != id {
		return nil, ErrAccessDenied
	}
	return s.repo.GetPatientByID(ctx, id)
}

func (s *Service) GetOwnPatientProfile(ctx context.Context, actor auth.Actor) (*Patient, error) {
	if !actor.IsPatient() {
		return nil, ErrAccessDenied
	}
	return s.GetOrCreatePatient(ctx, actor.UserID)
}

func (s *Service) UpdatePatient(ctx context.Context, actor auth.Actor, id uuid.UUID, upd PatientUpdate) (*Patient, error) {
	if !actor.IsAdmin() && actor.PatientID != id {
		return nil, ErrAccessDenied
	}
	return s.repo.UpdatePatient(ctx, id, upd)
}

func (s *Service) DeletePatient(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrAccessDenied
	}
	return s.repo.DeletePatient(ctx, id)
}
