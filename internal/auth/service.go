package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidLogin = errors.New("invalid username or password")
	ErrMissingField = errors.New("username and password are required")
	ErrUnknownRole  = errors.New("unknown role")
)

type Service struct {
	repo   Repository
	tokens *TokenManager
	cost   int
	log    zerolog.Logger
}

func NewService(repo Repository, tokens *TokenManager, bcryptCost int, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		cost:   bcryptCost,
		log:    log,
	}
}

// Register creates a user account. An empty role defaults to PATIENT,
// matching registration-time defaulting in the rest of the system.
func (s *Service) Register(ctx context.Context, username, password, role string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingField
	}

	if role == "" {
		role = string(RolePatient)
	}
	role = strings.ToUpper(role)
	if !ValidRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.CreateUser(ctx, username, string(hash), []string{role})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", u.Username).Str("role", role).Msg("user registered")
	return u, nil
}

// Login verifies credentials and returns a signed session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *User, error) {
	u, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidLogin
		}
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidLogin
	}

	token, err := s.tokens.Mint(u)
	if err != nil {
		return "", nil, fmt.Errorf("mint token: %w", err)
	}

	return token, u, nil
}
