package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	byUsername map[string]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byUsername: make(map[string]*User)}
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*User, error) {
	u, ok := f.byUsername[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (*User, error) {
	for _, u := range f.byUsername {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeUserRepo) CreateUser(_ context.Context, username, passwordHash string, roles []string) (*User, error) {
	if _, exists := f.byUsername[username]; exists {
		return nil, ErrUsernameTaken
	}
	u := &User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		Roles:        roles,
	}
	f.byUsername[username] = u
	cp := *u
	return &cp, nil
}

func newAuthService() (*Service, *fakeUserRepo) {
	repo := newFakeUserRepo()
	tokens := NewTokenManager("test-secret", time.Hour)
	return NewService(repo, tokens, 4, zerolog.Nop()), repo
}

func TestRegisterDefaultsToPatientRole(t *testing.T) {
	svc, _ := newAuthService()

	u, err := svc.Register(context.Background(), "jdoe", "secret", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"PATIENT"}, u.Roles)
}

func TestRegisterNormalizesRoleCase(t *testing.T) {
	svc, _ := newAuthService()

	u, err := svc.Register(context.Background(), "drsmith", "secret", "doctor")
	require.NoError(t, err)
	assert.Equal(t, []string{"DOCTOR"}, u.Roles)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc, _ := newAuthService()

	_, err := svc.Register(context.Background(), "jdoe", "secret", "NURSE")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	svc, _ := newAuthService()

	_, err := svc.Register(context.Background(), "", "secret", "")
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = svc.Register(context.Background(), "jdoe", "", "")
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	svc, _ := newAuthService()

	_, err := svc.Register(context.Background(), "jdoe", "secret", "")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "jdoe", "other", "")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLoginReturnsValidToken(t *testing.T) {
	svc, _ := newAuthService()

	_, err := svc.Register(context.Background(), "jdoe", "secret", "")
	require.NoError(t, err)

	token, u, err := svc.Login(context.Background(), "jdoe", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", u.Username)

	claims, err := svc.tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", claims.Username)
	assert.Equal(t, []string{"PATIENT"}, claims.Roles)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newAuthService()

	_, err := svc.Register(context.Background(), "jdoe", "secret", "")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "jdoe", "wrong")
	assert.ErrorIs(t, err, ErrInvalidLogin)
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	svc, _ := newAuthService()

	_, _, err := svc.Login(context.Background(), "nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidLogin)
}
