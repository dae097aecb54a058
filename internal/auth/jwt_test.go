package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	u := &User{Username: "jdoe", Roles: []string{"PATIENT"}}
	token, err := tm.Mint(u)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", claims.Username)
	assert.Equal(t, []string{"PATIENT"}, claims.Roles)
	assert.Equal(t, "jdoe", claims.Subject)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).Mint(&User{Username: "jdoe"})
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)

	token, err := tm.Mint(&User{Username: "jdoe"})
	require.NoError(t, err)

	_, err = tm.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	_, err := tm.Parse("not.a.token")
	assert.Error(t, err)
}

func TestEffectiveRolePicksHighestPrivilege(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  Role
		ok    bool
	}{
		{"single patient", []string{"PATIENT"}, RolePatient, true},
		{"doctor and patient", []string{"PATIENT", "DOCTOR"}, RoleDoctor, true},
		{"admin wins", []string{"PATIENT", "ADMIN", "DOCTOR"}, RoleAdmin, true},
		{"unknown only", []string{"NURSE"}, "", false},
		{"empty", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EffectiveRole(tt.roles)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
