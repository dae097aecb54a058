package auth

import (
	"time"

	"github.com/google/uuid"
)

// Role is the effective domain role derived from a user's role set.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
)

// rolePriority orders role resolution when a user carries several roles.
var rolePriority = []Role{RoleAdmin, RoleDoctor, RolePatient}

// EffectiveRole picks the highest-priority known role from a role set.
func EffectiveRole(roles []string) (Role, bool) {
	for _, want := range rolePriority {
		for _, have := range roles {
			if Role(have) == want {
				return want, true
			}
		}
	}
	return "", false
}

// ValidRole reports whether s names a registrable role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor is a caller's identity resolved once per request at the
// authentication boundary. DoctorID is set only for RoleDoctor,
// PatientID only for RolePatient.
type Actor struct {
	UserID    uuid.UUID
	Username  string
	Role      Role
	DoctorID  uuid.UUID
	PatientID uuid.UUID
}

func (a Actor) IsAdmin() bool   { return a.Role == RoleAdmin }
func (a Actor) IsDoctor() bool  { return a.Role == RoleDoctor }
func (a Actor) IsPatient() bool { return a.Role == RolePatient }
