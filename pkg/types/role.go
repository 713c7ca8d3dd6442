package types

import (
	"fmt"
	"strings"
)

// Role represents the portal roles a session can be bound to
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// LogoutPrecedence is the order in which roles are probed during logout.
// Admin comes first so a conflicting ledger answer never under-privileges
// the logout event.
var LogoutPrecedence = []Role{RoleAdmin, RoleDoctor, RolePatient}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// Title returns the role name with its first letter upper-cased
func (r Role) Title() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a role string into a Role
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", NewInvalidInputError(fmt.Sprintf("unknown role %q", s), map[string]interface{}{
			"role": s,
		})
	}
	return r, nil
}
