package domain

import "strings"

// Role names understood by the audit rules.
const (
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleDetailer = "detailer"
)

// Actor identifies who performs a mutation.
type Actor struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// SystemActor is used when no identity is configured.
var SystemActor = Actor{ID: "system", Name: "system", Role: RoleAdmin}

// IsAdmin reports whether the actor's mutations skip the evidence trail.
func (a Actor) IsAdmin() bool {
	switch strings.ToLower(strings.TrimSpace(a.Role)) {
	case RoleAdmin, RoleOwner:
		return true
	default:
		return false
	}
}

// Employee is a read-only staff record used by the assign/booked-by selectors.
type Employee struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
	Role  string `json:"role,omitempty" yaml:"role,omitempty"`
}
