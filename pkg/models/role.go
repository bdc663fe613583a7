package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the privilege level assigned to a principal.
type Role string

// Role constants. A principal with no role row is implicitly RoleUser.
const (
	RoleAdmin        Role = "admin"
	RoleReceptionist Role = "receptionist"
	RoleUser         Role = "user"
)

// ValidRoles contains all assignable role values.
var ValidRoles = []Role{RoleAdmin, RoleReceptionist, RoleUser}

// IsValidRole checks if the given role is valid.
func IsValidRole(role Role) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the role is admin.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// IsStaff reports whether the role is admin or receptionist.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleReceptionist
}

// RoleAssignment is the persistent mapping of one principal to one role.
// The user_id column carries a unique constraint, so a principal has at most
// one active assignment. Role changes are delete-then-insert, never UPDATE,
// so every change produces two independently timestamped audit events.
type RoleAssignment struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
