// Package authz is the authorization predicate engine: stateless decision
// functions evaluated by the service layer in front of every storage
// operation. UI-level gating is a convenience only; these predicates are the
// authority, and no code path reaches a repository without passing through
// them.
package authz

import (
	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse-engine/pkg/models"
)

// Subject is the authenticated principal a policy decision is made for.
type Subject struct {
	ID   uuid.UUID
	Role models.Role
}

// IsAdmin reports whether the subject holds the admin role.
func (s Subject) IsAdmin() bool {
	return s.Role.IsAdmin()
}

// IsStaff reports whether the subject holds the admin or receptionist role.
func (s Subject) IsStaff() bool {
	return s.Role.IsStaff()
}

// CanReadProfile allows reading a principal profile: own row, or any row for
// admins.
func CanReadProfile(sub Subject, profileID uuid.UUID) bool {
	return sub.ID == profileID || sub.IsAdmin()
}

// CanReadRoleAssignment allows reading a role row: own row, or any row for
// admins.
func CanReadRoleAssignment(sub Subject, targetUserID uuid.UUID) bool {
	return sub.ID == targetUserID || sub.IsAdmin()
}

// CanChangeRole allows creating or deleting a role assignment. Only admins,
// and never against themselves: self-escalation and self-demotion are both
// forbidden.
func CanChangeRole(sub Subject, targetUserID uuid.UUID) bool {
	return sub.IsAdmin() && sub.ID != targetUserID
}

// CanUpdateRoleInPlace is always false. Role changes must be performed as
// delete-then-insert so each change yields two independently timestamped
// audit events.
func CanUpdateRoleInPlace(Subject) bool {
	return false
}

// CanCreateVisitor allows recording a check-in: staff only.
func CanCreateVisitor(sub Subject) bool {
	return sub.IsStaff()
}

// CanReadVisitor allows reading a visitor record. Admins read everything;
// receptionists only rows they created. This was deliberately tightened from
// "all staff read all visitors" and must stay narrow.
func CanReadVisitor(sub Subject, v *models.Visitor) bool {
	if sub.IsAdmin() {
		return true
	}
	return sub.IsStaff() && v.CreatedBy != nil && *v.CreatedBy == sub.ID
}

// CanUpdateVisitor allows mutating a visitor record (check-out): admins, or
// the creating principal.
func CanUpdateVisitor(sub Subject, v *models.Visitor) bool {
	if sub.IsAdmin() {
		return true
	}
	return v.CreatedBy != nil && *v.CreatedBy == sub.ID
}

// CanCreatePreregistration allows creating a pre-registration only for
// oneself as host.
func CanCreatePreregistration(sub Subject, hostUserID uuid.UUID) bool {
	return sub.ID == hostUserID
}

// CanReadPreregistration allows the host to read their own rows and staff to
// read any.
func CanReadPreregistration(sub Subject, p *models.Preregistration) bool {
	return sub.ID == p.HostUserID || sub.IsStaff()
}

// CanMutatePreregistration allows the host or staff to update/delete a
// pre-registration.
func CanMutatePreregistration(sub Subject, p *models.Preregistration) bool {
	return sub.ID == p.HostUserID || sub.IsStaff()
}

// CanSendNotifications allows triggering outbound visitor notifications:
// staff only. Authenticated non-staff principals are refused before any
// payload validation happens.
func CanSendNotifications(sub Subject) bool {
	return sub.IsStaff()
}

// CanManageWebhooks allows any webhook configuration operation: admins only.
func CanManageWebhooks(sub Subject) bool {
	return sub.IsAdmin()
}

// CanReadAuditLog allows reading the audit log: admins only. There is no
// write predicate because no principal-facing write path exists.
func CanReadAuditLog(sub Subject) bool {
	return sub.IsAdmin()
}
