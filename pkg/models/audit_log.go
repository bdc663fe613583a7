package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions. The column is free-form but writers only use these values.
const (
	AuditActionRoleAssigned   = "role_assigned"
	AuditActionRoleRemoved    = "role_removed"
	AuditActionRoleUpdated    = "role_updated"
	AuditActionWebhookCreated = "webhook_created"
	AuditActionWebhookUpdated = "webhook_updated"
	AuditActionWebhookDeleted = "webhook_deleted"
)

// Audit resource types.
const (
	AuditResourceRole    = "user_role"
	AuditResourceWebhook = "webhook_config"
)

// AuditLogEntry is an immutable, append-only record of a sensitive mutation.
// There is no update or delete path for this entity from any principal-facing
// interface; the only writer is the audit recorder inside the mutating
// transaction.
type AuditLogEntry struct {
	ID           uuid.UUID `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	// ActorID is the acting principal, or nil for system-initiated
	// mutations such as the first-user bootstrap.
	ActorID      *uuid.UUID     `json:"actor_id,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   uuid.UUID      `json:"resource_id"`
	OldValue     map[string]any `json:"old_value,omitempty"`
	NewValue     map[string]any `json:"new_value,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}
