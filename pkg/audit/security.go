// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/auth"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSuspiciousVisitorInput is logged when libinjection flags
	// injection-looking patterns in visitor-supplied free text at the
	// notification boundary.
	EventSuspiciousVisitorInput SecurityEventType = "suspicious_visitor_input"
	// EventAuthorizationDenied is logged when a valid principal is denied a
	// staff-only or admin-only operation.
	EventAuthorizationDenied SecurityEventType = "authorization_denied"
)

// SecurityEvent represents an auditable security event with all relevant
// context for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// SuspiciousInputDetails contains specifics of flagged visitor input.
// The raw value is truncated by the caller before it reaches this struct.
type SuspiciousInputDetails struct {
	FieldName   string    `json:"field_name"`
	FieldValue  string    `json:"field_value"`
	Fingerprint string    `json:"fingerprint"` // libinjection fingerprint for pattern analysis
	VisitorID   uuid.UUID `json:"visitor_id,omitempty"`
}

// SecurityAuditor logs security events for SIEM consumption.
// Events are logged in structured JSON format with appropriate severity levels.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger
// namespace for easy filtering in SIEM systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	securityLogger := logger.Named("security_audit")
	return &SecurityAuditor{logger: securityLogger}
}

// LogSuspiciousInput records injection-looking visitor input with full
// context. Logged at WARN level: the input is sanitized and escaped before
// dispatch either way, but repeated hits from one source merit review.
func (a *SecurityAuditor) LogSuspiciousInput(
	ctx context.Context,
	details SuspiciousInputDetails,
	clientIP string,
) {
	userID := auth.GetUserIDFromContext(ctx)

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventSuspiciousVisitorInput,
		UserID:    userID,
		ClientIP:  clientIP,
		Details:   details,
		Severity:  "warning",
	}

	// Serialize event to JSON for SIEM ingestion
	// Ignoring error as marshaling known types should never fail
	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Suspicious visitor input detected",
		zap.String("event_json", string(eventJSON)),
		zap.String("field_name", details.FieldName),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("client_ip", clientIP),
		zap.String("user_id", userID),
		zap.String("severity", "warning"),
	)
}

// LogAuthorizationDenied records a denied staff-only or admin-only operation.
// Logged at WARN level; the denial itself has already been returned to the
// caller as a generic forbidden error.
func (a *SecurityAuditor) LogAuthorizationDenied(
	ctx context.Context,
	operation string,
	clientIP string,
) {
	userID := auth.GetUserIDFromContext(ctx)

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventAuthorizationDenied,
		UserID:    userID,
		ClientIP:  clientIP,
		Details: map[string]string{
			"operation": operation,
		},
		Severity: "warning",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Authorization denied",
		zap.String("event_json", string(eventJSON)),
		zap.String("operation", operation),
		zap.String("client_ip", clientIP),
		zap.String("user_id", userID),
		zap.String("severity", "warning"),
	)
}
