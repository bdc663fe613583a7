package models

import (
	"time"

	"github.com/google/uuid"
)

// Preregistration status values. Pending is the only non-terminal state.
const (
	PreregStatusPending   = "pending"
	PreregStatusCheckedIn = "checked_in"
	PreregStatusCancelled = "cancelled"
	PreregStatusExpired   = "expired"
)

// Preregistration represents an expected future visit, owned by the host
// principal. Only the host or staff may mutate it.
type Preregistration struct {
	ID           uuid.UUID `json:"id"`
	VisitorName  string    `json:"visitor_name"`
	VisitorEmail string    `json:"visitor_email,omitempty"`
	VisitorPhone string    `json:"visitor_phone,omitempty"`
	Company      string    `json:"company,omitempty"`
	HostUserID   uuid.UUID `json:"host_user_id"`
	HostName     string    `json:"host_name"`
	HostEmail    string    `json:"host_email,omitempty"`
	ExpectedAt   time.Time `json:"expected_at"`
	Purpose      string    `json:"purpose,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// CanTransitionPrereg reports whether a preregistration may move from one
// status to another. Transitions out of a terminal state are never allowed.
func CanTransitionPrereg(from, to string) bool {
	if from != PreregStatusPending {
		return false
	}
	switch to {
	case PreregStatusCheckedIn, PreregStatusCancelled, PreregStatusExpired:
		return true
	}
	return false
}
