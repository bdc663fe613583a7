package models

import (
	"time"

	"github.com/google/uuid"
)

// Visitor status values.
const (
	VisitorStatusCheckedIn  = "checked_in"
	VisitorStatusCheckedOut = "checked_out"
)

// Visitor represents one check-in/check-out cycle. Rows are never deleted.
// Invariant: CheckOutTime is set if and only if Status is checked_out.
type Visitor struct {
	ID           uuid.UUID  `json:"id"`
	BadgeID      string     `json:"badge_id"`
	Name         string     `json:"name"`
	Company      string     `json:"company,omitempty"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	HostName     string     `json:"host_name"`
	HostEmail    string     `json:"host_email,omitempty"`
	Purpose      string     `json:"purpose,omitempty"`
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	Status       string     `json:"status"`
	// CreatedBy is the staff principal that recorded the check-in.
	// Null only for legacy or kiosk-originated rows.
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
}
