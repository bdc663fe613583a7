package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile represents an authenticated principal. A profile row is created on
// first sign-in and is never deleted by application code.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
