package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// serviceError maps the service layer's sentinel errors onto HTTP responses.
// Unknown errors become an opaque 500; the detail goes to the log only.
func serviceError(w http.ResponseWriter, logger *zap.Logger, err error, operation string) {
	var status int
	var code, message string

	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, code, message = http.StatusUnauthorized, "unauthorized", "Authentication required"
	case errors.Is(err, apperrors.ErrForbidden):
		status, code, message = http.StatusForbidden, "forbidden", "Insufficient permissions"
	case errors.Is(err, apperrors.ErrSelfRoleChange):
		status, code, message = http.StatusForbidden, "self_role_change", "Administrators cannot change their own role"
	case errors.Is(err, apperrors.ErrNotFound):
		status, code, message = http.StatusNotFound, "not_found", "Resource not found"
	case errors.Is(err, apperrors.ErrInvalidRole):
		status, code, message = http.StatusBadRequest, "invalid_role", "Invalid role. Must be one of: admin, receptionist, user"
	case errors.Is(err, apperrors.ErrAlreadyCheckedOut):
		status, code, message = http.StatusConflict, "already_checked_out", "Visitor is already checked out"
	case errors.Is(err, apperrors.ErrInvalidTransition):
		status, code, message = http.StatusConflict, "invalid_transition", "Invalid status transition"
	case errors.Is(err, apperrors.ErrConflict):
		status, code, message = http.StatusConflict, "conflict", "Request conflicts with current state"
	default:
		logger.Error("Operation failed", zap.String("operation", operation), zap.Error(err))
		status, code, message = http.StatusInternalServerError, "internal_error", "Internal server error"
	}

	if err := ErrorResponse(w, status, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
