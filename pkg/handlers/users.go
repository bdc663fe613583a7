package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/auth"
	"github.com/gatehouse-io/gatehouse-engine/pkg/models"
	"github.com/gatehouse-io/gatehouse-engine/pkg/services"
)

// SetRoleRequest is the request body for assigning a role.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// RoleResponse is the response body for role reads and writes.
type RoleResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// UsersHandler handles user listing and role management HTTP requests.
type UsersHandler struct {
	roleService services.RoleService
	logger      *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(roleService services.RoleService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		roleService: roleService,
		logger:      logger,
	}
}

// RegisterRoutes registers the users handler's routes on the given mux.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/users", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/users/{id}/role", authMiddleware.RequireAuth(h.GetRole))
	mux.HandleFunc("PUT /api/users/{id}/role", authMiddleware.RequireAuth(h.SetRole))
	mux.HandleFunc("DELETE /api/users/{id}/role", authMiddleware.RequireAuth(h.ClearRole))
}

// List handles GET /api/users
// Returns every profile with its effective role. Admin-only.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.roleService.ListUsers(r.Context())
	if err != nil {
		serviceError(w, h.logger, err, "list_users")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"users": users}); err != nil {
		h.logger.Error("Failed to encode users response", zap.Error(err))
	}
}

// GetRole handles GET /api/users/{id}/role
// Returns the target's effective role.
func (h *UsersHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	targetID, ok := h.parseUserID(w, r)
	if !ok {
		return
	}

	role, err := h.roleService.GetRole(r.Context(), targetID)
	if err != nil {
		serviceError(w, h.logger, err, "get_role")
		return
	}

	if err := WriteJSON(w, http.StatusOK, RoleResponse{UserID: targetID.String(), Role: string(role)}); err != nil {
		h.logger.Error("Failed to encode role response", zap.Error(err))
	}
}

// SetRole handles PUT /api/users/{id}/role
// Assigns a role to the target user. Admin-only, never self.
func (h *UsersHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	targetID, ok := h.parseUserID(w, r)
	if !ok {
		return
	}

	var req SetRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if req.Role == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_role", "Role is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.roleService.SetRole(r.Context(), targetID, models.Role(req.Role)); err != nil {
		serviceError(w, h.logger, err, "set_role")
		return
	}

	if err := WriteJSON(w, http.StatusOK, RoleResponse{UserID: targetID.String(), Role: req.Role}); err != nil {
		h.logger.Error("Failed to encode role response", zap.Error(err))
	}
}

// ClearRole handles DELETE /api/users/{id}/role
// Removes the target's role assignment so it reverts to the implicit
// unprivileged role. Admin-only, never self.
func (h *UsersHandler) ClearRole(w http.ResponseWriter, r *http.Request) {
	targetID, ok := h.parseUserID(w, r)
	if !ok {
		return
	}

	if err := h.roleService.ClearRole(r.Context(), targetID); err != nil {
		serviceError(w, h.logger, err, "clear_role")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UsersHandler) parseUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_user_id", "Invalid user ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
