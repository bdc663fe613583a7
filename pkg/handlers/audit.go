package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/auth"
	"github.com/gatehouse-io/gatehouse-engine/pkg/repositories"
	"github.com/gatehouse-io/gatehouse-engine/pkg/services"
)

// AuditHandler handles audit log read requests. Admin-only, read-only: the
// log has no write endpoint.
type AuditHandler struct {
	auditService services.AuditService
	logger       *zap.Logger
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(auditService services.AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// RegisterRoutes registers the audit handler's routes on the given mux.
func (h *AuditHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/audit", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/audit/{resourceType}/{id}", authMiddleware.RequireAuth(h.ListByResource))
}

// List handles GET /api/audit
// Supports action, resource_type, actor_id, limit, and offset query filters.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := repositories.AuditFilters{
		Action:       r.URL.Query().Get("action"),
		ResourceType: r.URL.Query().Get("resource_type"),
	}

	if actorStr := r.URL.Query().Get("actor_id"); actorStr != "" {
		actorID, err := uuid.Parse(actorStr)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_actor_id", "Invalid actor ID format"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		filters.ActorID = &actorID
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_limit", "Invalid limit"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		filters.Limit = limit
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_offset", "Invalid offset"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		filters.Offset = offset
	}

	entries, err := h.auditService.List(r.Context(), filters)
	if err != nil {
		serviceError(w, h.logger, err, "list_audit")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"entries": entries}); err != nil {
		h.logger.Error("Failed to encode audit response", zap.Error(err))
	}
}

// ListByResource handles GET /api/audit/{resourceType}/{id}
// Returns the full change history of one resource, newest first.
func (h *AuditHandler) ListByResource(w http.ResponseWriter, r *http.Request) {
	resourceType := r.PathValue("resourceType")

	resourceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_resource_id", "Invalid resource ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	entries, err := h.auditService.ListByResource(r.Context(), resourceType, resourceID)
	if err != nil {
		serviceError(w, h.logger, err, "list_audit_by_resource")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"entries": entries}); err != nil {
		h.logger.Error("Failed to encode audit response", zap.Error(err))
	}
}
