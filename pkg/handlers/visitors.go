package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/auth"
	"github.com/gatehouse-io/gatehouse-engine/pkg/services"
)

// VisitorsHandler handles visitor check-in/check-out HTTP requests.
type VisitorsHandler struct {
	visitorService services.VisitorService
	logger         *zap.Logger
}

// NewVisitorsHandler creates a new visitors handler.
func NewVisitorsHandler(visitorService services.VisitorService, logger *zap.Logger) *VisitorsHandler {
	return &VisitorsHandler{
		visitorService: visitorService,
		logger:         logger,
	}
}

// RegisterRoutes registers the visitors handler's routes on the given mux.
func (h *VisitorsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/visitors", authMiddleware.RequireAuth(h.CheckIn))
	mux.HandleFunc("GET /api/visitors", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/visitors/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("GET /api/visitors/badge/{badgeID}", authMiddleware.RequireAuth(h.GetByBadge))
	mux.HandleFunc("POST /api/visitors/{id}/checkout", authMiddleware.RequireAuth(h.CheckOut))
}

// CheckIn handles POST /api/visitors
// Records a new visitor check-in. Staff only.
func (h *VisitorsHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var input services.CheckInInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if input.Name == "" || input.BadgeID == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_fields", "Name and badge ID are required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	visitor, err := h.visitorService.CheckIn(r.Context(), input)
	if err != nil {
		serviceError(w, h.logger, err, "check_in")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, visitor); err != nil {
		h.logger.Error("Failed to encode visitor response", zap.Error(err))
	}
}

// List handles GET /api/visitors
// Returns the visitor records the caller may see.
func (h *VisitorsHandler) List(w http.ResponseWriter, r *http.Request) {
	visitors, err := h.visitorService.List(r.Context())
	if err != nil {
		serviceError(w, h.logger, err, "list_visitors")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"visitors": visitors}); err != nil {
		h.logger.Error("Failed to encode visitors response", zap.Error(err))
	}
}

// Get handles GET /api/visitors/{id}
func (h *VisitorsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseVisitorID(w, r)
	if !ok {
		return
	}

	visitor, err := h.visitorService.Get(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get_visitor")
		return
	}

	if err := WriteJSON(w, http.StatusOK, visitor); err != nil {
		h.logger.Error("Failed to encode visitor response", zap.Error(err))
	}
}

// GetByBadge handles GET /api/visitors/badge/{badgeID}
func (h *VisitorsHandler) GetByBadge(w http.ResponseWriter, r *http.Request) {
	badgeID := r.PathValue("badgeID")
	if badgeID == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_badge_id", "Badge ID is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	visitor, err := h.visitorService.GetByBadge(r.Context(), badgeID)
	if err != nil {
		serviceError(w, h.logger, err, "get_visitor_by_badge")
		return
	}

	if err := WriteJSON(w, http.StatusOK, visitor); err != nil {
		h.logger.Error("Failed to encode visitor response", zap.Error(err))
	}
}

// CheckOut handles POST /api/visitors/{id}/checkout
// Transitions the visitor to checked_out. Repeating the call conflicts.
func (h *VisitorsHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseVisitorID(w, r)
	if !ok {
		return
	}

	visitor, err := h.visitorService.CheckOut(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "check_out")
		return
	}

	if err := WriteJSON(w, http.StatusOK, visitor); err != nil {
		h.logger.Error("Failed to encode visitor response", zap.Error(err))
	}
}

func (h *VisitorsHandler) parseVisitorID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_visitor_id", "Invalid visitor ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
