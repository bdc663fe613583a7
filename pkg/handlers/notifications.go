package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/apperrors"
	"github.com/gatehouse-io/gatehouse-engine/pkg/auth"
	"github.com/gatehouse-io/gatehouse-engine/pkg/notify"
	"github.com/gatehouse-io/gatehouse-engine/pkg/services"
)

// VisitorEventResponse is the dispatch outcome returned to the caller.
// Success is true only when every configured target accepted the delivery;
// a request with zero configured targets succeeds trivially.
type VisitorEventResponse struct {
	Success bool            `json:"success"`
	Results []notify.Result `json:"results"`
}

// NotificationsHandler handles outbound notification trigger requests.
type NotificationsHandler struct {
	notificationService services.NotificationService
	logger              *zap.Logger
}

// NewNotificationsHandler creates a new notifications handler.
func NewNotificationsHandler(notificationService services.NotificationService, logger *zap.Logger) *NotificationsHandler {
	return &NotificationsHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// RegisterRoutes registers the notifications handler's routes on the given mux.
func (h *NotificationsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/notifications/visitor-event", authMiddleware.RequireAuth(h.VisitorEvent))
}

// VisitorEvent handles POST /api/notifications/visitor-event
// Dispatches a check-in or check-out notification to all configured targets.
func (h *NotificationsHandler) VisitorEvent(w http.ResponseWriter, r *http.Request) {
	var input services.VisitorEventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if input.EventType == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_event_type", "Event type is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	results, err := h.notificationService.NotifyVisitorEvent(r.Context(), input, r.RemoteAddr)
	if err != nil {
		// The visitor lookup is the only 404 on this route, and its message
		// is specific so clients can distinguish it from a bad URL.
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Visitor not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		serviceError(w, h.logger, err, "notify_visitor_event")
		return
	}

	response := VisitorEventResponse{Success: true, Results: results}
	for _, result := range results {
		if !result.Success {
			response.Success = false
			break
		}
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode notification response", zap.Error(err))
	}
}
