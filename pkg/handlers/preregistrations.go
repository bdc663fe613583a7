package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/auth"
	"github.com/gatehouse-io/gatehouse-engine/pkg/services"
)

// TransitionRequest is the request body for a status transition.
type TransitionRequest struct {
	Status string `json:"status"`
}

// PreregistrationsHandler handles pre-registration HTTP requests.
type PreregistrationsHandler struct {
	preregService services.PreregistrationService
	logger        *zap.Logger
}

// NewPreregistrationsHandler creates a new pre-registrations handler.
func NewPreregistrationsHandler(preregService services.PreregistrationService, logger *zap.Logger) *PreregistrationsHandler {
	return &PreregistrationsHandler{
		preregService: preregService,
		logger:        logger,
	}
}

// RegisterRoutes registers the pre-registrations handler's routes on the given mux.
func (h *PreregistrationsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/preregistrations", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/preregistrations", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/preregistrations/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/preregistrations/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("POST /api/preregistrations/{id}/transition", authMiddleware.RequireAuth(h.Transition))
	mux.HandleFunc("DELETE /api/preregistrations/{id}", authMiddleware.RequireAuth(h.Delete))
}

// Create handles POST /api/preregistrations
// Registers an expected visit, owned by the calling host.
func (h *PreregistrationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	prereg, err := h.preregService.Create(r.Context(), input)
	if err != nil {
		serviceError(w, h.logger, err, "create_preregistration")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, prereg); err != nil {
		h.logger.Error("Failed to encode preregistration response", zap.Error(err))
	}
}

// List handles GET /api/preregistrations
func (h *PreregistrationsHandler) List(w http.ResponseWriter, r *http.Request) {
	preregs, err := h.preregService.List(r.Context())
	if err != nil {
		serviceError(w, h.logger, err, "list_preregistrations")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"preregistrations": preregs}); err != nil {
		h.logger.Error("Failed to encode preregistrations response", zap.Error(err))
	}
}

// Get handles GET /api/preregistrations/{id}
func (h *PreregistrationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	prereg, err := h.preregService.Get(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get_preregistration")
		return
	}

	if err := WriteJSON(w, http.StatusOK, prereg); err != nil {
		h.logger.Error("Failed to encode preregistration response", zap.Error(err))
	}
}

// Update handles PUT /api/preregistrations/{id}
// Updates the visit details of a pre-registration.
func (h *PreregistrationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	prereg, err := h.preregService.Update(r.Context(), id, input)
	if err != nil {
		serviceError(w, h.logger, err, "update_preregistration")
		return
	}

	if err := WriteJSON(w, http.StatusOK, prereg); err != nil {
		h.logger.Error("Failed to encode preregistration response", zap.Error(err))
	}
}

// Transition handles POST /api/preregistrations/{id}/transition
// Moves a pending pre-registration to checked_in, cancelled, or expired.
func (h *PreregistrationsHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if req.Status == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_status", "Status is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	prereg, err := h.preregService.Transition(r.Context(), id, req.Status)
	if err != nil {
		serviceError(w, h.logger, err, "transition_preregistration")
		return
	}

	if err := WriteJSON(w, http.StatusOK, prereg); err != nil {
		h.logger.Error("Failed to encode preregistration response", zap.Error(err))
	}
}

// Delete handles DELETE /api/preregistrations/{id}
func (h *PreregistrationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.preregService.Delete(r.Context(), id); err != nil {
		serviceError(w, h.logger, err, "delete_preregistration")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PreregistrationsHandler) decodeInput(w http.ResponseWriter, r *http.Request) (services.PreregistrationInput, bool) {
	var input services.PreregistrationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return input, false
	}

	if input.VisitorName == "" || input.HostUserID == uuid.Nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_fields", "Visitor name and host user ID are required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return input, false
	}

	return input, true
}

func (h *PreregistrationsHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_preregistration_id", "Invalid preregistration ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
