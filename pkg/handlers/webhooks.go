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

// WebhooksHandler handles webhook configuration HTTP requests. All routes are
// admin-only; the check lives in the service layer.
type WebhooksHandler struct {
	webhookService services.WebhookService
	logger         *zap.Logger
}

// NewWebhooksHandler creates a new webhooks handler.
func NewWebhooksHandler(webhookService services.WebhookService, logger *zap.Logger) *WebhooksHandler {
	return &WebhooksHandler{
		webhookService: webhookService,
		logger:         logger,
	}
}

// RegisterRoutes registers the webhooks handler's routes on the given mux.
func (h *WebhooksHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/webhooks", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/webhooks", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/webhooks/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/webhooks/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/webhooks/{id}", authMiddleware.RequireAuth(h.Delete))
}

// Create handles POST /api/webhooks
func (h *WebhooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	webhook, err := h.webhookService.Create(r.Context(), input)
	if err != nil {
		serviceError(w, h.logger, err, "create_webhook")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, webhook); err != nil {
		h.logger.Error("Failed to encode webhook response", zap.Error(err))
	}
}

// List handles GET /api/webhooks
func (h *WebhooksHandler) List(w http.ResponseWriter, r *http.Request) {
	webhooks, err := h.webhookService.List(r.Context())
	if err != nil {
		serviceError(w, h.logger, err, "list_webhooks")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"webhooks": webhooks}); err != nil {
		h.logger.Error("Failed to encode webhooks response", zap.Error(err))
	}
}

// Get handles GET /api/webhooks/{id}
func (h *WebhooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseWebhookID(w, r)
	if !ok {
		return
	}

	webhook, err := h.webhookService.Get(r.Context(), id)
	if err != nil {
		serviceError(w, h.logger, err, "get_webhook")
		return
	}

	if err := WriteJSON(w, http.StatusOK, webhook); err != nil {
		h.logger.Error("Failed to encode webhook response", zap.Error(err))
	}
}

// Update handles PUT /api/webhooks/{id}
func (h *WebhooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseWebhookID(w, r)
	if !ok {
		return
	}

	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	webhook, err := h.webhookService.Update(r.Context(), id, input)
	if err != nil {
		serviceError(w, h.logger, err, "update_webhook")
		return
	}

	if err := WriteJSON(w, http.StatusOK, webhook); err != nil {
		h.logger.Error("Failed to encode webhook response", zap.Error(err))
	}
}

// Delete handles DELETE /api/webhooks/{id}
func (h *WebhooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseWebhookID(w, r)
	if !ok {
		return
	}

	if err := h.webhookService.Delete(r.Context(), id); err != nil {
		serviceError(w, h.logger, err, "delete_webhook")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *WebhooksHandler) decodeInput(w http.ResponseWriter, r *http.Request) (services.WebhookInput, bool) {
	var input services.WebhookInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return input, false
	}

	if input.Name == "" || input.URL == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_fields", "Name and URL are required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return input, false
	}

	if !models.IsValidWebhookType(input.Type) {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_type", "Type must be one of: slack, teams"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return input, false
	}

	return input, true
}

func (h *WebhooksHandler) parseWebhookID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_webhook_id", "Invalid webhook ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
