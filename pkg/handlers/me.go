package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/auth"
	"github.com/gatehouse-io/gatehouse-engine/pkg/models"
	"github.com/gatehouse-io/gatehouse-engine/pkg/services"
)

// MeResponse is the provisioned identity returned on sign-in.
type MeResponse struct {
	Profile *models.Profile `json:"profile"`
	Role    models.Role     `json:"role"`
}

// MeHandler handles the authenticated principal's own identity endpoint.
// Hitting it provisions the profile and default role on first sign-in.
type MeHandler struct {
	onboardingService services.OnboardingService
	logger            *zap.Logger
}

// NewMeHandler creates a new me handler.
func NewMeHandler(onboardingService services.OnboardingService, logger *zap.Logger) *MeHandler {
	return &MeHandler{
		onboardingService: onboardingService,
		logger:            logger,
	}
}

// RegisterRoutes registers the me handler's routes on the given mux.
func (h *MeHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/me", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("POST /api/onboarding", authMiddleware.RequireAuth(h.Onboard))
}

// Get handles GET /api/me
// Provisions the caller on first sign-in and returns profile plus role.
func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, role, err := h.onboardingService.Provision(r.Context())
	if err != nil {
		serviceError(w, h.logger, err, "provision")
		return
	}

	if err := WriteJSON(w, http.StatusOK, MeResponse{Profile: profile, Role: role}); err != nil {
		h.logger.Error("Failed to encode me response", zap.Error(err))
	}
}

// Onboard handles POST /api/onboarding
// Explicit provisioning entry point; idempotent, same result as GET /api/me.
func (h *MeHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	h.Get(w, r)
}
