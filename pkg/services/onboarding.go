package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/apperrors"
	"github.com/gatehouse-io/gatehouse-engine/pkg/auth"
	"github.com/gatehouse-io/gatehouse-engine/pkg/database"
	"github.com/gatehouse-io/gatehouse-engine/pkg/models"
	"github.com/gatehouse-io/gatehouse-engine/pkg/repositories"
)

// OnboardingService provisions a principal on first sign-in: it creates the
// profile row and assigns the default role. The very first principal ever
// observed becomes admin; everyone after that becomes receptionist. This is
// the only code path that writes a role without an acting admin, and it is
// reachable solely for the caller's own identity, so the self-action guard
// does not apply (there is no acting principal yet).
type OnboardingService interface {
	// Provision is idempotent: repeat calls refresh the profile and return
	// the existing role without touching the role store again.
	Provision(ctx context.Context) (*models.Profile, models.Role, error)
}

// onboardingService implements OnboardingService.
type onboardingService struct {
	profileRepo repositories.ProfileRepository
	roleRepo    repositories.RoleRepository
	auditRepo   repositories.AuditRepository
	tx          database.TxRunner
	logger      *zap.Logger
}

// NewOnboardingService creates a new onboarding service with dependencies.
func NewOnboardingService(
	profileRepo repositories.ProfileRepository,
	roleRepo repositories.RoleRepository,
	auditRepo repositories.AuditRepository,
	tx database.TxRunner,
	logger *zap.Logger,
) OnboardingService {
	return &onboardingService{
		profileRepo: profileRepo,
		roleRepo:    roleRepo,
		auditRepo:   auditRepo,
		tx:          tx,
		logger:      logger,
	}
}

func (s *onboardingService) Provision(ctx context.Context) (*models.Profile, models.Role, error) {
	claims, ok := auth.GetClaims(ctx)
	if !ok || claims == nil {
		return nil, "", apperrors.ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid subject", apperrors.ErrUnauthorized)
	}

	profile := &models.Profile{
		ID:          userID,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}

	var role models.Role
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.profileRepo.Upsert(ctx, profile); err != nil {
			return err
		}

		existing, err := s.roleRepo.GetByUserID(ctx, userID)
		if err == nil {
			role = existing.Role
			return nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		// First principal ever observed gets admin; the check runs in the
		// same transaction as the insert so two racing first sign-ins
		// cannot both see an empty role store and commit.
		anyRoles, err := s.roleRepo.Any(ctx)
		if err != nil {
			return err
		}
		role = models.RoleReceptionist
		if !anyRoles {
			role = models.RoleAdmin
		}

		if err := s.roleRepo.Insert(ctx, &models.RoleAssignment{
			UserID: userID,
			Role:   role,
		}); err != nil {
			return err
		}

		// System-initiated: actor is nil.
		if err := s.auditRepo.Create(ctx, &models.AuditLogEntry{
			Action:       models.AuditActionRoleAssigned,
			ResourceType: models.AuditResourceRole,
			ResourceID:   userID,
			NewValue:     map[string]any{"role": string(role)},
			Metadata:     map[string]any{"bootstrap": true},
		}); err != nil {
			return fmt.Errorf("audit write failed: %w", err)
		}

		s.logger.Info("Provisioned new principal",
			zap.String("user_id", userID.String()),
			zap.String("role", string(role)))
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	return profile, role, nil
}

// Ensure onboardingService implements OnboardingService at compile time.
var _ OnboardingService = (*onboardingService)(nil)
