package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/apperrors"
	"github.com/gatehouse-io/gatehouse-engine/pkg/authz"
	"github.com/gatehouse-io/gatehouse-engine/pkg/database"
	"github.com/gatehouse-io/gatehouse-engine/pkg/models"
	"github.com/gatehouse-io/gatehouse-engine/pkg/repositories"
)

// UserWithRole pairs a profile with its effective role for admin listings.
type UserWithRole struct {
	Profile *models.Profile `json:"profile"`
	Role    models.Role     `json:"role"`
}

// RoleService is the role store: the durable source of truth for what a
// principal may do. All reads and mutations are policy-checked against the
// acting principal taken from the request context.
type RoleService interface {
	// GetRole returns the target's assigned role, defaulting to RoleUser
	// when no assignment exists. Fails with ErrNotFound only when the
	// principal itself does not exist, and with ErrForbidden when the
	// subject may not read the target's assignment.
	GetRole(ctx context.Context, targetID uuid.UUID) (models.Role, error)

	// SetRole assigns newRole to the target. Admin-only, and never against
	// the acting principal itself. The change is a delete of any existing
	// assignment followed by an insert, with one audit entry per half, all
	// in a single transaction.
	SetRole(ctx context.Context, targetID uuid.UUID, newRole models.Role) error

	// ClearRole removes the target's assignment so it reverts to the
	// implicit RoleUser. Same guards as SetRole.
	ClearRole(ctx context.Context, targetID uuid.UUID) error

	// ListUsers returns every profile with its effective role. Admin-only.
	ListUsers(ctx context.Context) ([]*UserWithRole, error)
}

// roleService implements RoleService.
type roleService struct {
	roleRepo    repositories.RoleRepository
	profileRepo repositories.ProfileRepository
	auditRepo   repositories.AuditRepository
	tx          database.TxRunner
	logger      *zap.Logger
}

// NewRoleService creates a new role service with dependencies.
func NewRoleService(
	roleRepo repositories.RoleRepository,
	profileRepo repositories.ProfileRepository,
	auditRepo repositories.AuditRepository,
	tx database.TxRunner,
	logger *zap.Logger,
) RoleService {
	return &roleService{
		roleRepo:    roleRepo,
		profileRepo: profileRepo,
		auditRepo:   auditRepo,
		tx:          tx,
		logger:      logger,
	}
}

func (s *roleService) GetRole(ctx context.Context, targetID uuid.UUID) (models.Role, error) {
	subject, err := resolveSubject(ctx, s.roleRepo)
	if err != nil {
		return "", err
	}

	if !authz.CanReadRoleAssignment(subject, targetID) {
		return "", apperrors.ErrForbidden
	}

	if _, err := s.profileRepo.GetByID(ctx, targetID); err != nil {
		return "", err
	}

	return lookupRole(ctx, s.roleRepo, targetID)
}

func (s *roleService) SetRole(ctx context.Context, targetID uuid.UUID, newRole models.Role) error {
	if !models.IsValidRole(newRole) {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidRole, newRole)
	}

	subject, err := s.requireRoleChange(ctx, targetID)
	if err != nil {
		return err
	}

	if _, err := s.profileRepo.GetByID(ctx, targetID); err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.roleRepo.GetByUserID(ctx, targetID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		// Delete-then-insert, never in-place update: each half emits its
		// own audit entry, and a failed audit write aborts the whole unit.
		if current != nil {
			if err := s.roleRepo.DeleteByUserID(ctx, targetID); err != nil {
				return err
			}
			if err := s.auditRepo.Create(ctx, &models.AuditLogEntry{
				ActorID:      &subject.ID,
				Action:       models.AuditActionRoleRemoved,
				ResourceType: models.AuditResourceRole,
				ResourceID:   targetID,
				OldValue:     map[string]any{"role": string(current.Role)},
			}); err != nil {
				return fmt.Errorf("audit write failed: %w", err)
			}
		}

		if err := s.roleRepo.Insert(ctx, &models.RoleAssignment{
			UserID: targetID,
			Role:   newRole,
		}); err != nil {
			return err
		}
		if err := s.auditRepo.Create(ctx, &models.AuditLogEntry{
			ActorID:      &subject.ID,
			Action:       models.AuditActionRoleAssigned,
			ResourceType: models.AuditResourceRole,
			ResourceID:   targetID,
			NewValue:     map[string]any{"role": string(newRole)},
		}); err != nil {
			return fmt.Errorf("audit write failed: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Role assigned",
		zap.String("actor_id", subject.ID.String()),
		zap.String("target_id", targetID.String()),
		zap.String("role", string(newRole)))
	return nil
}

func (s *roleService) ClearRole(ctx context.Context, targetID uuid.UUID) error {
	subject, err := s.requireRoleChange(ctx, targetID)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.roleRepo.GetByUserID(ctx, targetID)
		if err != nil {
			return err
		}

		if err := s.roleRepo.DeleteByUserID(ctx, targetID); err != nil {
			return err
		}
		if err := s.auditRepo.Create(ctx, &models.AuditLogEntry{
			ActorID:      &subject.ID,
			Action:       models.AuditActionRoleRemoved,
			ResourceType: models.AuditResourceRole,
			ResourceID:   targetID,
			OldValue:     map[string]any{"role": string(current.Role)},
		}); err != nil {
			return fmt.Errorf("audit write failed: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Role cleared",
		zap.String("actor_id", subject.ID.String()),
		zap.String("target_id", targetID.String()))
	return nil
}

func (s *roleService) ListUsers(ctx context.Context) ([]*UserWithRole, error) {
	subject, err := resolveSubject(ctx, s.roleRepo)
	if err != nil {
		return nil, err
	}

	if !subject.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	profiles, err := s.profileRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	assignments, err := s.roleRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	roleByUser := make(map[uuid.UUID]models.Role, len(assignments))
	for _, a := range assignments {
		roleByUser[a.UserID] = a.Role
	}

	users := make([]*UserWithRole, 0, len(profiles))
	for _, p := range profiles {
		role, ok := roleByUser[p.ID]
		if !ok {
			role = models.RoleUser
		}
		users = append(users, &UserWithRole{Profile: p, Role: role})
	}

	return users, nil
}

// requireRoleChange resolves the subject and enforces the admin + self-action
// guards shared by SetRole and ClearRole.
func (s *roleService) requireRoleChange(ctx context.Context, targetID uuid.UUID) (authz.Subject, error) {
	subject, err := resolveSubject(ctx, s.roleRepo)
	if err != nil {
		return authz.Subject{}, err
	}

	if !authz.CanChangeRole(subject, targetID) {
		if subject.IsAdmin() && subject.ID == targetID {
			return authz.Subject{}, apperrors.ErrSelfRoleChange
		}
		return authz.Subject{}, apperrors.ErrForbidden
	}

	return subject, nil
}

// Ensure roleService implements RoleService at compile time.
var _ RoleService = (*roleService)(nil)
