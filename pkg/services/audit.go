package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/apperrors"
	"github.com/gatehouse-io/gatehouse-engine/pkg/authz"
	"github.com/gatehouse-io/gatehouse-engine/pkg/models"
	"github.com/gatehouse-io/gatehouse-engine/pkg/repositories"
)

// AuditService exposes admin-only reads over the audit log. There are no
// write methods here: entries are written by the mutating services inside
// their own transactions, and nothing ever updates or deletes them.
type AuditService interface {
	List(ctx context.Context, filters repositories.AuditFilters) ([]*models.AuditLogEntry, error)
	ListByResource(ctx context.Context, resourceType string, resourceID uuid.UUID) ([]*models.AuditLogEntry, error)
}

// auditService implements AuditService.
type auditService struct {
	auditRepo repositories.AuditRepository
	roleRepo  repositories.RoleRepository
	logger    *zap.Logger
}

// NewAuditService creates a new audit service with dependencies.
func NewAuditService(
	auditRepo repositories.AuditRepository,
	roleRepo repositories.RoleRepository,
	logger *zap.Logger,
) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		roleRepo:  roleRepo,
		logger:    logger,
	}
}

func (s *auditService) List(ctx context.Context, filters repositories.AuditFilters) ([]*models.AuditLogEntry, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.auditRepo.List(ctx, filters)
}

func (s *auditService) ListByResource(ctx context.Context, resourceType string, resourceID uuid.UUID) ([]*models.AuditLogEntry, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.auditRepo.ListByResource(ctx, resourceType, resourceID)
}

func (s *auditService) requireAdmin(ctx context.Context) error {
	subject, err := resolveSubject(ctx, s.roleRepo)
	if err != nil {
		return err
	}
	if !authz.CanReadAuditLog(subject) {
		return apperrors.ErrForbidden
	}
	return nil
}

// Ensure auditService implements AuditService at compile time.
var _ AuditService = (*auditService)(nil)
