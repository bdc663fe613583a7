package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/apperrors"
	"github.com/gatehouse-io/gatehouse-engine/pkg/authz"
	"github.com/gatehouse-io/gatehouse-engine/pkg/models"
	"github.com/gatehouse-io/gatehouse-engine/pkg/repositories"
)

// CheckInInput carries the fields of a new visitor check-in.
type CheckInInput struct {
	BadgeID   string `json:"badge_id"`
	Name      string `json:"name"`
	Company   string `json:"company"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	HostName  string `json:"host_name"`
	HostEmail string `json:"host_email"`
	Purpose   string `json:"purpose"`
}

// VisitorService owns the visitor check-in/check-out lifecycle. Read access
// is deliberately narrow: admins see every record, receptionists only the
// records they created.
type VisitorService interface {
	CheckIn(ctx context.Context, input CheckInInput) (*models.Visitor, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Visitor, error)
	GetByBadge(ctx context.Context, badgeID string) (*models.Visitor, error)
	List(ctx context.Context) ([]*models.Visitor, error)
	// CheckOut transitions a visitor to checked_out exactly once.
	CheckOut(ctx context.Context, id uuid.UUID) (*models.Visitor, error)
}

// visitorService implements VisitorService.
type visitorService struct {
	visitorRepo repositories.VisitorRepository
	roleRepo    repositories.RoleRepository
	logger      *zap.Logger
}

// NewVisitorService creates a new visitor service with dependencies.
func NewVisitorService(
	visitorRepo repositories.VisitorRepository,
	roleRepo repositories.RoleRepository,
	logger *zap.Logger,
) VisitorService {
	return &visitorService{
		visitorRepo: visitorRepo,
		roleRepo:    roleRepo,
		logger:      logger,
	}
}

func (s *visitorService) CheckIn(ctx context.Context, input CheckInInput) (*models.Visitor, error) {
	subject, err := resolveSubject(ctx, s.roleRepo)
	if err != nil {
		return nil, err
	}

	if !authz.CanCreateVisitor(subject) {
		return nil, apperrors.ErrForbidden
	}

	createdBy := subject.ID
	visitor := &models.Visitor{
		BadgeID:   input.BadgeID,
		Name:      input.Name,
		Company:   input.Company,
		Email:     input.Email,
		Phone:     input.Phone,
		HostName:  input.HostName,
		HostEmail: input.HostEmail,
		Purpose:   input.Purpose,
		CreatedBy: &createdBy,
	}

	if err := s.visitorRepo.Create(ctx, visitor); err != nil {
		return nil, err
	}

	s.logger.Info("Visitor checked in",
		zap.String("visitor_id", visitor.ID.String()),
		zap.String("badge_id", visitor.BadgeID),
		zap.String("created_by", subject.ID.String()))
	return visitor, nil
}

func (s *visitorService) Get(ctx context.Context, id uuid.UUID) (*models.Visitor, error) {
	subject, err := resolveSubject(ctx, s.roleRepo)
	if err != nil {
		return nil, err
	}

	visitor, err := s.visitorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !authz.CanReadVisitor(subject, visitor) {
		return nil, apperrors.ErrForbidden
	}

	return visitor, nil
}

func (s *visitorService) GetByBadge(ctx context.Context, badgeID string) (*models.Visitor, error) {
	subject, err := resolveSubject(ctx, s.roleRepo)
	if err != nil {
		return nil, err
	}

	visitor, err := s.visitorRepo.GetByBadge(ctx, badgeID)
	if err != nil {
		return nil, err
	}

	if !authz.CanReadVisitor(subject, visitor) {
		return nil, apperrors.ErrForbidden
	}

	return visitor, nil
}

func (s *visitorService) List(ctx context.Context) ([]*models.Visitor, error) {
	subject, err := resolveSubject(ctx, s.roleRepo)
	if err != nil {
		return nil, err
	}

	// The same policy as single-record reads, pushed into the query:
	// admins list everything, receptionists only their own check-ins.
	switch {
	case subject.IsAdmin():
		return s.visitorRepo.ListAll(ctx)
	case subject.IsStaff():
		return s.visitorRepo.ListCreatedBy(ctx, subject.ID)
	default:
		return nil, apperrors.ErrForbidden
	}
}

func (s *visitorService) CheckOut(ctx context.Context, id uuid.UUID) (*models.Visitor, error) {
	subject, err := resolveSubject(ctx, s.roleRepo)
	if err != nil {
		return nil, err
	}

	visitor, err := s.visitorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !authz.CanUpdateVisitor(subject, visitor) {
		return nil, apperrors.ErrForbidden
	}

	now := time.Now()
	if err := s.visitorRepo.CheckOut(ctx, id, now); err != nil {
		return nil, err
	}

	visitor.Status = models.VisitorStatusCheckedOut
	visitor.CheckOutTime = &now

	s.logger.Info("Visitor checked out",
		zap.String("visitor_id", visitor.ID.String()),
		zap.String("badge_id", visitor.BadgeID),
		zap.String("actor_id", subject.ID.String()))
	return visitor, nil
}

// Ensure visitorService implements VisitorService at compile time.
var _ VisitorService = (*visitorService)(nil)
