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

// PreregistrationInput carries the host-supplied fields of an expected visit.
type PreregistrationInput struct {
	VisitorName  string    `json:"visitor_name"`
	VisitorEmail string    `json:"visitor_email"`
	VisitorPhone string    `json:"visitor_phone"`
	Company      string    `json:"company"`
	HostUserID   uuid.UUID `json:"host_user_id"`
	HostName     string    `json:"host_name"`
	HostEmail    string    `json:"host_email"`
	ExpectedAt   time.Time `json:"expected_at"`
	Purpose      string    `json:"purpose"`
	Notes        string    `json:"notes"`
}

// PreregistrationService owns the pre-registration lifecycle. Rows are owned
// by their host principal; only the host or staff may read or mutate them.
type PreregistrationService interface {
	Create(ctx context.Context, input PreregistrationInput) (*models.Preregistration, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Preregistration, error)
	// List returns all rows for staff, and the caller's own rows otherwise.
	List(ctx context.Context) ([]*models.Preregistration, error)
	Update(ctx context.Context, id uuid.UUID, input PreregistrationInput) (*models.Preregistration, error)
	// Transition moves a pending row to checked_in, cancelled, or expired.
	Transition(ctx context.Context, id uuid.UUID, toStatus string) (*models.Preregistration, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ExpireOverdue is the system sweep that marks pending rows past their
	// expected time as expired. It is invoked from the background loop,
	// not from any client-facing path.
	ExpireOverdue(ctx context.Context) (int64, error)
}

// preregistrationService implements PreregistrationService.
type preregistrationService struct {
	preregRepo repositories.PreregistrationRepository
	roleRepo   repositories.RoleRepository
	logger     *zap.Logger
}

// NewPreregistrationService creates a new pre-registration service with dependencies.
func NewPreregistrationService(
	preregRepo repositories.PreregistrationRepository,
	roleRepo repositories.RoleRepository,
	logger *zap.Logger,
) PreregistrationService {
	return &preregistrationService{
		preregRepo: preregRepo,
		roleRepo:   roleRepo,
		logger:     logger,
	}
}

func (s *preregistrationService) Create(ctx context.Context, input PreregistrationInput) (*models.Preregistration, error) {
	subject, err := resolveSubject(ctx, s.roleRepo)
	if err != nil {
		return nil, err
	}

	if !authz.CanCreatePreregistration(subject, input.HostUserID) {
		return nil, apperrors.ErrForbidden
	}

	prereg := &models.Preregistration{
		VisitorName:  input.VisitorName,
		VisitorEmail: input.VisitorEmail,
		VisitorPhone: input.VisitorPhone,
		Company:      input.Company,
		HostUserID:   input.HostUserID,
		HostName:     input.HostName,
		HostEmail:    input.HostEmail,
		ExpectedAt:   input.ExpectedAt,
		Purpose:      input.Purpose,
		Notes:        input.Notes,
	}

	if err := s.preregRepo.Create(ctx, prereg); err != nil {
		return nil, err
	}

	s.logger.Info("Preregistration created",
		zap.String("preregistration_id", prereg.ID.String()),
		zap.String("host_user_id", prereg.HostUserID.String()))
	return prereg, nil
}

func (s *preregistrationService) Get(ctx context.Context, id uuid.UUID) (*models.Preregistration, error) {
	subject, err := resolveSubject(ctx, s.roleRepo)
	if err != nil {
		return nil, err
	}

	prereg, err := s.preregRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !authz.CanReadPreregistration(subject, prereg) {
		return nil, apperrors.ErrForbidden
	}

	return prereg, nil
}

func (s *preregistrationService) List(ctx context.Context) ([]*models.Preregistration, error) {
	subject, err := resolveSubject(ctx, s.roleRepo)
	if err != nil {
		return nil, err
	}

	if subject.IsStaff() {
		return s.preregRepo.ListAll(ctx)
	}
	return s.preregRepo.ListByHost(ctx, subject.ID)
}

func (s *preregistrationService) Update(ctx context.Context, id uuid.UUID, input PreregistrationInput) (*models.Preregistration, error) {
	prereg, err := s.getForMutation(ctx, id)
	if err != nil {
		return nil, err
	}

	prereg.VisitorName = input.VisitorName
	prereg.VisitorEmail = input.VisitorEmail
	prereg.VisitorPhone = input.VisitorPhone
	prereg.Company = input.Company
	prereg.ExpectedAt = input.ExpectedAt
	prereg.Purpose = input.Purpose
	prereg.Notes = input.Notes

	if err := s.preregRepo.UpdateDetails(ctx, prereg); err != nil {
		return nil, err
	}

	return prereg, nil
}

func (s *preregistrationService) Transition(ctx context.Context, id uuid.UUID, toStatus string) (*models.Preregistration, error) {
	prereg, err := s.getForMutation(ctx, id)
	if err != nil {
		return nil, err
	}

	if !models.CanTransitionPrereg(prereg.Status, toStatus) {
		return nil, apperrors.ErrInvalidTransition
	}

	if err := s.preregRepo.UpdateStatus(ctx, id, prereg.Status, toStatus); err != nil {
		return nil, err
	}

	prereg.Status = toStatus
	s.logger.Info("Preregistration transitioned",
		zap.String("preregistration_id", id.String()),
		zap.String("status", toStatus))
	return prereg, nil
}

func (s *preregistrationService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.getForMutation(ctx, id); err != nil {
		return err
	}
	return s.preregRepo.Delete(ctx, id)
}

func (s *preregistrationService) ExpireOverdue(ctx context.Context) (int64, error) {
	count, err := s.preregRepo.ExpireOverdue(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Info("Expired overdue preregistrations", zap.Int64("count", count))
	}
	return count, nil
}

// getForMutation loads a row and enforces the host-or-staff mutation policy.
func (s *preregistrationService) getForMutation(ctx context.Context, id uuid.UUID) (*models.Preregistration, error) {
	subject, err := resolveSubject(ctx, s.roleRepo)
	if err != nil {
		return nil, err
	}

	prereg, err := s.preregRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !authz.CanMutatePreregistration(subject, prereg) {
		return nil, apperrors.ErrForbidden
	}

	return prereg, nil
}

// Ensure preregistrationService implements PreregistrationService at compile time.
var _ PreregistrationService = (*preregistrationService)(nil)
