package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/apperrors"
	"github.com/gatehouse-io/gatehouse-engine/pkg/authz"
	"github.com/gatehouse-io/gatehouse-engine/pkg/database"
	"github.com/gatehouse-io/gatehouse-engine/pkg/models"
	"github.com/gatehouse-io/gatehouse-engine/pkg/repositories"
)

// WebhookInput carries the admin-supplied fields of a notification target.
type WebhookInput struct {
	Name             string `json:"name"`
	URL              string `json:"url"`
	Type             string `json:"type"`
	Active           bool   `json:"active"`
	NotifyOnCheckin  bool   `json:"notify_on_checkin"`
	NotifyOnCheckout bool   `json:"notify_on_checkout"`
}

// WebhookService owns webhook configuration. Every operation is admin-only,
// and every mutation writes its audit entry in the same transaction: a
// change that cannot be audited does not happen.
type WebhookService interface {
	Create(ctx context.Context, input WebhookInput) (*models.WebhookConfig, error)
	Get(ctx context.Context, id uuid.UUID) (*models.WebhookConfig, error)
	List(ctx context.Context) ([]*models.WebhookConfig, error)
	Update(ctx context.Context, id uuid.UUID, input WebhookInput) (*models.WebhookConfig, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// webhookService implements WebhookService.
type webhookService struct {
	webhookRepo repositories.WebhookRepository
	roleRepo    repositories.RoleRepository
	auditRepo   repositories.AuditRepository
	tx          database.TxRunner
	logger      *zap.Logger
}

// NewWebhookService creates a new webhook service with dependencies.
func NewWebhookService(
	webhookRepo repositories.WebhookRepository,
	roleRepo repositories.RoleRepository,
	auditRepo repositories.AuditRepository,
	tx database.TxRunner,
	logger *zap.Logger,
) WebhookService {
	return &webhookService{
		webhookRepo: webhookRepo,
		roleRepo:    roleRepo,
		auditRepo:   auditRepo,
		tx:          tx,
		logger:      logger,
	}
}

func (s *webhookService) Create(ctx context.Context, input WebhookInput) (*models.WebhookConfig, error) {
	subject, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	if !models.IsValidWebhookType(input.Type) {
		return nil, fmt.Errorf("%w: invalid webhook type %q", apperrors.ErrConflict, input.Type)
	}

	webhook := &models.WebhookConfig{
		Name:             input.Name,
		URL:              input.URL,
		Type:             input.Type,
		Active:           input.Active,
		NotifyOnCheckin:  input.NotifyOnCheckin,
		NotifyOnCheckout: input.NotifyOnCheckout,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.webhookRepo.Create(ctx, webhook); err != nil {
			return err
		}
		if err := s.auditRepo.Create(ctx, &models.AuditLogEntry{
			ActorID:      &subject.ID,
			Action:       models.AuditActionWebhookCreated,
			ResourceType: models.AuditResourceWebhook,
			ResourceID:   webhook.ID,
			NewValue:     webhook.AuditSnapshot(),
		}); err != nil {
			return fmt.Errorf("audit write failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Webhook created",
		zap.String("webhook_id", webhook.ID.String()),
		zap.String("name", webhook.Name),
		zap.String("type", webhook.Type))
	return webhook, nil
}

func (s *webhookService) Get(ctx context.Context, id uuid.UUID) (*models.WebhookConfig, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.webhookRepo.GetByID(ctx, id)
}

func (s *webhookService) List(ctx context.Context) ([]*models.WebhookConfig, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.webhookRepo.List(ctx)
}

func (s *webhookService) Update(ctx context.Context, id uuid.UUID, input WebhookInput) (*models.WebhookConfig, error) {
	subject, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	if !models.IsValidWebhookType(input.Type) {
		return nil, fmt.Errorf("%w: invalid webhook type %q", apperrors.ErrConflict, input.Type)
	}

	var updated *models.WebhookConfig
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.webhookRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		next := *current
		next.Name = input.Name
		next.URL = input.URL
		next.Type = input.Type
		next.Active = input.Active
		next.NotifyOnCheckin = input.NotifyOnCheckin
		next.NotifyOnCheckout = input.NotifyOnCheckout

		if err := s.webhookRepo.Update(ctx, &next); err != nil {
			return err
		}
		if err := s.auditRepo.Create(ctx, &models.AuditLogEntry{
			ActorID:      &subject.ID,
			Action:       models.AuditActionWebhookUpdated,
			ResourceType: models.AuditResourceWebhook,
			ResourceID:   id,
			OldValue:     current.AuditSnapshot(),
			NewValue:     next.AuditSnapshot(),
		}); err != nil {
			return fmt.Errorf("audit write failed: %w", err)
		}

		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Webhook updated", zap.String("webhook_id", id.String()))
	return updated, nil
}

func (s *webhookService) Delete(ctx context.Context, id uuid.UUID) error {
	subject, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.webhookRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if err := s.webhookRepo.Delete(ctx, id); err != nil {
			return err
		}
		if err := s.auditRepo.Create(ctx, &models.AuditLogEntry{
			ActorID:      &subject.ID,
			Action:       models.AuditActionWebhookDeleted,
			ResourceType: models.AuditResourceWebhook,
			ResourceID:   id,
			OldValue:     current.AuditSnapshot(),
		}); err != nil {
			return fmt.Errorf("audit write failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Webhook deleted", zap.String("webhook_id", id.String()))
	return nil
}

func (s *webhookService) requireAdmin(ctx context.Context) (authz.Subject, error) {
	subject, err := resolveSubject(ctx, s.roleRepo)
	if err != nil {
		return authz.Subject{}, err
	}
	if !authz.CanManageWebhooks(subject) {
		return authz.Subject{}, apperrors.ErrForbidden
	}
	return subject, nil
}

// Ensure webhookService implements WebhookService at compile time.
var _ WebhookService = (*webhookService)(nil)
