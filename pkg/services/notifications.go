package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	libinjection "github.com/corazawaf/libinjection-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/apperrors"
	"github.com/gatehouse-io/gatehouse-engine/pkg/audit"
	"github.com/gatehouse-io/gatehouse-engine/pkg/authz"
	"github.com/gatehouse-io/gatehouse-engine/pkg/notify"
	"github.com/gatehouse-io/gatehouse-engine/pkg/repositories"
)

// VisitorEventInput is the notification request as received from the client.
// Every visitor field is untrusted and is sanitized before dispatch.
type VisitorEventInput struct {
	EventType string     `json:"event_type"`
	VisitorID *uuid.UUID `json:"visitor_id,omitempty"`
	BadgeID   string     `json:"badge_id"`
	Name      string     `json:"name"`
	Company   string     `json:"company"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	HostName  string     `json:"host_name"`
	HostEmail string     `json:"host_email"`
	Purpose   string     `json:"purpose"`
}

// EmailSettings enables the built-in email target alongside configured
// webhooks. Recipients come from server configuration, never from the
// request payload.
type EmailSettings struct {
	Enabled          bool
	NotifyOnCheckin  bool
	NotifyOnCheckout bool
	SMTP             notify.SMTPConfig
}

// NotificationService is the single gate in front of outbound notifications.
// Nothing reaches a webhook or the mail relay without passing through
// NotifyVisitorEvent: authentication, the staff check, visitor existence,
// and input sanitization all happen here, in that order.
type NotificationService interface {
	// NotifyVisitorEvent validates and dispatches one check-in or check-out
	// notification, returning one result per configured target. A request
	// with zero configured targets succeeds with an empty result list.
	NotifyVisitorEvent(ctx context.Context, input VisitorEventInput, clientIP string) ([]notify.Result, error)
}

// notificationService implements NotificationService.
type notificationService struct {
	webhookRepo repositories.WebhookRepository
	visitorRepo repositories.VisitorRepository
	roleRepo    repositories.RoleRepository
	dispatcher  *notify.Dispatcher
	auditor     *audit.SecurityAuditor
	email       EmailSettings
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewNotificationService creates a new notification service with dependencies.
// httpClient may be nil, in which case each webhook target uses a default
// client with a 10 second timeout.
func NewNotificationService(
	webhookRepo repositories.WebhookRepository,
	visitorRepo repositories.VisitorRepository,
	roleRepo repositories.RoleRepository,
	dispatcher *notify.Dispatcher,
	auditor *audit.SecurityAuditor,
	email EmailSettings,
	httpClient *http.Client,
	logger *zap.Logger,
) NotificationService {
	return &notificationService{
		webhookRepo: webhookRepo,
		visitorRepo: visitorRepo,
		roleRepo:    roleRepo,
		dispatcher:  dispatcher,
		auditor:     auditor,
		email:       email,
		httpClient:  httpClient,
		logger:      logger,
	}
}

func (s *notificationService) NotifyVisitorEvent(ctx context.Context, input VisitorEventInput, clientIP string) ([]notify.Result, error) {
	subject, err := resolveSubject(ctx, s.roleRepo)
	if err != nil {
		return nil, err
	}

	if !authz.CanSendNotifications(subject) {
		s.auditor.LogAuthorizationDenied(ctx, "notify_visitor_event", clientIP)
		return nil, apperrors.ErrForbidden
	}

	if input.EventType != notify.EventTypeCheckin && input.EventType != notify.EventTypeCheckout {
		return nil, fmt.Errorf("%w: unknown event type %q", apperrors.ErrConflict, input.EventType)
	}

	// When the request names a visitor record, it must exist. This keeps the
	// notification pipeline from being used to probe or fabricate records.
	if input.VisitorID != nil {
		if _, err := s.visitorRepo.GetByID(ctx, *input.VisitorID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.ErrNotFound
			}
			return nil, err
		}
	}

	event := s.buildEvent(ctx, input, clientIP)

	targets, err := s.resolveTargets(ctx, input.EventType)
	if err != nil {
		return nil, err
	}

	if len(targets) == 0 {
		s.logger.Debug("No notification targets configured",
			zap.String("event_type", input.EventType))
		return []notify.Result{}, nil
	}

	results := s.dispatcher.Dispatch(ctx, targets, event)

	s.logger.Info("Visitor event dispatched",
		zap.String("event_type", input.EventType),
		zap.String("actor_id", subject.ID.String()),
		zap.Int("targets", len(results)))
	return results, nil
}

// buildEvent sanitizes every visitor-supplied field and screens it for
// injection patterns. Flagged input is logged for SIEM review but still
// dispatched: the cleaned and escaped text is safe to render, and dropping
// the notification would hide the visit itself.
func (s *notificationService) buildEvent(ctx context.Context, input VisitorEventInput, clientIP string) *notify.Event {
	details := notify.VisitorDetails{
		BadgeID:   s.screenField(ctx, input, clientIP, "badge_id", input.BadgeID, notify.MaxBadgeLen),
		Name:      s.screenField(ctx, input, clientIP, "name", input.Name, notify.MaxNameLen),
		Company:   s.screenField(ctx, input, clientIP, "company", input.Company, notify.MaxCompanyLen),
		Email:     s.screenField(ctx, input, clientIP, "email", input.Email, notify.MaxEmailLen),
		Phone:     s.screenField(ctx, input, clientIP, "phone", input.Phone, notify.MaxPhoneLen),
		HostName:  s.screenField(ctx, input, clientIP, "host_name", input.HostName, notify.MaxNameLen),
		HostEmail: s.screenField(ctx, input, clientIP, "host_email", input.HostEmail, notify.MaxEmailLen),
		Purpose:   s.screenField(ctx, input, clientIP, "purpose", input.Purpose, notify.MaxPurposeLen),
	}

	return &notify.Event{
		Type:       input.EventType,
		Visitor:    details,
		OccurredAt: time.Now(),
	}
}

// screenField cleans one field and records an audit event when libinjection
// flags it. Returns the cleaned value either way.
func (s *notificationService) screenField(ctx context.Context, input VisitorEventInput, clientIP, fieldName, value string, maxLen int) string {
	cleaned := notify.CleanText(value, maxLen)
	if cleaned == "" {
		return cleaned
	}

	sqli, fingerprint := libinjection.IsSQLi(cleaned)
	xss := libinjection.IsXSS(cleaned)
	if !sqli && !xss {
		return cleaned
	}

	details := audit.SuspiciousInputDetails{
		FieldName:   fieldName,
		FieldValue:  notify.CleanText(cleaned, 200),
		Fingerprint: fingerprint,
	}
	if input.VisitorID != nil {
		details.VisitorID = *input.VisitorID
	}
	s.auditor.LogSuspiciousInput(ctx, details, clientIP)

	return cleaned
}

// resolveTargets loads active webhook configs for the event and appends the
// email target when configuration enables it for this event type.
func (s *notificationService) resolveTargets(ctx context.Context, eventType string) ([]notify.Target, error) {
	configs, err := s.webhookRepo.ListActiveForEvent(ctx, eventType)
	if err != nil {
		return nil, err
	}

	targets := make([]notify.Target, 0, len(configs)+1)
	for _, cfg := range configs {
		targets = append(targets, notify.NewWebhookTarget(cfg.Name, cfg.URL, cfg.Type, s.httpClient))
	}

	if s.emailEnabledFor(eventType) {
		targets = append(targets, notify.NewEmailTarget(s.email.SMTP))
	}

	return targets, nil
}

func (s *notificationService) emailEnabledFor(eventType string) bool {
	if !s.email.Enabled || len(s.email.SMTP.Recipients) == 0 {
		return false
	}
	if eventType == notify.EventTypeCheckout {
		return s.email.NotifyOnCheckout
	}
	return s.email.NotifyOnCheckin
}

// Ensure notificationService implements NotificationService at compile time.
var _ NotificationService = (*notificationService)(nil)
