package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/apperrors"
	"github.com/gatehouse-io/gatehouse-engine/pkg/models"
)

func newWebhookServiceForTest() (WebhookService, *mockWebhookRepository, *mockRoleRepository, *mockAuditRepository) {
	webhookRepo := newMockWebhookRepository()
	roleRepo := newMockRoleRepository()
	auditRepo := &mockAuditRepository{}
	svc := NewWebhookService(webhookRepo, roleRepo, auditRepo, &stubTx{}, zap.NewNop())
	return svc, webhookRepo, roleRepo, auditRepo
}

func TestWebhookService_Create_AuditsWithoutSecretURL(t *testing.T) {
	svc, _, roleRepo, auditRepo := newWebhookServiceForTest()

	adminID := uuid.New()
	roleRepo.setRole(adminID, models.RoleAdmin)

	webhook, err := svc.Create(authedContext(adminID, "", ""), WebhookInput{
		Name:            "Front Desk Slack",
		URL:             "https://hooks.slack.com/services/T000/B000/secret-token",
		Type:            models.WebhookTypeSlack,
		Active:          true,
		NotifyOnCheckin: true,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, webhook.ID)

	require.Len(t, auditRepo.entries, 1)
	entry := auditRepo.entries[0]
	assert.Equal(t, models.AuditActionWebhookCreated, entry.Action)
	assert.Equal(t, models.AuditResourceWebhook, entry.ResourceType)
	assert.Equal(t, webhook.ID, entry.ResourceID)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, adminID, *entry.ActorID)

	// The snapshot carries the host only, never the token-bearing URL.
	assert.Equal(t, "hooks.slack.com", entry.NewValue["url_host"])
	for _, v := range entry.NewValue {
		if s, ok := v.(string); ok {
			assert.NotContains(t, s, "secret-token")
		}
	}
}

func TestWebhookService_Create_NonAdminForbidden(t *testing.T) {
	svc, _, roleRepo, _ := newWebhookServiceForTest()

	staffID := uuid.New()
	roleRepo.setRole(staffID, models.RoleReceptionist)

	_, err := svc.Create(authedContext(staffID, "", ""), WebhookInput{
		Name: "Nope",
		URL:  "https://example.com/hook",
		Type: models.WebhookTypeSlack,
	})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestWebhookService_Create_InvalidType(t *testing.T) {
	svc, _, roleRepo, _ := newWebhookServiceForTest()

	adminID := uuid.New()
	roleRepo.setRole(adminID, models.RoleAdmin)

	_, err := svc.Create(authedContext(adminID, "", ""), WebhookInput{
		Name: "Bad",
		URL:  "https://example.com/hook",
		Type: "discord",
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestWebhookService_Update_AuditsOldAndNew(t *testing.T) {
	svc, webhookRepo, roleRepo, auditRepo := newWebhookServiceForTest()

	adminID := uuid.New()
	roleRepo.setRole(adminID, models.RoleAdmin)

	existing := &models.WebhookConfig{
		Name:   "Old Name",
		URL:    "https://hooks.slack.com/services/old",
		Type:   models.WebhookTypeSlack,
		Active: true,
	}
	webhookRepo.addWebhook(existing)

	updated, err := svc.Update(authedContext(adminID, "", ""), existing.ID, WebhookInput{
		Name:             "New Name",
		URL:              "https://example.webhook.office.com/hook",
		Type:             models.WebhookTypeTeams,
		Active:           false,
		NotifyOnCheckout: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)

	require.Len(t, auditRepo.entries, 1)
	entry := auditRepo.entries[0]
	assert.Equal(t, models.AuditActionWebhookUpdated, entry.Action)
	assert.Equal(t, "Old Name", entry.OldValue["name"])
	assert.Equal(t, "New Name", entry.NewValue["name"])
	assert.Equal(t, "example.webhook.office.com", entry.NewValue["url_host"])
}

func TestWebhookService_Delete_AuditsOldSnapshot(t *testing.T) {
	svc, webhookRepo, roleRepo, auditRepo := newWebhookServiceForTest()

	adminID := uuid.New()
	roleRepo.setRole(adminID, models.RoleAdmin)

	existing := &models.WebhookConfig{
		Name: "Doomed",
		URL:  "https://hooks.slack.com/services/x",
		Type: models.WebhookTypeSlack,
	}
	webhookRepo.addWebhook(existing)

	err := svc.Delete(authedContext(adminID, "", ""), existing.ID)
	require.NoError(t, err)

	_, exists := webhookRepo.webhooks[existing.ID]
	assert.False(t, exists)

	require.Len(t, auditRepo.entries, 1)
	entry := auditRepo.entries[0]
	assert.Equal(t, models.AuditActionWebhookDeleted, entry.Action)
	assert.Equal(t, "Doomed", entry.OldValue["name"])
	assert.Nil(t, entry.NewValue)
}

func TestWebhookService_Delete_Missing(t *testing.T) {
	svc, _, roleRepo, _ := newWebhookServiceForTest()

	adminID := uuid.New()
	roleRepo.setRole(adminID, models.RoleAdmin)

	err := svc.Delete(authedContext(adminID, "", ""), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestWebhookService_FailedAuditAbortsMutation(t *testing.T) {
	svc, _, roleRepo, auditRepo := newWebhookServiceForTest()

	adminID := uuid.New()
	roleRepo.setRole(adminID, models.RoleAdmin)
	auditRepo.createErr = errors.New("audit store unavailable")

	_, err := svc.Create(authedContext(adminID, "", ""), WebhookInput{
		Name: "Unaudited",
		URL:  "https://example.com/hook",
		Type: models.WebhookTypeSlack,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit write failed")
}

func TestWebhookService_ReadsAreAdminOnly(t *testing.T) {
	svc, webhookRepo, roleRepo, _ := newWebhookServiceForTest()

	staffID := uuid.New()
	roleRepo.setRole(staffID, models.RoleReceptionist)
	webhookRepo.addWebhook(&models.WebhookConfig{Name: "W", URL: "https://x", Type: models.WebhookTypeSlack})

	_, err := svc.List(authedContext(staffID, "", ""))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
