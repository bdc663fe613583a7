package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/apperrors"
	"github.com/gatehouse-io/gatehouse-engine/pkg/models"
)

func TestAuditHandler_List(t *testing.T) {
	svc := &mockAuditService{entries: []*models.AuditLogEntry{
		{ID: uuid.New(), Action: models.AuditActionRoleAssigned, ResourceType: models.AuditResourceRole},
	}}
	handler := NewAuditHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/audit?resource_type=role&limit=10&offset=5", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "role", svc.lastFilters.ResourceType)
	assert.Equal(t, 10, svc.lastFilters.Limit)
	assert.Equal(t, 5, svc.lastFilters.Offset)

	var body map[string][]*models.AuditLogEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body["entries"], 1)
}

func TestAuditHandler_List_BadActorID(t *testing.T) {
	handler := NewAuditHandler(&mockAuditService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/audit?actor_id=oops", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditHandler_List_BadLimit(t *testing.T) {
	handler := NewAuditHandler(&mockAuditService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/audit?limit=-1", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditHandler_List_Forbidden(t *testing.T) {
	svc := &mockAuditService{err: apperrors.ErrForbidden}
	handler := NewAuditHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/audit", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuditHandler_ListByResource(t *testing.T) {
	resourceID := uuid.New()
	svc := &mockAuditService{entries: []*models.AuditLogEntry{
		{ID: uuid.New(), Action: models.AuditActionWebhookUpdated, ResourceType: models.AuditResourceWebhook, ResourceID: resourceID},
	}}
	handler := NewAuditHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/audit/webhook/"+resourceID.String(), nil)
	req.SetPathValue("resourceType", "webhook")
	req.SetPathValue("id", resourceID.String())
	rec := httptest.NewRecorder()
	handler.ListByResource(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]*models.AuditLogEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body["entries"], 1)
	assert.Equal(t, resourceID, body["entries"][0].ResourceID)
}

func TestAuditHandler_ListByResource_BadID(t *testing.T) {
	handler := NewAuditHandler(&mockAuditService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/audit/webhook/nope", nil)
	req.SetPathValue("resourceType", "webhook")
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()
	handler.ListByResource(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
