package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-io/gatehouse-engine/pkg/apperrors"
	"github.com/gatehouse-io/gatehouse-engine/pkg/database"
	"github.com/gatehouse-io/gatehouse-engine/pkg/models"
	"github.com/gatehouse-io/gatehouse-engine/pkg/repositories"
	"github.com/gatehouse-io/gatehouse-engine/pkg/testhelpers"
)

// scopedContext binds the shared test pool into the context the way the HTTP
// middleware does for requests.
func scopedContext(t *testing.T) context.Context {
	t.Helper()
	db := testhelpers.GetEngineDB(t)
	return database.SetScope(context.Background(), &database.Scope{Conn: db.DB.Pool})
}

func createTestProfile(t *testing.T, ctx context.Context) *models.Profile {
	t.Helper()
	profile := &models.Profile{
		ID:          uuid.New(),
		Email:       uuid.NewString() + "@example.com",
		DisplayName: "Test Principal",
	}
	require.NoError(t, repositories.NewProfileRepository().Upsert(ctx, profile))
	return profile
}

func TestRoleRepository_Lifecycle(t *testing.T) {
	ctx := scopedContext(t)
	repo := repositories.NewRoleRepository()
	profile := createTestProfile(t, ctx)

	_, err := repo.GetByUserID(ctx, profile.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, repo.Insert(ctx, &models.RoleAssignment{
		UserID: profile.ID,
		Role:   models.RoleReceptionist,
	}))

	assignment, err := repo.GetByUserID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleReceptionist, assignment.Role)
	assert.False(t, assignment.CreatedAt.IsZero())

	// One assignment per principal: the unique constraint rejects a second.
	err = repo.Insert(ctx, &models.RoleAssignment{
		UserID: profile.ID,
		Role:   models.RoleAdmin,
	})
	assert.Error(t, err)

	require.NoError(t, repo.DeleteByUserID(ctx, profile.ID))
	assert.ErrorIs(t, repo.DeleteByUserID(ctx, profile.ID), apperrors.ErrNotFound)
}

func TestRoleRepository_Any(t *testing.T) {
	ctx := scopedContext(t)
	repo := repositories.NewRoleRepository()
	profile := createTestProfile(t, ctx)

	require.NoError(t, repo.Insert(ctx, &models.RoleAssignment{
		UserID: profile.ID,
		Role:   models.RoleAdmin,
	}))
	t.Cleanup(func() { _ = repo.DeleteByUserID(ctx, profile.ID) })

	any, err := repo.Any(ctx)
	require.NoError(t, err)
	assert.True(t, any)
}

func TestVisitorRepository_CheckOutOnce(t *testing.T) {
	ctx := scopedContext(t)
	repo := repositories.NewVisitorRepository()
	staff := createTestProfile(t, ctx)

	visitor := &models.Visitor{
		BadgeID:   "badge-" + uuid.NewString(),
		Name:      "Ada Visitor",
		HostName:  "Grace Host",
		CreatedBy: &staff.ID,
	}
	require.NoError(t, repo.Create(ctx, visitor))

	got, err := repo.GetByBadge(ctx, visitor.BadgeID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStatusCheckedIn, got.Status)
	assert.Nil(t, got.CheckOutTime)
	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, staff.ID, *got.CreatedBy)

	require.NoError(t, repo.CheckOut(ctx, visitor.ID, time.Now()))

	got, err = repo.GetByID(ctx, visitor.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStatusCheckedOut, got.Status)
	assert.NotNil(t, got.CheckOutTime)

	// The second check-out finds no checked_in row to update.
	assert.ErrorIs(t, repo.CheckOut(ctx, visitor.ID, time.Now()), apperrors.ErrAlreadyCheckedOut)
}

func TestVisitorRepository_BadgeUnique(t *testing.T) {
	ctx := scopedContext(t)
	repo := repositories.NewVisitorRepository()

	badge := "badge-" + uuid.NewString()
	require.NoError(t, repo.Create(ctx, &models.Visitor{BadgeID: badge, Name: "First"}))
	assert.Error(t, repo.Create(ctx, &models.Visitor{BadgeID: badge, Name: "Second"}))
}

func TestVisitorRepository_GetMissing(t *testing.T) {
	ctx := scopedContext(t)
	repo := repositories.NewVisitorRepository()

	_, err := repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = repo.GetByBadge(ctx, "no-such-badge-"+uuid.NewString())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAuditRepository_AppendOnly(t *testing.T) {
	ctx := scopedContext(t)
	repo := repositories.NewAuditRepository()
	actor := createTestProfile(t, ctx)

	entry := &models.AuditLogEntry{
		ActorID:      &actor.ID,
		Action:       models.AuditActionRoleAssigned,
		ResourceType: models.AuditResourceRole,
		ResourceID:   uuid.New(),
		NewValue:     map[string]any{"role": "admin"},
		Metadata:     map[string]any{"bootstrap": true},
	}
	require.NoError(t, repo.Create(ctx, entry))

	scope, _ := database.GetScope(ctx)

	// UPDATE and DELETE are rewritten to no-ops by the table rules, so the
	// entry survives both untouched.
	tag, err := scope.Conn.Exec(ctx, `UPDATE audit_log SET action = 'tampered' WHERE id = $1`, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), tag.RowsAffected())

	tag, err = scope.Conn.Exec(ctx, `DELETE FROM audit_log WHERE id = $1`, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), tag.RowsAffected())

	entries, err := repo.ListByResource(ctx, models.AuditResourceRole, entry.ResourceID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditActionRoleAssigned, entries[0].Action)
	assert.Equal(t, "admin", entries[0].NewValue["role"])
	assert.Equal(t, true, entries[0].Metadata["bootstrap"])
}

func TestAuditRepository_ListFilters(t *testing.T) {
	ctx := scopedContext(t)
	repo := repositories.NewAuditRepository()
	actor := createTestProfile(t, ctx)

	resourceID := uuid.New()
	require.NoError(t, repo.Create(ctx, &models.AuditLogEntry{
		ActorID:      &actor.ID,
		Action:       models.AuditActionWebhookCreated,
		ResourceType: models.AuditResourceWebhook,
		ResourceID:   resourceID,
	}))

	entries, err := repo.List(ctx, repositories.AuditFilters{ActorID: &actor.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, resourceID, entries[0].ResourceID)

	entries, err = repo.List(ctx, repositories.AuditFilters{
		Action:  models.AuditActionWebhookCreated,
		ActorID: &actor.ID,
	})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	entries, err = repo.List(ctx, repositories.AuditFilters{
		Action:  models.AuditActionWebhookDeleted,
		ActorID: &actor.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPreregistrationRepository_StatusRace(t *testing.T) {
	ctx := scopedContext(t)
	repo := repositories.NewPreregistrationRepository()
	host := createTestProfile(t, ctx)

	prereg := &models.Preregistration{
		VisitorName: "Expected Guest",
		HostUserID:  host.ID,
		ExpectedAt:  time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, prereg))
	assert.Equal(t, models.PreregStatusPending, prereg.Status)

	require.NoError(t, repo.UpdateStatus(ctx, prereg.ID,
		models.PreregStatusPending, models.PreregStatusCancelled))

	// The WHERE clause re-checks the expected current status, so a stale
	// transition out of pending finds nothing to update.
	err := repo.UpdateStatus(ctx, prereg.ID,
		models.PreregStatusPending, models.PreregStatusCheckedIn)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestPreregistrationRepository_ExpireOverdue(t *testing.T) {
	ctx := scopedContext(t)
	repo := repositories.NewPreregistrationRepository()
	host := createTestProfile(t, ctx)

	overdue := &models.Preregistration{
		VisitorName: "Late Guest",
		HostUserID:  host.ID,
		ExpectedAt:  time.Now().Add(-2 * time.Hour),
	}
	upcoming := &models.Preregistration{
		VisitorName: "Future Guest",
		HostUserID:  host.ID,
		ExpectedAt:  time.Now().Add(2 * time.Hour),
	}
	require.NoError(t, repo.Create(ctx, overdue))
	require.NoError(t, repo.Create(ctx, upcoming))

	count, err := repo.ExpireOverdue(ctx, time.Now())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, int64(1))

	got, err := repo.GetByID(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PreregStatusExpired, got.Status)

	got, err = repo.GetByID(ctx, upcoming.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PreregStatusPending, got.Status)
}

func TestWebhookRepository_Lifecycle(t *testing.T) {
	ctx := scopedContext(t)
	repo := repositories.NewWebhookRepository()

	webhook := &models.WebhookConfig{
		Name:            "integration-" + uuid.NewString(),
		URL:             "https://hooks.slack.com/services/T/B/x",
		Type:            models.WebhookTypeSlack,
		Active:          true,
		NotifyOnCheckin: true,
	}
	require.NoError(t, repo.Create(ctx, webhook))

	active, err := repo.ListActiveForEvent(ctx, "checkin")
	require.NoError(t, err)
	found := false
	for _, w := range active {
		if w.ID == webhook.ID {
			found = true
		}
	}
	assert.True(t, found, "created webhook should be active for checkin")

	webhook.Active = false
	require.NoError(t, repo.Update(ctx, webhook))

	active, err = repo.ListActiveForEvent(ctx, "checkin")
	require.NoError(t, err)
	for _, w := range active {
		assert.NotEqual(t, webhook.ID, w.ID, "inactive webhook must not be listed")
	}

	require.NoError(t, repo.Delete(ctx, webhook.ID))
	_, err = repo.GetByID(ctx, webhook.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
