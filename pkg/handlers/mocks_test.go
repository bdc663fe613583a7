package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse-engine/pkg/models"
	"github.com/gatehouse-io/gatehouse-engine/pkg/notify"
	"github.com/gatehouse-io/gatehouse-engine/pkg/repositories"
	"github.com/gatehouse-io/gatehouse-engine/pkg/services"
)

// mockNotificationService is a configurable mock for notification handler
// tests. It records the input it was called with.
type mockNotificationService struct {
	results   []notify.Result
	err       error
	lastInput services.VisitorEventInput
	called    bool
}

func (m *mockNotificationService) NotifyVisitorEvent(ctx context.Context, input services.VisitorEventInput, clientIP string) ([]notify.Result, error) {
	m.called = true
	m.lastInput = input
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// mockRoleService is a configurable mock for user/role handler tests.
type mockRoleService struct {
	role  models.Role
	users []*services.UserWithRole
	err   error

	setRoleCalled bool
	lastTargetID  uuid.UUID
	lastRole      models.Role
}

func (m *mockRoleService) GetRole(ctx context.Context, targetID uuid.UUID) (models.Role, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.role, nil
}

func (m *mockRoleService) SetRole(ctx context.Context, targetID uuid.UUID, newRole models.Role) error {
	m.setRoleCalled = true
	m.lastTargetID = targetID
	m.lastRole = newRole
	return m.err
}

func (m *mockRoleService) ClearRole(ctx context.Context, targetID uuid.UUID) error {
	m.lastTargetID = targetID
	return m.err
}

func (m *mockRoleService) ListUsers(ctx context.Context) ([]*services.UserWithRole, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users, nil
}

// mockVisitorService is a configurable mock for visitor handler tests.
type mockVisitorService struct {
	visitor  *models.Visitor
	visitors []*models.Visitor
	err      error
}

func (m *mockVisitorService) CheckIn(ctx context.Context, input services.CheckInInput) (*models.Visitor, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.visitor, nil
}

func (m *mockVisitorService) Get(ctx context.Context, id uuid.UUID) (*models.Visitor, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.visitor, nil
}

func (m *mockVisitorService) GetByBadge(ctx context.Context, badgeID string) (*models.Visitor, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.visitor, nil
}

func (m *mockVisitorService) List(ctx context.Context) ([]*models.Visitor, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.visitors, nil
}

func (m *mockVisitorService) CheckOut(ctx context.Context, id uuid.UUID) (*models.Visitor, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.visitor, nil
}

// mockOnboardingService is a mock for the identity endpoint.
type mockOnboardingService struct {
	profile *models.Profile
	role    models.Role
	err     error
}

func (m *mockOnboardingService) Provision(ctx context.Context) (*models.Profile, models.Role, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.profile, m.role, nil
}

// mockAuditService is a mock for audit log handler tests.
type mockAuditService struct {
	entries []*models.AuditLogEntry
	err     error

	lastFilters repositories.AuditFilters
}

func (m *mockAuditService) List(ctx context.Context, filters repositories.AuditFilters) ([]*models.AuditLogEntry, error) {
	m.lastFilters = filters
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

func (m *mockAuditService) ListByResource(ctx context.Context, resourceType string, resourceID uuid.UUID) ([]*models.AuditLogEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

// Compile-time interface checks for the mocks.
var (
	_ services.NotificationService = (*mockNotificationService)(nil)
	_ services.RoleService         = (*mockRoleService)(nil)
	_ services.VisitorService      = (*mockVisitorService)(nil)
	_ services.OnboardingService   = (*mockOnboardingService)(nil)
	_ services.AuditService        = (*mockAuditService)(nil)
)
