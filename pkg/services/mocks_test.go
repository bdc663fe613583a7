package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse-engine/pkg/apperrors"
	"github.com/gatehouse-io/gatehouse-engine/pkg/auth"
	"github.com/gatehouse-io/gatehouse-engine/pkg/models"
	"github.com/gatehouse-io/gatehouse-engine/pkg/repositories"
)

// authedContext builds a request context carrying claims for the given
// principal, the way the auth middleware would.
func authedContext(userID uuid.UUID, email, name string) context.Context {
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
		Email:            email,
		Name:             name,
	}
	return context.WithValue(context.Background(), auth.ClaimsKey, claims)
}

// stubTx runs the function directly with the unchanged context. Mocks keep
// their state in memory, so no real transaction scope is needed.
type stubTx struct {
	beginErr error
}

func (s *stubTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.beginErr != nil {
		return s.beginErr
	}
	return fn(ctx)
}

// mockRoleRepository keeps role assignments in a map keyed by user ID.
type mockRoleRepository struct {
	assignments map[uuid.UUID]*models.RoleAssignment
	getErr      error
	insertErr   error
	deleteErr   error
}

func newMockRoleRepository() *mockRoleRepository {
	return &mockRoleRepository{assignments: make(map[uuid.UUID]*models.RoleAssignment)}
}

func (m *mockRoleRepository) setRole(userID uuid.UUID, role models.Role) {
	m.assignments[userID] = &models.RoleAssignment{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now(),
	}
}

func (m *mockRoleRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.RoleAssignment, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	assignment, ok := m.assignments[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return assignment, nil
}

func (m *mockRoleRepository) Insert(ctx context.Context, assignment *models.RoleAssignment) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	if _, exists := m.assignments[assignment.UserID]; exists {
		return errors.New("duplicate role assignment")
	}
	m.assignments[assignment.UserID] = assignment
	return nil
}

func (m *mockRoleRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.assignments[userID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.assignments, userID)
	return nil
}

func (m *mockRoleRepository) Any(ctx context.Context) (bool, error) {
	return len(m.assignments) > 0, nil
}

func (m *mockRoleRepository) List(ctx context.Context) ([]*models.RoleAssignment, error) {
	var result []*models.RoleAssignment
	for _, a := range m.assignments {
		result = append(result, a)
	}
	return result, nil
}

// mockProfileRepository keeps profiles in a map keyed by ID.
type mockProfileRepository struct {
	profiles  map[uuid.UUID]*models.Profile
	upsertErr error
}

func newMockProfileRepository() *mockProfileRepository {
	return &mockProfileRepository{profiles: make(map[uuid.UUID]*models.Profile)}
}

func (m *mockProfileRepository) addProfile(id uuid.UUID, email string) {
	m.profiles[id] = &models.Profile{ID: id, Email: email, CreatedAt: time.Now()}
}

func (m *mockProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.profiles[profile.ID] = profile
	return nil
}

func (m *mockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	profile, ok := m.profiles[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return profile, nil
}

func (m *mockProfileRepository) List(ctx context.Context) ([]*models.Profile, error) {
	var result []*models.Profile
	for _, p := range m.profiles {
		result = append(result, p)
	}
	return result, nil
}

// mockAuditRepository records entries in memory. createErr simulates a failed
// audit write so tests can assert the surrounding transaction aborts.
type mockAuditRepository struct {
	entries   []*models.AuditLogEntry
	createErr error
}

func (m *mockAuditRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepository) List(ctx context.Context, filters repositories.AuditFilters) ([]*models.AuditLogEntry, error) {
	var result []*models.AuditLogEntry
	for _, e := range m.entries {
		if filters.Action != "" && e.Action != filters.Action {
			continue
		}
		if filters.ResourceType != "" && e.ResourceType != filters.ResourceType {
			continue
		}
		if filters.ActorID != nil && (e.ActorID == nil || *e.ActorID != *filters.ActorID) {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

func (m *mockAuditRepository) ListByResource(ctx context.Context, resourceType string, resourceID uuid.UUID) ([]*models.AuditLogEntry, error) {
	var result []*models.AuditLogEntry
	for _, e := range m.entries {
		if e.ResourceType == resourceType && e.ResourceID == resourceID {
			result = append(result, e)
		}
	}
	return result, nil
}

// mockVisitorRepository keeps visitor records in a map keyed by ID.
type mockVisitorRepository struct {
	visitors  map[uuid.UUID]*models.Visitor
	createErr error
}

func newMockVisitorRepository() *mockVisitorRepository {
	return &mockVisitorRepository{visitors: make(map[uuid.UUID]*models.Visitor)}
}

func (m *mockVisitorRepository) addVisitor(v *models.Visitor) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Status == "" {
		v.Status = models.VisitorStatusCheckedIn
	}
	m.visitors[v.ID] = v
}

func (m *mockVisitorRepository) Create(ctx context.Context, visitor *models.Visitor) error {
	if m.createErr != nil {
		return m.createErr
	}
	if visitor.ID == uuid.Nil {
		visitor.ID = uuid.New()
	}
	visitor.Status = models.VisitorStatusCheckedIn
	if visitor.CheckInTime.IsZero() {
		visitor.CheckInTime = time.Now()
	}
	m.visitors[visitor.ID] = visitor
	return nil
}

func (m *mockVisitorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Visitor, error) {
	visitor, ok := m.visitors[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copy := *visitor
	return &copy, nil
}

func (m *mockVisitorRepository) GetByBadge(ctx context.Context, badgeID string) (*models.Visitor, error) {
	for _, v := range m.visitors {
		if v.BadgeID == badgeID {
			copy := *v
			return &copy, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockVisitorRepository) ListAll(ctx context.Context) ([]*models.Visitor, error) {
	var result []*models.Visitor
	for _, v := range m.visitors {
		result = append(result, v)
	}
	return result, nil
}

func (m *mockVisitorRepository) ListCreatedBy(ctx context.Context, userID uuid.UUID) ([]*models.Visitor, error) {
	var result []*models.Visitor
	for _, v := range m.visitors {
		if v.CreatedBy != nil && *v.CreatedBy == userID {
			result = append(result, v)
		}
	}
	return result, nil
}

func (m *mockVisitorRepository) CheckOut(ctx context.Context, id uuid.UUID, at time.Time) error {
	visitor, ok := m.visitors[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if visitor.Status != models.VisitorStatusCheckedIn {
		return apperrors.ErrAlreadyCheckedOut
	}
	visitor.Status = models.VisitorStatusCheckedOut
	visitor.CheckOutTime = &at
	return nil
}

// mockPreregRepository keeps pre-registrations in a map keyed by ID.
type mockPreregRepository struct {
	preregs map[uuid.UUID]*models.Preregistration
}

func newMockPreregRepository() *mockPreregRepository {
	return &mockPreregRepository{preregs: make(map[uuid.UUID]*models.Preregistration)}
}

func (m *mockPreregRepository) addPrereg(p *models.Preregistration) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = models.PreregStatusPending
	}
	m.preregs[p.ID] = p
}

func (m *mockPreregRepository) Create(ctx context.Context, prereg *models.Preregistration) error {
	if prereg.ID == uuid.Nil {
		prereg.ID = uuid.New()
	}
	prereg.Status = models.PreregStatusPending
	m.preregs[prereg.ID] = prereg
	return nil
}

func (m *mockPreregRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Preregistration, error) {
	prereg, ok := m.preregs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copy := *prereg
	return &copy, nil
}

func (m *mockPreregRepository) ListByHost(ctx context.Context, hostUserID uuid.UUID) ([]*models.Preregistration, error) {
	var result []*models.Preregistration
	for _, p := range m.preregs {
		if p.HostUserID == hostUserID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockPreregRepository) ListAll(ctx context.Context) ([]*models.Preregistration, error) {
	var result []*models.Preregistration
	for _, p := range m.preregs {
		result = append(result, p)
	}
	return result, nil
}

func (m *mockPreregRepository) UpdateStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string) error {
	prereg, ok := m.preregs[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if prereg.Status != fromStatus {
		return apperrors.ErrInvalidTransition
	}
	prereg.Status = toStatus
	return nil
}

func (m *mockPreregRepository) UpdateDetails(ctx context.Context, prereg *models.Preregistration) error {
	if _, ok := m.preregs[prereg.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.preregs[prereg.ID] = prereg
	return nil
}

func (m *mockPreregRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.preregs[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.preregs, id)
	return nil
}

func (m *mockPreregRepository) ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	for _, p := range m.preregs {
		if p.Status == models.PreregStatusPending && p.ExpectedAt.Before(cutoff) {
			p.Status = models.PreregStatusExpired
			count++
		}
	}
	return count, nil
}

// mockWebhookRepository keeps webhook configs in a map keyed by ID.
type mockWebhookRepository struct {
	webhooks  map[uuid.UUID]*models.WebhookConfig
	createErr error
	listErr   error
}

func newMockWebhookRepository() *mockWebhookRepository {
	return &mockWebhookRepository{webhooks: make(map[uuid.UUID]*models.WebhookConfig)}
}

func (m *mockWebhookRepository) addWebhook(w *models.WebhookConfig) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	m.webhooks[w.ID] = w
}

func (m *mockWebhookRepository) Create(ctx context.Context, webhook *models.WebhookConfig) error {
	if m.createErr != nil {
		return m.createErr
	}
	if webhook.ID == uuid.Nil {
		webhook.ID = uuid.New()
	}
	now := time.Now()
	webhook.CreatedAt = now
	webhook.UpdatedAt = now
	m.webhooks[webhook.ID] = webhook
	return nil
}

func (m *mockWebhookRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WebhookConfig, error) {
	webhook, ok := m.webhooks[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copy := *webhook
	return &copy, nil
}

func (m *mockWebhookRepository) List(ctx context.Context) ([]*models.WebhookConfig, error) {
	var result []*models.WebhookConfig
	for _, w := range m.webhooks {
		result = append(result, w)
	}
	return result, nil
}

func (m *mockWebhookRepository) Update(ctx context.Context, webhook *models.WebhookConfig) error {
	if _, ok := m.webhooks[webhook.ID]; !ok {
		return apperrors.ErrNotFound
	}
	webhook.UpdatedAt = time.Now()
	m.webhooks[webhook.ID] = webhook
	return nil
}

func (m *mockWebhookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.webhooks[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.webhooks, id)
	return nil
}

func (m *mockWebhookRepository) ListActiveForEvent(ctx context.Context, eventType string) ([]*models.WebhookConfig, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*models.WebhookConfig
	for _, w := range m.webhooks {
		if !w.Active {
			continue
		}
		if eventType == "checkout" && !w.NotifyOnCheckout {
			continue
		}
		if eventType == "checkin" && !w.NotifyOnCheckin {
			continue
		}
		result = append(result, w)
	}
	return result, nil
}

// Compile-time checks that the mocks satisfy the repository interfaces.
var (
	_ repositories.RoleRepository            = (*mockRoleRepository)(nil)
	_ repositories.ProfileRepository         = (*mockProfileRepository)(nil)
	_ repositories.AuditRepository           = (*mockAuditRepository)(nil)
	_ repositories.VisitorRepository         = (*mockVisitorRepository)(nil)
	_ repositories.PreregistrationRepository = (*mockPreregRepository)(nil)
	_ repositories.WebhookRepository         = (*mockWebhookRepository)(nil)
)
