package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gatehouse-io/gatehouse-engine/pkg/apperrors"
	"github.com/gatehouse-io/gatehouse-engine/pkg/database"
	"github.com/gatehouse-io/gatehouse-engine/pkg/models"
)

const webhookColumns = `id, name, url, type, active, notify_on_checkin,
	notify_on_checkout, created_at, updated_at`

// WebhookRepository defines the interface for webhook configuration data
// access. All callers go through the admin-gated webhook service, except the
// notification gatekeeper which reads active targets with service-level
// credentials.
type WebhookRepository interface {
	Create(ctx context.Context, webhook *models.WebhookConfig) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WebhookConfig, error)
	List(ctx context.Context) ([]*models.WebhookConfig, error)
	Update(ctx context.Context, webhook *models.WebhookConfig) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListActiveForEvent returns active configs whose notify flag matches
	// the event type ("checkin" or "checkout").
	ListActiveForEvent(ctx context.Context, eventType string) ([]*models.WebhookConfig, error)
}

// webhookRepository implements WebhookRepository using PostgreSQL.
type webhookRepository struct{}

// NewWebhookRepository creates a new webhook repository.
func NewWebhookRepository() WebhookRepository {
	return &webhookRepository{}
}

func (r *webhookRepository) Create(ctx context.Context, webhook *models.WebhookConfig) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if webhook.ID == uuid.Nil {
		webhook.ID = uuid.New()
	}
	now := time.Now()
	webhook.CreatedAt = now
	webhook.UpdatedAt = now

	query := `
		INSERT INTO webhook_configs (` + webhookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := scope.Conn.Exec(ctx, query,
		webhook.ID,
		webhook.Name,
		webhook.URL,
		webhook.Type,
		webhook.Active,
		webhook.NotifyOnCheckin,
		webhook.NotifyOnCheckout,
		webhook.CreatedAt,
		webhook.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create webhook config: %w", err)
	}

	return nil
}

func (r *webhookRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WebhookConfig, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + webhookColumns + ` FROM webhook_configs WHERE id = $1`
	return scanWebhook(scope.Conn.QueryRow(ctx, query, id))
}

func (r *webhookRepository) List(ctx context.Context) ([]*models.WebhookConfig, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + webhookColumns + ` FROM webhook_configs ORDER BY created_at`

	rows, err := scope.Conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook configs: %w", err)
	}
	defer rows.Close()

	return collectWebhooks(rows)
}

func (r *webhookRepository) Update(ctx context.Context, webhook *models.WebhookConfig) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	webhook.UpdatedAt = time.Now()

	query := `
		UPDATE webhook_configs
		SET name = $1, url = $2, type = $3, active = $4,
		    notify_on_checkin = $5, notify_on_checkout = $6, updated_at = $7
		WHERE id = $8`

	result, err := scope.Conn.Exec(ctx, query,
		webhook.Name,
		webhook.URL,
		webhook.Type,
		webhook.Active,
		webhook.NotifyOnCheckin,
		webhook.NotifyOnCheckout,
		webhook.UpdatedAt,
		webhook.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update webhook config: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *webhookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `DELETE FROM webhook_configs WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete webhook config: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *webhookRepository) ListActiveForEvent(ctx context.Context, eventType string) ([]*models.WebhookConfig, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	flag := "notify_on_checkin"
	if eventType == "checkout" {
		flag = "notify_on_checkout"
	}

	query := `SELECT ` + webhookColumns + ` FROM webhook_configs WHERE active AND ` + flag + ` ORDER BY created_at`

	rows, err := scope.Conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active webhook configs: %w", err)
	}
	defer rows.Close()

	return collectWebhooks(rows)
}

func scanWebhook(row pgx.Row) (*models.WebhookConfig, error) {
	var webhook models.WebhookConfig
	err := row.Scan(
		&webhook.ID,
		&webhook.Name,
		&webhook.URL,
		&webhook.Type,
		&webhook.Active,
		&webhook.NotifyOnCheckin,
		&webhook.NotifyOnCheckout,
		&webhook.CreatedAt,
		&webhook.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan webhook config: %w", err)
	}
	return &webhook, nil
}

func collectWebhooks(rows pgx.Rows) ([]*models.WebhookConfig, error) {
	var webhooks []*models.WebhookConfig
	for rows.Next() {
		webhook, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		webhooks = append(webhooks, webhook)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating webhook configs: %w", err)
	}

	return webhooks, nil
}

// Ensure webhookRepository implements WebhookRepository at compile time.
var _ WebhookRepository = (*webhookRepository)(nil)
