package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gatehouse-io/gatehouse-engine/pkg/database"
	"github.com/gatehouse-io/gatehouse-engine/pkg/models"
)

// AuditFilters narrows audit log listings.
type AuditFilters struct {
	Action       string
	ResourceType string
	ActorID      *uuid.UUID
	Limit        int
	Offset       int
}

// AuditRepository provides data access for the audit log. The interface has
// no update or delete methods: the log is append-only from every code path,
// including admin-facing ones.
type AuditRepository interface {
	// Create inserts a new audit log entry. Callers invoke it inside the
	// same transaction as the mutation being audited, so a failed audit
	// write rolls the mutation back.
	Create(ctx context.Context, entry *models.AuditLogEntry) error

	// List returns entries matching the filters, newest first.
	List(ctx context.Context, filters AuditFilters) ([]*models.AuditLogEntry, error)

	// ListByResource returns all entries for one resource, newest first.
	ListByResource(ctx context.Context, resourceType string, resourceID uuid.UUID) ([]*models.AuditLogEntry, error)
}

type auditRepository struct{}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository() AuditRepository {
	return &auditRepository{}
}

var _ AuditRepository = (*auditRepository)(nil)

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()

	oldJSON, err := marshalSnapshot(entry.OldValue)
	if err != nil {
		return fmt.Errorf("failed to marshal old_value: %w", err)
	}
	newJSON, err := marshalSnapshot(entry.NewValue)
	if err != nil {
		return fmt.Errorf("failed to marshal new_value: %w", err)
	}
	metaJSON, err := marshalSnapshot(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO audit_log (
			id, created_at, actor_id, action, resource_type, resource_id, old_value, new_value, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = scope.Conn.Exec(ctx, query,
		entry.ID,
		entry.CreatedAt,
		entry.ActorID,
		entry.Action,
		entry.ResourceType,
		entry.ResourceID,
		oldJSON,
		newJSON,
		metaJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log entry: %w", err)
	}

	return nil
}

func (r *auditRepository) List(ctx context.Context, filters AuditFilters) ([]*models.AuditLogEntry, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	limit := filters.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, created_at, actor_id, action, resource_type, resource_id, old_value, new_value, metadata
		FROM audit_log
		WHERE ($1 = '' OR action = $1)
		  AND ($2 = '' OR resource_type = $2)
		  AND ($3::uuid IS NULL OR actor_id = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := scope.Conn.Query(ctx, query,
		filters.Action, filters.ResourceType, filters.ActorID, limit, filters.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	return collectAuditEntries(rows)
}

func (r *auditRepository) ListByResource(ctx context.Context, resourceType string, resourceID uuid.UUID) ([]*models.AuditLogEntry, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, created_at, actor_id, action, resource_type, resource_id, old_value, new_value, metadata
		FROM audit_log
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY created_at DESC`

	rows, err := scope.Conn.Query(ctx, query, resourceType, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log by resource: %w", err)
	}
	defer rows.Close()

	return collectAuditEntries(rows)
}

func collectAuditEntries(rows pgx.Rows) ([]*models.AuditLogEntry, error) {
	var entries []*models.AuditLogEntry
	for rows.Next() {
		entry, err := scanAuditLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log entries: %w", err)
	}

	return entries, nil
}

func scanAuditLogEntry(row pgx.Row) (*models.AuditLogEntry, error) {
	var entry models.AuditLogEntry
	var oldJSON, newJSON, metaJSON []byte

	err := row.Scan(
		&entry.ID,
		&entry.CreatedAt,
		&entry.ActorID,
		&entry.Action,
		&entry.ResourceType,
		&entry.ResourceID,
		&oldJSON,
		&newJSON,
		&metaJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit log entry: %w", err)
	}

	if err := unmarshalSnapshot(oldJSON, &entry.OldValue); err != nil {
		return nil, fmt.Errorf("failed to unmarshal old_value: %w", err)
	}
	if err := unmarshalSnapshot(newJSON, &entry.NewValue); err != nil {
		return nil, fmt.Errorf("failed to unmarshal new_value: %w", err)
	}
	if err := unmarshalSnapshot(metaJSON, &entry.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &entry, nil
}

func marshalSnapshot(snapshot map[string]any) ([]byte, error) {
	if len(snapshot) == 0 {
		return nil, nil
	}
	return json.Marshal(snapshot)
}

func unmarshalSnapshot(data []byte, dst *map[string]any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, dst)
}
