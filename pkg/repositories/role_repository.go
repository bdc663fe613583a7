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

// RoleRepository defines the interface for role assignment data access.
// There is deliberately no Update method: role changes are performed as
// delete-then-insert so each half produces its own audit event.
type RoleRepository interface {
	// GetByUserID returns the active assignment for a principal, or
	// apperrors.ErrNotFound if no row exists (implicit role "user").
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.RoleAssignment, error)
	Insert(ctx context.Context, assignment *models.RoleAssignment) error
	// DeleteByUserID removes the assignment; apperrors.ErrNotFound if none.
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	// Any reports whether any role assignment exists at all. Used only by
	// the first-user bootstrap inside the onboarding transaction.
	Any(ctx context.Context) (bool, error)
	List(ctx context.Context) ([]*models.RoleAssignment, error)
}

// roleRepository implements RoleRepository using PostgreSQL.
type roleRepository struct{}

// NewRoleRepository creates a new role repository.
func NewRoleRepository() RoleRepository {
	return &roleRepository{}
}

func (r *roleRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.RoleAssignment, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, user_id, role, created_at
		FROM user_roles
		WHERE user_id = $1`

	var assignment models.RoleAssignment
	err := scope.Conn.QueryRow(ctx, query, userID).Scan(
		&assignment.ID,
		&assignment.UserID,
		&assignment.Role,
		&assignment.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get role assignment: %w", err)
	}

	return &assignment, nil
}

func (r *roleRepository) Insert(ctx context.Context, assignment *models.RoleAssignment) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO user_roles (id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := scope.Conn.Exec(ctx, query,
		assignment.ID,
		assignment.UserID,
		assignment.Role,
		assignment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert role assignment: %w", err)
	}

	return nil
}

func (r *roleRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `DELETE FROM user_roles WHERE user_id = $1`

	result, err := scope.Conn.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete role assignment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *roleRepository) Any(ctx context.Context) (bool, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return false, fmt.Errorf("no database scope in context")
	}

	query := `SELECT EXISTS (SELECT 1 FROM user_roles)`

	var exists bool
	if err := scope.Conn.QueryRow(ctx, query).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check for role assignments: %w", err)
	}

	return exists, nil
}

func (r *roleRepository) List(ctx context.Context) ([]*models.RoleAssignment, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, user_id, role, created_at
		FROM user_roles
		ORDER BY created_at`

	rows, err := scope.Conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list role assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*models.RoleAssignment
	for rows.Next() {
		var assignment models.RoleAssignment
		err := rows.Scan(
			&assignment.ID,
			&assignment.UserID,
			&assignment.Role,
			&assignment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role assignment: %w", err)
		}
		assignments = append(assignments, &assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating role assignments: %w", err)
	}

	return assignments, nil
}

// Ensure roleRepository implements RoleRepository at compile time.
var _ RoleRepository = (*roleRepository)(nil)
