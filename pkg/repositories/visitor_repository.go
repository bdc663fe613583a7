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

const visitorColumns = `id, badge_id, name, company, email, phone, host_name,
	host_email, purpose, check_in_time, check_out_time, status, created_by`

// VisitorRepository defines the interface for visitor record data access.
// Visitor rows are never deleted; the only mutation is the one-shot
// check-out.
type VisitorRepository interface {
	Create(ctx context.Context, visitor *models.Visitor) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Visitor, error)
	GetByBadge(ctx context.Context, badgeID string) (*models.Visitor, error)
	ListAll(ctx context.Context) ([]*models.Visitor, error)
	ListCreatedBy(ctx context.Context, userID uuid.UUID) ([]*models.Visitor, error)
	// CheckOut transitions checked_in -> checked_out, setting the timestamp
	// in the same statement so the status/timestamp invariant can't skew.
	// Returns apperrors.ErrAlreadyCheckedOut if the row is not checked in.
	CheckOut(ctx context.Context, id uuid.UUID, at time.Time) error
}

// visitorRepository implements VisitorRepository using PostgreSQL.
type visitorRepository struct{}

// NewVisitorRepository creates a new visitor repository.
func NewVisitorRepository() VisitorRepository {
	return &visitorRepository{}
}

func (r *visitorRepository) Create(ctx context.Context, visitor *models.Visitor) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if visitor.ID == uuid.Nil {
		visitor.ID = uuid.New()
	}
	if visitor.CheckInTime.IsZero() {
		visitor.CheckInTime = time.Now()
	}
	visitor.Status = models.VisitorStatusCheckedIn

	query := `
		INSERT INTO visitors (` + visitorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := scope.Conn.Exec(ctx, query,
		visitor.ID,
		visitor.BadgeID,
		visitor.Name,
		visitor.Company,
		visitor.Email,
		visitor.Phone,
		visitor.HostName,
		visitor.HostEmail,
		visitor.Purpose,
		visitor.CheckInTime,
		visitor.CheckOutTime,
		visitor.Status,
		visitor.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create visitor: %w", err)
	}

	return nil
}

func (r *visitorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Visitor, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + visitorColumns + ` FROM visitors WHERE id = $1`
	return scanVisitor(scope.Conn.QueryRow(ctx, query, id))
}

func (r *visitorRepository) GetByBadge(ctx context.Context, badgeID string) (*models.Visitor, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + visitorColumns + ` FROM visitors WHERE badge_id = $1`
	return scanVisitor(scope.Conn.QueryRow(ctx, query, badgeID))
}

func (r *visitorRepository) ListAll(ctx context.Context) ([]*models.Visitor, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + visitorColumns + ` FROM visitors ORDER BY check_in_time DESC`

	rows, err := scope.Conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list visitors: %w", err)
	}
	defer rows.Close()

	return collectVisitors(rows)
}

func (r *visitorRepository) ListCreatedBy(ctx context.Context, userID uuid.UUID) ([]*models.Visitor, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + visitorColumns + ` FROM visitors WHERE created_by = $1 ORDER BY check_in_time DESC`

	rows, err := scope.Conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list visitors: %w", err)
	}
	defer rows.Close()

	return collectVisitors(rows)
}

func (r *visitorRepository) CheckOut(ctx context.Context, id uuid.UUID, at time.Time) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		UPDATE visitors
		SET status = $1, check_out_time = $2
		WHERE id = $3 AND status = $4`

	result, err := scope.Conn.Exec(ctx, query,
		models.VisitorStatusCheckedOut, at, id, models.VisitorStatusCheckedIn)
	if err != nil {
		return fmt.Errorf("failed to check out visitor: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrAlreadyCheckedOut
	}

	return nil
}

func scanVisitor(row pgx.Row) (*models.Visitor, error) {
	var visitor models.Visitor
	err := row.Scan(
		&visitor.ID,
		&visitor.BadgeID,
		&visitor.Name,
		&visitor.Company,
		&visitor.Email,
		&visitor.Phone,
		&visitor.HostName,
		&visitor.HostEmail,
		&visitor.Purpose,
		&visitor.CheckInTime,
		&visitor.CheckOutTime,
		&visitor.Status,
		&visitor.CreatedBy,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan visitor: %w", err)
	}
	return &visitor, nil
}

func collectVisitors(rows pgx.Rows) ([]*models.Visitor, error) {
	var visitors []*models.Visitor
	for rows.Next() {
		visitor, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		visitors = append(visitors, visitor)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visitors: %w", err)
	}

	return visitors, nil
}

// Ensure visitorRepository implements VisitorRepository at compile time.
var _ VisitorRepository = (*visitorRepository)(nil)
