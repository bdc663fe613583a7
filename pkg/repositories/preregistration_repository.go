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

const preregColumns = `id, visitor_name, visitor_email, visitor_phone, company,
	host_user_id, host_name, host_email, expected_at, purpose, notes, status, created_at`

// PreregistrationRepository defines the interface for pre-registration data access.
type PreregistrationRepository interface {
	Create(ctx context.Context, prereg *models.Preregistration) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Preregistration, error)
	ListByHost(ctx context.Context, hostUserID uuid.UUID) ([]*models.Preregistration, error)
	ListAll(ctx context.Context) ([]*models.Preregistration, error)
	// UpdateStatus moves a row to a new status. The state machine is
	// validated by the service; the WHERE clause re-checks the expected
	// current status so concurrent transitions can't race past a terminal
	// state.
	UpdateStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string) error
	UpdateDetails(ctx context.Context, prereg *models.Preregistration) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ExpireOverdue marks pending rows whose expected time is before the
	// cutoff as expired, returning the number of rows affected.
	ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error)
}

// preregistrationRepository implements PreregistrationRepository using PostgreSQL.
type preregistrationRepository struct{}

// NewPreregistrationRepository creates a new pre-registration repository.
func NewPreregistrationRepository() PreregistrationRepository {
	return &preregistrationRepository{}
}

func (r *preregistrationRepository) Create(ctx context.Context, prereg *models.Preregistration) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if prereg.ID == uuid.Nil {
		prereg.ID = uuid.New()
	}
	if prereg.CreatedAt.IsZero() {
		prereg.CreatedAt = time.Now()
	}
	prereg.Status = models.PreregStatusPending

	query := `
		INSERT INTO preregistrations (` + preregColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := scope.Conn.Exec(ctx, query,
		prereg.ID,
		prereg.VisitorName,
		prereg.VisitorEmail,
		prereg.VisitorPhone,
		prereg.Company,
		prereg.HostUserID,
		prereg.HostName,
		prereg.HostEmail,
		prereg.ExpectedAt,
		prereg.Purpose,
		prereg.Notes,
		prereg.Status,
		prereg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create preregistration: %w", err)
	}

	return nil
}

func (r *preregistrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Preregistration, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + preregColumns + ` FROM preregistrations WHERE id = $1`
	return scanPreregistration(scope.Conn.QueryRow(ctx, query, id))
}

func (r *preregistrationRepository) ListByHost(ctx context.Context, hostUserID uuid.UUID) ([]*models.Preregistration, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + preregColumns + ` FROM preregistrations WHERE host_user_id = $1 ORDER BY expected_at`

	rows, err := scope.Conn.Query(ctx, query, hostUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list preregistrations: %w", err)
	}
	defer rows.Close()

	return collectPreregistrations(rows)
}

func (r *preregistrationRepository) ListAll(ctx context.Context) ([]*models.Preregistration, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + preregColumns + ` FROM preregistrations ORDER BY expected_at`

	rows, err := scope.Conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list preregistrations: %w", err)
	}
	defer rows.Close()

	return collectPreregistrations(rows)
}

func (r *preregistrationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `UPDATE preregistrations SET status = $1 WHERE id = $2 AND status = $3`

	result, err := scope.Conn.Exec(ctx, query, toStatus, id, fromStatus)
	if err != nil {
		return fmt.Errorf("failed to update preregistration status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrInvalidTransition
	}

	return nil
}

func (r *preregistrationRepository) UpdateDetails(ctx context.Context, prereg *models.Preregistration) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		UPDATE preregistrations
		SET visitor_name = $1, visitor_email = $2, visitor_phone = $3,
		    company = $4, expected_at = $5, purpose = $6, notes = $7
		WHERE id = $8`

	result, err := scope.Conn.Exec(ctx, query,
		prereg.VisitorName,
		prereg.VisitorEmail,
		prereg.VisitorPhone,
		prereg.Company,
		prereg.ExpectedAt,
		prereg.Purpose,
		prereg.Notes,
		prereg.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update preregistration: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *preregistrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `DELETE FROM preregistrations WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete preregistration: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *preregistrationRepository) ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	query := `UPDATE preregistrations SET status = $1 WHERE status = $2 AND expected_at < $3`

	result, err := scope.Conn.Exec(ctx, query,
		models.PreregStatusExpired, models.PreregStatusPending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire preregistrations: %w", err)
	}

	return result.RowsAffected(), nil
}

func scanPreregistration(row pgx.Row) (*models.Preregistration, error) {
	var prereg models.Preregistration
	err := row.Scan(
		&prereg.ID,
		&prereg.VisitorName,
		&prereg.VisitorEmail,
		&prereg.VisitorPhone,
		&prereg.Company,
		&prereg.HostUserID,
		&prereg.HostName,
		&prereg.HostEmail,
		&prereg.ExpectedAt,
		&prereg.Purpose,
		&prereg.Notes,
		&prereg.Status,
		&prereg.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan preregistration: %w", err)
	}
	return &prereg, nil
}

func collectPreregistrations(rows pgx.Rows) ([]*models.Preregistration, error) {
	var preregs []*models.Preregistration
	for rows.Next() {
		prereg, err := scanPreregistration(rows)
		if err != nil {
			return nil, err
		}
		preregs = append(preregs, prereg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preregistrations: %w", err)
	}

	return preregs, nil
}

// Ensure preregistrationRepository implements PreregistrationRepository at compile time.
var _ PreregistrationRepository = (*preregistrationRepository)(nil)
