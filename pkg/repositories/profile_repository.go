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

// ProfileRepository defines the interface for principal profile data access.
type ProfileRepository interface {
	// Upsert creates the profile row or refreshes email/display name on
	// repeat sign-ins. Profiles are never deleted by application code.
	Upsert(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	List(ctx context.Context) ([]*models.Profile, error)
}

// profileRepository implements ProfileRepository using PostgreSQL.
type profileRepository struct{}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository() ProfileRepository {
	return &profileRepository{}
}

func (r *profileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO profiles (id, email, display_name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), profiles.display_name)`

	_, err := scope.Conn.Exec(ctx, query,
		profile.ID,
		profile.Email,
		profile.DisplayName,
		profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, email, display_name, created_at
		FROM profiles
		WHERE id = $1`

	var profile models.Profile
	err := scope.Conn.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.Email,
		&profile.DisplayName,
		&profile.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}

func (r *profileRepository) List(ctx context.Context) ([]*models.Profile, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, email, display_name, created_at
		FROM profiles
		ORDER BY created_at`

	rows, err := scope.Conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		var profile models.Profile
		err := rows.Scan(
			&profile.ID,
			&profile.Email,
			&profile.DisplayName,
			&profile.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, &profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}

	return profiles, nil
}

// Ensure profileRepository implements ProfileRepository at compile time.
var _ ProfileRepository = (*profileRepository)(nil)
