package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse-engine/pkg/apperrors"
	"github.com/gatehouse-io/gatehouse-engine/pkg/auth"
	"github.com/gatehouse-io/gatehouse-engine/pkg/authz"
	"github.com/gatehouse-io/gatehouse-engine/pkg/models"
	"github.com/gatehouse-io/gatehouse-engine/pkg/repositories"
)

// resolveSubject builds the authorization subject for the current request:
// the authenticated principal's id plus its role fetched fresh from the role
// store. Every policy decision is made against this, never against anything
// the client supplied.
func resolveSubject(ctx context.Context, roleRepo repositories.RoleRepository) (authz.Subject, error) {
	userID, ok := auth.GetUserUUIDFromContext(ctx)
	if !ok {
		return authz.Subject{}, apperrors.ErrUnauthorized
	}

	role, err := lookupRole(ctx, roleRepo, userID)
	if err != nil {
		return authz.Subject{}, err
	}

	return authz.Subject{ID: userID, Role: role}, nil
}

// lookupRole returns the assigned role for a principal, or the implicit
// default RoleUser when no row exists.
func lookupRole(ctx context.Context, roleRepo repositories.RoleRepository, userID uuid.UUID) (models.Role, error) {
	assignment, err := roleRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return models.RoleUser, nil
		}
		return "", fmt.Errorf("failed to resolve role: %w", err)
	}
	return assignment.Role, nil
}
