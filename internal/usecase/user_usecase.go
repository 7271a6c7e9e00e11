package usecase

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"tradehub/internal/domain/entity"
	"tradehub/internal/domain/repository"
	"tradehub/pkg/errors"
	"tradehub/pkg/logger"
)

// RoleClaimSetter mirrors roles onto the identity provider so new tokens carry them.
type RoleClaimSetter interface {
	SetRoles(ctx context.Context, uid string, roles []string) error
}

type UserUseCase struct {
	store  repository.Store
	claims RoleClaimSetter
	clock  Clock
}

// NewUserUseCase takes a nil claims setter when roles live only in the user documents.
func NewUserUseCase(store repository.Store, claims RoleClaimSetter) *UserUseCase {
	return &UserUseCase{
		store:  store,
		claims: claims,
		clock:  SystemClock,
	}
}

func (uc *UserUseCase) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	var user *entity.User
	err := uc.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		user, err = tx.GetUser(userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SetRoles replaces the roles of a user, creating the profile when it does not exist
// yet. Only admins grant roles, and an admin cannot drop their own admin role.
func (uc *UserUseCase) SetRoles(ctx context.Context, actor entity.Actor, userID string, roles []string) (user *entity.User, err error) {
	ctx, span := startSpan(ctx, "User.SetRoles",
		attribute.String("user.id", userID),
		attribute.StringSlice("user.roles", roles))
	defer func() { finishSpan(span, err) }()

	if !actor.IsAdmin() {
		return nil, errors.Forbidden("Admin privileges required", nil)
	}
	roles, err = normalizeRoles(roles)
	if err != nil {
		return nil, err
	}
	if userID == actor.ID && !(&entity.User{Roles: roles}).Actor().IsAdmin() {
		return nil, errors.Validation("You cannot remove your own admin role", nil)
	}

	err = uc.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		now := uc.clock()
		existing, err := tx.GetUser(userID)
		switch {
		case errors.Is(err, errors.CodeNotFound):
			existing = &entity.User{ID: userID, CreatedAt: now}
		case err != nil:
			return err
		}
		existing.Roles = roles
		existing.UpdatedAt = now
		user = existing
		return tx.PutUser(existing)
	})
	if err != nil {
		logger.Error("SetRoles Error: user %s by %s: %v", userID, actor.ID, err)
		return nil, err
	}

	if uc.claims != nil {
		if err := uc.claims.SetRoles(ctx, userID, roles); err != nil {
			logger.Error("SetRoles Claim Error: user %s: %v", userID, err)
			return nil, errors.Internal("Roles saved but the token claim could not be updated", err)
		}
	}

	logger.Info("Roles of user %s set to %v by %s", userID, roles, actor.ID)
	return user, nil
}

func normalizeRoles(roles []string) ([]string, error) {
	out := make([]string, 0, len(roles))
	seen := make(map[string]bool, len(roles))
	for _, role := range roles {
		if role != entity.RoleMiddleman && role != entity.RoleAdmin {
			return nil, errors.Validation("Unknown role "+role, nil)
		}
		if !seen[role] {
			seen[role] = true
			out = append(out, role)
		}
	}
	return out, nil
}
