package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"tradehub/internal/domain/entity"
	"tradehub/internal/domain/repository"
	"tradehub/pkg/errors"
	"tradehub/pkg/logger"
)

// RolesClaim is the custom claim carrying the user's roles on an ID token.
const RolesClaim = "roles"

// AuthClient turns Firebase ID tokens into actors.
type AuthClient struct {
	client *auth.Client
	store  repository.Store
}

func NewAuthClient(client *auth.Client, store repository.Store) *AuthClient {
	return &AuthClient{
		client: client,
		store:  store,
	}
}

// Resolve verifies the token and returns the actor it names. Roles come from the
// token's custom claims, or from the user document when the token carries none.
func (f *AuthClient) Resolve(ctx context.Context, idToken string) (entity.Actor, error) {
	token, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return entity.Actor{}, errors.Unauthorized("Invalid or expired token", err)
	}

	if roles, ok := rolesFromClaims(token.Claims); ok {
		return entity.Actor{ID: token.UID, Roles: roles}, nil
	}
	return loadActor(ctx, f.store, token.UID)
}

func rolesFromClaims(claims map[string]interface{}) ([]string, bool) {
	raw, ok := claims[RolesClaim]
	if !ok {
		return nil, false
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, false
	}
	roles := make([]string, 0, len(list))
	for _, r := range list {
		if s, ok := r.(string); ok && s != "" {
			roles = append(roles, s)
		}
	}
	return roles, true
}

func loadActor(ctx context.Context, store repository.Store, uid string) (entity.Actor, error) {
	var user *entity.User
	err := store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		user, err = tx.GetUser(uid)
		return err
	})
	if errors.Is(err, errors.CodeNotFound) {
		// Signed in but no profile yet: an actor without roles.
		return entity.Actor{ID: uid}, nil
	}
	if err != nil {
		logger.Error("ResolveActor Error: user %s: %v", uid, err)
		return entity.Actor{}, err
	}
	return entity.Actor{ID: user.ID, Roles: user.Roles}, nil
}

// SetRoles stores roles as a custom claim so later tokens carry them.
func (f *AuthClient) SetRoles(ctx context.Context, uid string, roles []string) error {
	return f.client.SetCustomUserClaims(ctx, uid, map[string]interface{}{RolesClaim: roles})
}
