package firebase

import (
	"context"
	"strings"

	"tradehub/internal/domain/entity"
	"tradehub/internal/domain/repository"
	"tradehub/pkg/errors"
)

// DevTokenPrefix marks local development tokens: "dev:<uid>".
const DevTokenPrefix = "dev:"

// DevAuthClient accepts "dev:<uid>" bearer tokens and reads roles from the user
// document. It never talks to Firebase and must not run in production.
type DevAuthClient struct {
	store repository.Store
}

func NewDevAuthClient(store repository.Store) *DevAuthClient {
	return &DevAuthClient{store: store}
}

func (d *DevAuthClient) Resolve(ctx context.Context, token string) (entity.Actor, error) {
	uid := strings.TrimSpace(strings.TrimPrefix(token, DevTokenPrefix))
	if !strings.HasPrefix(token, DevTokenPrefix) || uid == "" {
		return entity.Actor{}, errors.Unauthorized("Invalid development token", nil)
	}
	return loadActor(ctx, d.store, uid)
}
