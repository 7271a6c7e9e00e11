package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"tradehub/internal/domain/entity"
	"tradehub/pkg/errors"
	"tradehub/pkg/response"
)

// ActorKey is the echo context key holding the authenticated entity.Actor.
const ActorKey = "actor"

// IdentityProvider turns a bearer token into the actor it names.
type IdentityProvider interface {
	Resolve(ctx context.Context, token string) (entity.Actor, error)
}

type AuthMiddleware struct {
	identity IdentityProvider
}

func NewAuthMiddleware(identity IdentityProvider) *AuthMiddleware {
	return &AuthMiddleware{
		identity: identity,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		actor, err := m.identity.Resolve(c.Request().Context(), parts[1])
		if err != nil {
			return response.Error(c, err)
		}

		c.Set(ActorKey, actor)
		c.Set("uid", actor.ID)
		return next(c)
	}
}

// ActorFrom returns the actor set by Authenticate.
func ActorFrom(c echo.Context) (entity.Actor, bool) {
	actor, ok := c.Get(ActorKey).(entity.Actor)
	return actor, ok
}
