package middleware

import (
	"github.com/labstack/echo/v4"

	"tradehub/pkg/errors"
	"tradehub/pkg/response"
)

// RequireRole lets the request through when the actor holds any of roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFrom(c)
			if !ok {
				return response.Error(c, errors.Unauthorized("Authentication required", nil))
			}

			for _, role := range roles {
				if actor.HasRole(role) {
					return next(c)
				}
			}
			return response.Error(c, errors.Forbidden("Insufficient privileges", nil))
		}
	}
}
