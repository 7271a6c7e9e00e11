package middleware

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"tradehub/internal/infrastructure/ratelimit"
	"tradehub/pkg/errors"
	"tradehub/pkg/logger"
	"tradehub/pkg/response"
)

// RateLimit throttles requests per client address. Per-user limits on individual
// actions are enforced by the usecases.
func RateLimit(limiter ratelimit.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			allowed, wait := limiter.Allow(c.Request().Context(), ip, ratelimit.ActionHTTPRequest)
			if !allowed {
				logger.Warn("RATE LIMIT: Blocked request from IP %s (reset in %v)", ip, wait)
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", int(wait.Round(time.Second).Seconds())))
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded"))
			}
			return next(c)
		}
	}
}
