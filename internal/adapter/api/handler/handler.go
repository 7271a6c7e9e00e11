package handler

import (
	"github.com/labstack/echo/v4"

	"tradehub/internal/adapter/api/middleware"
	"tradehub/internal/domain/entity"
	"tradehub/pkg/errors"
)

// bindAndValidate decodes the request into req and runs the struct validators.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.Validation("Invalid request body", err)
	}
	return c.Validate(req)
}

func currentActor(c echo.Context) (entity.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return entity.Actor{}, errors.Unauthorized("Authentication required", nil)
	}
	return actor, nil
}
