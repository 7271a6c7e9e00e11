package router

import (
	"github.com/labstack/echo/v4"

	"tradehub/internal/adapter/api/handler"
	"tradehub/internal/adapter/api/middleware"
	"tradehub/internal/domain/entity"
)

func SetupUserRouter(v1 *echo.Group, userHandler *handler.UserHandler) {
	users := v1.Group("/users")

	users.GET("/me", userHandler.GetMe)
	users.PUT("/:id/roles", userHandler.UpdateUserRoles, middleware.RequireRole(entity.RoleAdmin))
}
