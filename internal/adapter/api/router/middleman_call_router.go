package router

import (
	"github.com/labstack/echo/v4"

	"tradehub/internal/adapter/api/handler"
	"tradehub/internal/adapter/api/middleware"
	"tradehub/internal/domain/entity"
)

func SetupMiddlemanCallRouter(v1 *echo.Group, callHandler *handler.MiddlemanCallHandler) {
	calls := v1.Group("/middleman-calls")

	calls.GET("/pending", callHandler.GetPendingCalls, middleware.RequireRole(entity.RoleMiddleman, entity.RoleAdmin))
	calls.PUT("/:id/status", callHandler.UpdateMiddlemanCallStatus)
}
