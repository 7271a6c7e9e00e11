package router

import (
	"github.com/labstack/echo/v4"

	"tradehub/internal/adapter/api/handler"
)

func SetupNotificationRouter(v1 *echo.Group, notificationHandler *handler.NotificationHandler) {
	notifications := v1.Group("/notifications")

	notifications.GET("", notificationHandler.GetNotifications)
	notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
	notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
}
