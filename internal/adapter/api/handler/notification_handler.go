package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"tradehub/internal/usecase"
	"tradehub/pkg/response"
	"tradehub/pkg/utils"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	unreadOnly, _ := strconv.ParseBool(c.QueryParam("unread"))
	page := utils.GetPaginationParams(c)
	items, total, err := h.notificationUseCase.List(c.Request().Context(), actor, unreadOnly, page.Limit, page.Offset)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, items, total, page.Limit, page.Offset)
}

func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.notificationUseCase.MarkRead(c.Request().Context(), actor, c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{
		"message": "Notification marked as read",
	})
}

func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	updated, err := h.notificationUseCase.MarkAllRead(c.Request().Context(), actor)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int{
		"updated": updated,
	})
}
