package handler

import (
	"github.com/labstack/echo/v4"

	"tradehub/internal/domain/entity"
	"tradehub/internal/usecase"
	"tradehub/pkg/response"
	"tradehub/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createChatRequest struct {
	Type           string   `json:"type" validate:"required,oneof=trade direct_message"`
	ParticipantIDs []string `json:"participant_ids" validate:"required,min=1"`
	TradeAdID      string   `json:"trade_ad_id"`
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type markReadRequest struct {
	MessageID string `json:"message_id" validate:"required"`
}

func (h *ChatHandler) CreateChat(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req createChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chatUseCase.CreateChat(c.Request().Context(), actor, usecase.CreateChatInput{
		Type:           entity.ChatType(req.Type),
		ParticipantIDs: req.ParticipantIDs,
		TradeAdID:      req.TradeAdID,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, chat)
}

// GetUserChats lists the caller's chats, most recently active first, with unread counts.
func (h *ChatHandler) GetUserChats(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	page := utils.GetPaginationParams(c)
	chats, total, err := h.chatUseCase.ListUserChats(c.Request().Context(), actor, page.Limit, page.Offset)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, chats, total, page.Limit, page.Offset)
}

func (h *ChatHandler) GetChatByID(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chatUseCase.GetChat(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, chat)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), actor, c.Param("id"), req.Content)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, message)
}

func (h *ChatHandler) EditMessage(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.EditMessage(c.Request().Context(), actor, c.Param("id"), c.Param("messageId"), req.Content)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, message)
}

func (h *ChatHandler) GetChatMessages(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	page := utils.GetPaginationParams(c)
	messages, total, err := h.chatUseCase.ListMessages(c.Request().Context(), actor, c.Param("id"), page.Limit, page.Offset)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, messages, total, page.Limit, page.Offset)
}

func (h *ChatHandler) MarkChatAsRead(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req markReadRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	if err := h.chatUseCase.MarkRead(c.Request().Context(), actor, c.Param("id"), req.MessageID); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{
		"message": "Chat marked as read",
	})
}

func (h *ChatHandler) GetUnreadCount(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	count, err := h.chatUseCase.UnreadCount(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int{
		"unread_count": count,
	})
}
