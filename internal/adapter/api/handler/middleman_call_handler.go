package handler

import (
	"github.com/labstack/echo/v4"

	"tradehub/internal/domain/entity"
	"tradehub/internal/usecase"
	"tradehub/pkg/response"
)

type MiddlemanCallHandler struct {
	middlemanCallUseCase *usecase.MiddlemanCallUseCase
}

func NewMiddlemanCallHandler(middlemanCallUseCase *usecase.MiddlemanCallUseCase) *MiddlemanCallHandler {
	return &MiddlemanCallHandler{
		middlemanCallUseCase: middlemanCallUseCase,
	}
}

type createMiddlemanCallRequest struct {
	Reason             string `json:"reason" validate:"required,max=500"`
	EstimatedWaitTime  int    `json:"estimated_wait_time" validate:"gte=0"`
	DesiredMiddlemanID string `json:"desired_middleman_id"`
}

type resolveRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=completed cancelled"`
}

func (h *MiddlemanCallHandler) CreateMiddlemanCall(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req createMiddlemanCallRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	messageID, err := h.middlemanCallUseCase.Create(c.Request().Context(), actor, usecase.CreateMiddlemanCallInput{
		ChatID:             c.Param("id"),
		Reason:             req.Reason,
		EstimatedWaitTime:  req.EstimatedWaitTime,
		DesiredMiddlemanID: req.DesiredMiddlemanID,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, map[string]string{
		"message_id": messageID,
	})
}

func (h *MiddlemanCallHandler) UpdateMiddlemanCallStatus(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	callID := c.Param("id")
	if err := h.middlemanCallUseCase.UpdateStatus(c.Request().Context(), actor, callID, entity.Status(req.Status)); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{
		"id":     callID,
		"status": req.Status,
	})
}

// GetPendingCalls is the middleman work queue.
func (h *MiddlemanCallHandler) GetPendingCalls(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	calls, err := h.middlemanCallUseCase.ListPending(c.Request().Context(), actor)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, calls)
}

func (h *MiddlemanCallHandler) ResolveTrade(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req resolveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	chatID := c.Param("id")
	if err := h.middlemanCallUseCase.ResolveByMiddleman(c.Request().Context(), actor, chatID, entity.TradeStatus(req.Outcome)); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{
		"chat_id":      chatID,
		"trade_status": req.Outcome,
	})
}
