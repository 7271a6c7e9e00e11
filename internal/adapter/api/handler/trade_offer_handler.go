package handler

import (
	"github.com/labstack/echo/v4"

	"tradehub/internal/domain/entity"
	"tradehub/internal/usecase"
	"tradehub/pkg/response"
)

type TradeOfferHandler struct {
	tradeOfferUseCase *usecase.TradeOfferUseCase
}

func NewTradeOfferHandler(tradeOfferUseCase *usecase.TradeOfferUseCase) *TradeOfferHandler {
	return &TradeOfferHandler{
		tradeOfferUseCase: tradeOfferUseCase,
	}
}

type offerItemRequest struct {
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

type createTradeOfferRequest struct {
	Offering   []offerItemRequest `json:"offering" validate:"dive"`
	Requesting []offerItemRequest `json:"requesting" validate:"dive"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted declined cancelled"`
}

func toOfferItems(in []offerItemRequest) []usecase.OfferItemInput {
	out := make([]usecase.OfferItemInput, 0, len(in))
	for _, item := range in {
		out = append(out, usecase.OfferItemInput{ItemID: item.ItemID, Quantity: item.Quantity})
	}
	return out
}

// CreateTradeOffer posts an offer into the chat and returns the anchoring message id.
func (h *TradeOfferHandler) CreateTradeOffer(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req createTradeOfferRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	messageID, err := h.tradeOfferUseCase.Create(c.Request().Context(), actor, usecase.CreateTradeOfferInput{
		ChatID:     c.Param("id"),
		Offering:   toOfferItems(req.Offering),
		Requesting: toOfferItems(req.Requesting),
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, map[string]string{
		"message_id": messageID,
	})
}

func (h *TradeOfferHandler) UpdateTradeOfferStatus(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	offerID := c.Param("id")
	if err := h.tradeOfferUseCase.UpdateStatus(c.Request().Context(), actor, offerID, entity.Status(req.Status)); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{
		"id":     offerID,
		"status": req.Status,
	})
}
