package handler

import (
	"github.com/labstack/echo/v4"

	"tradehub/internal/domain/entity"
	"tradehub/internal/usecase"
	"tradehub/pkg/response"
	"tradehub/pkg/utils"
)

type TradeAdHandler struct {
	tradeAdUseCase *usecase.TradeAdUseCase
}

func NewTradeAdHandler(tradeAdUseCase *usecase.TradeAdUseCase) *TradeAdHandler {
	return &TradeAdHandler{
		tradeAdUseCase: tradeAdUseCase,
	}
}

type tradeAdItemRequest struct {
	ItemID    string   `json:"item_id" validate:"required"`
	Quantity  int      `json:"quantity" validate:"gt=0"`
	Weight    *float64 `json:"weight,omitempty" validate:"omitempty,gt=0"`
	Mutations []string `json:"mutations,omitempty"`
}

type createTradeAdRequest struct {
	HaveItems []tradeAdItemRequest `json:"have_items" validate:"dive"`
	WantItems []tradeAdItemRequest `json:"want_items" validate:"dive"`
}

func toTradeAdItems(in []tradeAdItemRequest) []entity.TradeAdItem {
	out := make([]entity.TradeAdItem, 0, len(in))
	for _, item := range in {
		out = append(out, entity.TradeAdItem{
			ItemID:    item.ItemID,
			Quantity:  item.Quantity,
			Weight:    item.Weight,
			Mutations: item.Mutations,
		})
	}
	return out
}

func (h *TradeAdHandler) CreateTradeAd(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req createTradeAdRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	ad, err := h.tradeAdUseCase.Create(c.Request().Context(), actor, usecase.CreateTradeAdInput{
		HaveItems: toTradeAdItems(req.HaveItems),
		WantItems: toTradeAdItems(req.WantItems),
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, ad)
}

func (h *TradeAdHandler) ListOpenTradeAds(c echo.Context) error {
	page := utils.GetPaginationParams(c)
	ads, total, err := h.tradeAdUseCase.ListOpen(c.Request().Context(), page.Limit, page.Offset)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, ads, total, page.Limit, page.Offset)
}

func (h *TradeAdHandler) GetTradeAd(c echo.Context) error {
	ad, err := h.tradeAdUseCase.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, ad)
}

func (h *TradeAdHandler) CancelTradeAd(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}
	ad, err := h.tradeAdUseCase.Cancel(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, ad)
}

func (h *TradeAdHandler) ExpireTradeAd(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}
	ad, err := h.tradeAdUseCase.Expire(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, ad)
}
