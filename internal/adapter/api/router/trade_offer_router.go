package router

import (
	"github.com/labstack/echo/v4"

	"tradehub/internal/adapter/api/handler"
)

func SetupTradeOfferRouter(v1 *echo.Group, offerHandler *handler.TradeOfferHandler) {
	v1.PUT("/trade-offers/:id/status", offerHandler.UpdateTradeOfferStatus)
}
