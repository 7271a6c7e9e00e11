package router

import (
	"github.com/labstack/echo/v4"

	"tradehub/internal/adapter/api/handler"
	"tradehub/internal/adapter/api/middleware"
	"tradehub/internal/domain/entity"
)

func SetupTradeAdRouter(v1 *echo.Group, tradeAdHandler *handler.TradeAdHandler) {
	ads := v1.Group("/trade-ads")

	ads.POST("", tradeAdHandler.CreateTradeAd)
	ads.GET("", tradeAdHandler.ListOpenTradeAds)
	ads.GET("/:id", tradeAdHandler.GetTradeAd)
	ads.POST("/:id/cancel", tradeAdHandler.CancelTradeAd)
	ads.POST("/:id/expire", tradeAdHandler.ExpireTradeAd, middleware.RequireRole(entity.RoleAdmin))
}
