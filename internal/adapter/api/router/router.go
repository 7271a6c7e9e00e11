package router

import (
	"github.com/labstack/echo/v4"

	"tradehub/internal/adapter/api/handler"
	"tradehub/internal/adapter/api/middleware"
)

type Handlers struct {
	Health        *handler.HealthHandler
	TradeAd       *handler.TradeAdHandler
	Chat          *handler.ChatHandler
	TradeOffer    *handler.TradeOfferHandler
	MiddlemanCall *handler.MiddlemanCallHandler
	Notification  *handler.NotificationHandler
	User          *handler.UserHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	SetupHealthRouter(e, h.Health)

	v1 := e.Group("/v1")
	v1.Use(authMiddleware.Authenticate)

	SetupTradeAdRouter(v1, h.TradeAd)
	SetupChatRouter(v1, h.Chat, h.TradeOffer, h.MiddlemanCall)
	SetupTradeOfferRouter(v1, h.TradeOffer)
	SetupMiddlemanCallRouter(v1, h.MiddlemanCall)
	SetupNotificationRouter(v1, h.Notification)
	SetupUserRouter(v1, h.User)
}
