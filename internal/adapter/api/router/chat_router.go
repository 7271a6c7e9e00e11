package router

import (
	"github.com/labstack/echo/v4"

	"tradehub/internal/adapter/api/handler"
)

// SetupChatRouter registers chat, message and per-chat trade routes.
func SetupChatRouter(v1 *echo.Group, chatHandler *handler.ChatHandler, offerHandler *handler.TradeOfferHandler, callHandler *handler.MiddlemanCallHandler) {
	chats := v1.Group("/chats")

	chats.POST("", chatHandler.CreateChat)
	chats.GET("", chatHandler.GetUserChats)
	chats.GET("/:id", chatHandler.GetChatByID)
	chats.PUT("/:id/read", chatHandler.MarkChatAsRead)
	chats.GET("/:id/unread", chatHandler.GetUnreadCount)

	chats.POST("/:id/messages", chatHandler.SendMessage)
	chats.GET("/:id/messages", chatHandler.GetChatMessages)
	chats.PATCH("/:id/messages/:messageId", chatHandler.EditMessage)

	chats.POST("/:id/trade-offers", offerHandler.CreateTradeOffer)
	chats.POST("/:id/middleman-calls", callHandler.CreateMiddlemanCall)
	chats.POST("/:id/resolve", callHandler.ResolveTrade)
}
