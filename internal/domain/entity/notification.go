package entity

import "time"

const (
	NotificationTradeOffer    = "trade_offer"
	NotificationTradeUpdate   = "trade_update"
	NotificationMiddlemanCall = "middleman_call"
	NotificationMiddleman     = "middleman_update"
	NotificationTradeResolved = "trade_resolved"
	NotificationSystem        = "system"
)

type Notification struct {
	ID        string    `json:"id" firestore:"id"`
	UserID    string    `json:"user_id" firestore:"userId"`
	Type      string    `json:"type" firestore:"type"`
	Content   string    `json:"content" firestore:"content"`
	ChatID    string    `json:"chat_id,omitempty" firestore:"chatId,omitempty"`
	VouchID   string    `json:"vouch_id,omitempty" firestore:"vouchId,omitempty"`
	Read      bool      `json:"read" firestore:"read"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
