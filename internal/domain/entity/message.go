package entity

import "time"

type MessageType string

const (
	MessageTypeText          MessageType = "message"
	MessageTypeTradeOffer    MessageType = "trade_offer"
	MessageTypeSystem        MessageType = "system"
	MessageTypeMiddlemanCall MessageType = "middleman_call"
)

// Message is append-only. Text messages may have their content edited; nothing else changes.
type Message struct {
	ID              string      `json:"id" firestore:"id"`
	ChatID          string      `json:"chat_id" firestore:"chatId"`
	SenderID        string      `json:"sender_id,omitempty" firestore:"senderId,omitempty"` // empty for system messages
	Type            MessageType `json:"type" firestore:"type"`
	Content         string      `json:"content,omitempty" firestore:"content,omitempty"`
	TradeOfferID    string      `json:"trade_offer_id,omitempty" firestore:"tradeOfferId,omitempty"`
	MiddlemanCallID string      `json:"middleman_call_id,omitempty" firestore:"middlemanCallId,omitempty"`
	Timestamp       time.Time   `json:"timestamp" firestore:"timestamp"`
	EditedAt        *time.Time  `json:"edited_at,omitempty" firestore:"editedAt,omitempty"`
}

// After orders messages by timestamp, breaking ties by id.
func (m *Message) After(other *Message) bool {
	if m.Timestamp.Equal(other.Timestamp) {
		return m.ID > other.ID
	}
	return m.Timestamp.After(other.Timestamp)
}
