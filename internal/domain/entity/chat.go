package entity

import (
	"sort"
	"strings"
	"time"
)

type ChatType string

const (
	ChatTypeTrade         ChatType = "trade"
	ChatTypeDirectMessage ChatType = "direct_message"
)

type TradeStatus string

const (
	TradeStatusNone                TradeStatus = "none"
	TradeStatusPending             TradeStatus = "pending"
	TradeStatusAccepted            TradeStatus = "accepted"
	TradeStatusWaitingForMiddleman TradeStatus = "waiting_for_middleman"
	TradeStatusCompleted           TradeStatus = "completed"
	TradeStatusCancelled           TradeStatus = "cancelled"
)

// IsFinal is true once a middleman has resolved the trade.
func (s TradeStatus) IsFinal() bool {
	return s == TradeStatusCompleted || s == TradeStatusCancelled
}

type Chat struct {
	ID                 string      `json:"id" firestore:"id"`
	Type               ChatType    `json:"type" firestore:"type"`
	ParticipantIDs     []string    `json:"participant_ids" firestore:"participantIds"`
	TradeAdID          string      `json:"trade_ad_id,omitempty" firestore:"tradeAdId,omitempty"`
	TradeStatus        TradeStatus `json:"trade_status" firestore:"tradeStatus"`
	ActiveTradeOfferID string      `json:"active_trade_offer_id,omitempty" firestore:"activeTradeOfferId,omitempty"`
	MiddlemanID        string      `json:"middleman_id,omitempty" firestore:"middlemanId,omitempty"`
	DedupeKey          string      `json:"dedupe_key" firestore:"dedupeKey"`
	LastMessageAt      time.Time   `json:"last_message_at" firestore:"lastMessageAt"`
	CreatedAt          time.Time   `json:"created_at" firestore:"createdAt"`
	UpdatedAt          time.Time   `json:"updated_at" firestore:"updatedAt"`
}

func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.ParticipantIDs {
		if p == userID {
			return true
		}
	}
	return false
}

// ChatDedupeKey derives the uniqueness key of a chat: the sorted participant set, plus
// the trade ad for trade chats. Participant order never matters.
func ChatDedupeKey(chatType ChatType, participantIDs []string, tradeAdID string) string {
	ids := make([]string, len(participantIDs))
	copy(ids, participantIDs)
	sort.Strings(ids)

	key := string(chatType) + ":" + strings.Join(ids, ",")
	if chatType == ChatTypeTrade {
		key += "|ad:" + tradeAdID
	}
	return key
}

// ChatPatch carries the trade-level fields of a chat. Nil fields are left untouched;
// a pointer to "" clears the field.
type ChatPatch struct {
	TradeStatus        *TradeStatus
	ActiveTradeOfferID *string
	MiddlemanID        *string
	LastMessageAt      *time.Time
}

func (p ChatPatch) Apply(c *Chat, now time.Time) {
	if p.TradeStatus != nil {
		c.TradeStatus = *p.TradeStatus
	}
	if p.ActiveTradeOfferID != nil {
		c.ActiveTradeOfferID = *p.ActiveTradeOfferID
	}
	if p.MiddlemanID != nil {
		c.MiddlemanID = *p.MiddlemanID
	}
	if p.LastMessageAt != nil && p.LastMessageAt.After(c.LastMessageAt) {
		c.LastMessageAt = *p.LastMessageAt
	}
	c.UpdatedAt = now
}
