package entity

import (
	"time"
)

type TradeAdStatus string

const (
	TradeAdOpen      TradeAdStatus = "open"
	TradeAdClosed    TradeAdStatus = "closed"
	TradeAdExpired   TradeAdStatus = "expired"
	TradeAdCancelled TradeAdStatus = "cancelled"
)

type TradeAdItem struct {
	ItemID    string   `json:"item_id" firestore:"itemId"`
	Quantity  int      `json:"quantity" firestore:"quantity"`
	Weight    *float64 `json:"weight,omitempty" firestore:"weight,omitempty"`
	Mutations []string `json:"mutations,omitempty" firestore:"mutations,omitempty"`
}

type TradeAd struct {
	ID        string        `json:"id" firestore:"id"`
	CreatorID string        `json:"creator_id" firestore:"creatorId"`
	HaveItems []TradeAdItem `json:"have_items" firestore:"haveItems"`
	WantItems []TradeAdItem `json:"want_items" firestore:"wantItems"`
	Status    TradeAdStatus `json:"status" firestore:"status"`
	ClosedAt  *time.Time    `json:"closed_at,omitempty" firestore:"closedAt,omitempty"`
	CreatedAt time.Time     `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time     `json:"updated_at" firestore:"updatedAt"`
}

// Close marks an open ad closed. It reports whether anything changed.
func (a *TradeAd) Close(now time.Time) bool {
	if a.Status != TradeAdOpen {
		return false
	}
	a.Status = TradeAdClosed
	a.ClosedAt = &now
	a.UpdatedAt = now
	return true
}

// Reopen only resurrects ads closed by a trade; expired and cancelled ads stay put.
func (a *TradeAd) Reopen(now time.Time) bool {
	if a.Status != TradeAdClosed {
		return false
	}
	a.Status = TradeAdOpen
	a.ClosedAt = nil
	a.UpdatedAt = now
	return true
}
