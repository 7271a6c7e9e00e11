package entity

import "time"

// TradeOfferItem is a snapshot of a catalog item taken when the offer is made.
type TradeOfferItem struct {
	ItemID    string `json:"item_id" firestore:"itemId"`
	Quantity  int    `json:"quantity" firestore:"quantity"`
	Name      string `json:"name" firestore:"name"`
	Thumbnail string `json:"thumbnail,omitempty" firestore:"thumbnail,omitempty"`
	Rarity    string `json:"rarity,omitempty" firestore:"rarity,omitempty"`
}

type TradeOffer struct {
	ID         string           `json:"id" firestore:"id"`
	Status     Status           `json:"status" firestore:"status"`
	Offering   []TradeOfferItem `json:"offering" firestore:"offering"`
	Requesting []TradeOfferItem `json:"requesting" firestore:"requesting"`
	CreatedAt  time.Time        `json:"created_at" firestore:"createdAt"`
	UpdatedAt  time.Time        `json:"updated_at" firestore:"updatedAt"`
}
