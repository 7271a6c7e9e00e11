package entity

// Item is a catalog entry. Trade offers copy its display fields at creation time.
type Item struct {
	ID        string `json:"id" firestore:"id"`
	GameID    string `json:"game_id" firestore:"gameId"`
	Name      string `json:"name" firestore:"name"`
	Thumbnail string `json:"thumbnail,omitempty" firestore:"thumbnail,omitempty"`
	Rarity    string `json:"rarity,omitempty" firestore:"rarity,omitempty"`
}
