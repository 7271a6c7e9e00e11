package repository

const (
	collectionChats          = "chats"
	collectionMessages       = "messages"
	collectionTradeOffers    = "tradeOffers"
	collectionMiddlemanCalls = "middlemanCalls"
	collectionTradeAds       = "tradeAds"
	collectionReadStates     = "readStates"
	collectionNotifications  = "notifications"
	collectionFollowUps      = "followUps"
	collectionUsers          = "users"
	collectionItems          = "items"
)
