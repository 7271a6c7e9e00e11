package repository

import (
	"tradehub/internal/domain/entity"
)

type TradeOfferRepository interface {
	GetTradeOffer(id string) (*entity.TradeOffer, error)
	PutTradeOffer(offer *entity.TradeOffer) error
}

type MiddlemanCallRepository interface {
	GetMiddlemanCall(id string) (*entity.MiddlemanCall, error)
	ListMiddlemanCallsByStatus(status entity.Status) ([]*entity.MiddlemanCall, error)
	PutMiddlemanCall(call *entity.MiddlemanCall) error
}

type TradeAdRepository interface {
	GetTradeAd(id string) (*entity.TradeAd, error)
	ListTradeAdsByStatus(status entity.TradeAdStatus, limit, offset int) ([]*entity.TradeAd, int64, error)
	PutTradeAd(ad *entity.TradeAd) error
}

type ItemRepository interface {
	GetItem(id string) (*entity.Item, error)
	PutItem(item *entity.Item) error
}
