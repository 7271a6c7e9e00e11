package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"tradehub/internal/domain/entity"
	"tradehub/internal/domain/repository"
	"tradehub/internal/domain/service"
	"tradehub/internal/infrastructure/ratelimit"
	"tradehub/pkg/errors"
	"tradehub/pkg/logger"
)

type TradeAdUseCase struct {
	store   repository.Store
	gate    *service.PermissionGate
	limiter ratelimit.Limiter
	clock   Clock
}

func NewTradeAdUseCase(store repository.Store, gate *service.PermissionGate, limiter ratelimit.Limiter) *TradeAdUseCase {
	return &TradeAdUseCase{
		store:   store,
		gate:    gate,
		limiter: limiter,
		clock:   SystemClock,
	}
}

type CreateTradeAdInput struct {
	HaveItems []entity.TradeAdItem
	WantItems []entity.TradeAdItem
}

func validateTradeAdItems(items []entity.TradeAdItem) error {
	for _, item := range items {
		if item.ItemID == "" {
			return errors.Validation("Every item needs an item id", nil)
		}
		if item.Quantity <= 0 {
			return errors.Validation("Item quantity must be a positive integer", nil)
		}
		if item.Weight != nil && *item.Weight <= 0 {
			return errors.Validation("Item weight must be positive", nil)
		}
	}
	return nil
}

func (uc *TradeAdUseCase) Create(ctx context.Context, actor entity.Actor, input CreateTradeAdInput) (ad *entity.TradeAd, err error) {
	ctx, span := startSpan(ctx, "TradeAd.Create", attribute.String("actor.id", actor.ID))
	defer func() { finishSpan(span, err) }()

	if len(input.HaveItems)+len(input.WantItems) == 0 {
		return nil, errors.Validation("A trade ad needs at least one item it has or wants", nil)
	}
	if err := validateTradeAdItems(input.HaveItems); err != nil {
		return nil, err
	}
	if err := validateTradeAdItems(input.WantItems); err != nil {
		return nil, err
	}
	if err := checkRateLimit(ctx, uc.limiter, actor.ID, ratelimit.ActionCreateTradeAd); err != nil {
		logger.Warn("CreateTradeAd Rate Limited: user %s", actor.ID)
		return nil, err
	}

	err = uc.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		for _, item := range append(append([]entity.TradeAdItem{}, input.HaveItems...), input.WantItems...) {
			if _, err := tx.GetItem(item.ItemID); err != nil {
				if errors.Is(err, errors.CodeNotFound) {
					return errors.Validation("Unknown item "+item.ItemID, err)
				}
				return err
			}
		}

		now := uc.clock()
		ad = &entity.TradeAd{
			ID:        uuid.New().String(),
			CreatorID: actor.ID,
			HaveItems: input.HaveItems,
			WantItems: input.WantItems,
			Status:    entity.TradeAdOpen,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.PutTradeAd(ad)
	})
	if err != nil {
		logger.Error("CreateTradeAd Error: user %s: %v", actor.ID, err)
		return nil, err
	}
	return ad, nil
}

func (uc *TradeAdUseCase) Get(ctx context.Context, adID string) (*entity.TradeAd, error) {
	var ad *entity.TradeAd
	err := uc.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		ad, err = tx.GetTradeAd(adID)
		return err
	})
	return ad, err
}

func (uc *TradeAdUseCase) ListOpen(ctx context.Context, limit, offset int) ([]*entity.TradeAd, int64, error) {
	var (
		ads   []*entity.TradeAd
		total int64
	)
	err := uc.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		ads, total, err = tx.ListTradeAdsByStatus(entity.TradeAdOpen, limit, offset)
		return err
	})
	if err != nil {
		logger.Error("ListOpenTradeAds Error: %v", err)
		return nil, 0, err
	}
	return ads, total, nil
}

// Cancel withdraws an open ad. Owner or admin only.
func (uc *TradeAdUseCase) Cancel(ctx context.Context, actor entity.Actor, adID string) (*entity.TradeAd, error) {
	return uc.retire(ctx, actor, adID, entity.TradeAdCancelled, func(ad *entity.TradeAd) bool {
		return uc.gate.CanManageTradeAd(actor, ad)
	})
}

// Expire retires an open ad on behalf of the marketplace. Admin only.
func (uc *TradeAdUseCase) Expire(ctx context.Context, actor entity.Actor, adID string) (*entity.TradeAd, error) {
	return uc.retire(ctx, actor, adID, entity.TradeAdExpired, func(*entity.TradeAd) bool {
		return actor.IsAdmin()
	})
}

func (uc *TradeAdUseCase) retire(ctx context.Context, actor entity.Actor, adID string, target entity.TradeAdStatus, allowed func(*entity.TradeAd) bool) (ad *entity.TradeAd, err error) {
	ctx, span := startSpan(ctx, "TradeAd.Retire",
		attribute.String("trade_ad.id", adID),
		attribute.String("trade_ad.target", string(target)))
	defer func() { finishSpan(span, err) }()

	err = uc.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		ad, err = tx.GetTradeAd(adID)
		if err != nil {
			return err
		}
		if !allowed(ad) {
			return errors.Forbidden("You are not allowed to manage this trade ad", nil)
		}
		if ad.Status != entity.TradeAdOpen {
			return errors.InvalidTransition(string(ad.Status), string(target))
		}

		now := uc.clock()
		ad.Status = target
		ad.ClosedAt = &now
		ad.UpdatedAt = now
		return tx.PutTradeAd(ad)
	})
	if err != nil {
		return nil, err
	}
	return ad, nil
}

// SyncWithChat closes or reopens the chat's trade ad so that it matches the chat's
// trade status. Chats whose trade is accepted, waiting for a middleman or resolved
// hold the ad closed; anything else releases it. It reports whether the ad changed.
func (uc *TradeAdUseCase) SyncWithChat(tx repository.Tx, chat *entity.Chat, now time.Time) (bool, error) {
	if chat.TradeAdID == "" {
		return false, nil
	}

	ad, err := tx.GetTradeAd(chat.TradeAdID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}

	var changed bool
	switch chat.TradeStatus {
	case entity.TradeStatusAccepted, entity.TradeStatusWaitingForMiddleman,
		entity.TradeStatusCompleted, entity.TradeStatusCancelled:
		changed = ad.Close(now)
	default:
		changed = ad.Reopen(now)
	}
	if !changed {
		return false, nil
	}
	return true, tx.PutTradeAd(ad)
}
