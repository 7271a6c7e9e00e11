package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"tradehub/internal/domain/entity"
	"tradehub/internal/domain/repository"
	"tradehub/internal/domain/service"
	"tradehub/internal/infrastructure/ratelimit"
	"tradehub/pkg/errors"
	"tradehub/pkg/logger"
)

type TradeOfferUseCase struct {
	store     repository.Store
	chats     *ChatUseCase
	followUps *FollowUpUseCase
	gate      *service.PermissionGate
	limiter   ratelimit.Limiter
	profiles  ProfileResolver
	clock     Clock
}

func NewTradeOfferUseCase(
	store repository.Store,
	chats *ChatUseCase,
	followUps *FollowUpUseCase,
	gate *service.PermissionGate,
	limiter ratelimit.Limiter,
	profiles ProfileResolver,
) *TradeOfferUseCase {
	return &TradeOfferUseCase{
		store:     store,
		chats:     chats,
		followUps: followUps,
		gate:      gate,
		limiter:   limiter,
		profiles:  profiles,
		clock:     SystemClock,
	}
}

type OfferItemInput struct {
	ItemID   string
	Quantity int
}

type CreateTradeOfferInput struct {
	ChatID     string
	Offering   []OfferItemInput
	Requesting []OfferItemInput
}

func validateOfferItems(items []OfferItemInput) error {
	for _, item := range items {
		if item.ItemID == "" {
			return errors.Validation("Every offered item needs an item id", nil)
		}
		if item.Quantity <= 0 {
			return errors.Validation("Item quantity must be a positive integer", nil)
		}
	}
	return nil
}

// resolveOfferItems snapshots catalog data into the offer.
func resolveOfferItems(tx repository.Tx, items []OfferItemInput) ([]entity.TradeOfferItem, error) {
	out := make([]entity.TradeOfferItem, 0, len(items))
	for _, in := range items {
		item, err := tx.GetItem(in.ItemID)
		if err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				return nil, errors.Validation("Unknown item "+in.ItemID, err)
			}
			return nil, err
		}
		out = append(out, entity.TradeOfferItem{
			ItemID:    item.ID,
			Quantity:  in.Quantity,
			Name:      item.Name,
			Thumbnail: item.Thumbnail,
			Rarity:    item.Rarity,
		})
	}
	return out, nil
}

// Create posts a trade offer into a trade chat and makes it the chat's active offer.
// A still pending active offer is superseded (cancelled) by the new one; an accepted
// one blocks creation. It returns the id of the anchoring message.
func (uc *TradeOfferUseCase) Create(ctx context.Context, actor entity.Actor, input CreateTradeOfferInput) (messageID string, err error) {
	ctx, span := startSpan(ctx, "TradeOffer.Create",
		attribute.String("chat.id", input.ChatID),
		attribute.String("actor.id", actor.ID))
	defer func() { finishSpan(span, err) }()

	if len(input.Offering)+len(input.Requesting) == 0 {
		return "", errors.Validation("A trade offer needs at least one offered or requested item", nil)
	}
	if err := validateOfferItems(input.Offering); err != nil {
		return "", err
	}
	if err := validateOfferItems(input.Requesting); err != nil {
		return "", err
	}
	if err := checkRateLimit(ctx, uc.limiter, actor.ID, ratelimit.ActionCreateTradeOffer); err != nil {
		logger.Warn("CreateTradeOffer Rate Limited: user %s", actor.ID)
		return "", err
	}

	name := uc.profiles.DisplayName(ctx, actor.ID)

	var box *outbox
	err = uc.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		chat, err := tx.GetChat(input.ChatID)
		if err != nil {
			return err
		}
		if !uc.gate.CanCreateOffer(actor, chat) {
			return errors.Forbidden("You are not allowed to make offers in this chat", nil)
		}
		if chat.Type != entity.ChatTypeTrade {
			return errors.Validation("Trade offers can only be made in trade chats", nil)
		}
		if chat.TradeStatus.IsFinal() {
			return errors.Conflict("This trade has already been resolved")
		}

		var superseded *entity.TradeOffer
		if chat.ActiveTradeOfferID != "" {
			active, err := tx.GetTradeOffer(chat.ActiveTradeOfferID)
			if err != nil && !errors.Is(err, errors.CodeNotFound) {
				return err
			}
			if active != nil {
				switch active.Status {
				case entity.StatusPending:
					superseded = active
				case entity.StatusAccepted:
					return errors.Conflict("The chat already has an accepted trade offer")
				}
			}
		}

		offering, err := resolveOfferItems(tx, input.Offering)
		if err != nil {
			return err
		}
		requesting, err := resolveOfferItems(tx, input.Requesting)
		if err != nil {
			return err
		}

		// Writes only from here on.
		now := uc.clock()
		offer := &entity.TradeOffer{
			ID:         uuid.New().String(),
			Status:     entity.StatusPending,
			Offering:   offering,
			Requesting: requesting,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		message := &entity.Message{
			ID:           uuid.New().String(),
			ChatID:       chat.ID,
			SenderID:     actor.ID,
			Type:         entity.MessageTypeTradeOffer,
			TradeOfferID: offer.ID,
			Timestamp:    now,
		}
		box = newOutbox(offer.ID+":created", chat.ID, now)

		if superseded != nil {
			superseded.Status = entity.StatusCancelled
			superseded.UpdatedAt = now
			if err := tx.PutTradeOffer(superseded); err != nil {
				return err
			}
			box.systemMessage(name + " replaced the pending trade offer with a new one")
		}
		if err := tx.PutTradeOffer(offer); err != nil {
			return err
		}
		if err := tx.CreateMessage(message); err != nil {
			return err
		}

		status := entity.TradeStatusPending
		if err := uc.chats.PatchTradeStatus(tx, chat, entity.ChatPatch{
			TradeStatus:        &status,
			ActiveTradeOfferID: &offer.ID,
			LastMessageAt:      &now,
		}, now); err != nil {
			return err
		}

		box.notify(entity.NotificationTradeOffer, name+" sent you a trade offer", chat.ParticipantIDs, actor.ID)
		if err := box.write(tx); err != nil {
			return err
		}

		messageID = message.ID
		return nil
	})
	if err != nil {
		logger.Error("CreateTradeOffer Error: chat %s, user %s: %v", input.ChatID, actor.ID, err)
		return "", err
	}

	uc.followUps.Dispatch(ctx, box.items)
	return messageID, nil
}

// UpdateStatus moves an offer along the transition table. The legality check reads the
// offer inside the same transaction that writes it, so of two racing transitions the
// second sees the first one's result and fails with an invalid transition.
func (uc *TradeOfferUseCase) UpdateStatus(ctx context.Context, actor entity.Actor, offerID string, target entity.Status) (err error) {
	ctx, span := startSpan(ctx, "TradeOffer.UpdateStatus",
		attribute.String("trade_offer.id", offerID),
		attribute.String("trade_offer.target", string(target)))
	defer func() { finishSpan(span, err) }()

	if !target.Valid() {
		return errors.Validation("Unknown trade offer status "+string(target), nil)
	}

	name := uc.profiles.DisplayName(ctx, actor.ID)

	var box *outbox
	err = uc.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		offer, err := tx.GetTradeOffer(offerID)
		if err != nil {
			return err
		}
		anchor, err := tx.FindMessageByTradeOffer(offerID)
		if err != nil {
			return err
		}
		chat, err := tx.GetChat(anchor.ChatID)
		if err != nil {
			return err
		}

		if !offer.Status.CanTransitionTo(target) {
			return errors.InvalidTransition(string(offer.Status), string(target))
		}
		creatorID := anchor.SenderID
		if !uc.gate.CanTransitionOffer(actor, creatorID, chat, target) {
			if actor.ID == creatorID {
				return errors.Forbidden("You cannot accept or decline your own trade offer", nil)
			}
			return errors.Forbidden("You are not allowed to "+verbFor(target)+" this trade offer", nil)
		}

		now := uc.clock()
		offer.Status = target
		offer.UpdatedAt = now
		if err := tx.PutTradeOffer(offer); err != nil {
			return err
		}

		box = newOutbox(offer.ID+":"+string(target), chat.ID, now)

		if chat.ActiveTradeOfferID == offer.ID && !chat.TradeStatus.IsFinal() {
			var patch entity.ChatPatch
			switch target {
			case entity.StatusAccepted:
				status := entity.TradeStatusAccepted
				patch.TradeStatus = &status
			case entity.StatusDeclined, entity.StatusCancelled:
				status := entity.TradeStatusNone
				patch.TradeStatus = &status
				patch.ActiveTradeOfferID = strPtr("")
			}
			if err := uc.chats.PatchTradeStatus(tx, chat, patch, now); err != nil {
				return err
			}
			box.syncTradeAd()
		}

		box.systemMessage(fmt.Sprintf("Trade offer %s by %s", target, name))
		switch target {
		case entity.StatusAccepted, entity.StatusDeclined:
			box.notify(entity.NotificationTradeUpdate,
				fmt.Sprintf("%s %s your trade offer", name, target), []string{creatorID}, actor.ID)
		case entity.StatusCancelled:
			box.notify(entity.NotificationTradeUpdate,
				name+" cancelled their trade offer", chat.ParticipantIDs, actor.ID)
		}
		return box.write(tx)
	})
	if err != nil {
		logger.Error("UpdateTradeOfferStatus Error: offer %s to %s by %s: %v", offerID, target, actor.ID, err)
		return err
	}

	uc.followUps.Dispatch(ctx, box.items)
	return nil
}

func verbFor(target entity.Status) string {
	switch target {
	case entity.StatusAccepted:
		return "accept"
	case entity.StatusDeclined:
		return "decline"
	case entity.StatusCancelled:
		return "cancel"
	default:
		return "change"
	}
}
