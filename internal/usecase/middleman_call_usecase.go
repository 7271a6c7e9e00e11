package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"tradehub/internal/domain/entity"
	"tradehub/internal/domain/repository"
	"tradehub/internal/domain/service"
	"tradehub/internal/infrastructure/ratelimit"
	"tradehub/pkg/errors"
	"tradehub/pkg/logger"
)

const maxCallReasonLength = 500

type MiddlemanCallUseCase struct {
	store     repository.Store
	chats     *ChatUseCase
	followUps *FollowUpUseCase
	gate      *service.PermissionGate
	limiter   ratelimit.Limiter
	profiles  ProfileResolver
	clock     Clock
}

func NewMiddlemanCallUseCase(
	store repository.Store,
	chats *ChatUseCase,
	followUps *FollowUpUseCase,
	gate *service.PermissionGate,
	limiter ratelimit.Limiter,
	profiles ProfileResolver,
) *MiddlemanCallUseCase {
	return &MiddlemanCallUseCase{
		store:     store,
		chats:     chats,
		followUps: followUps,
		gate:      gate,
		limiter:   limiter,
		profiles:  profiles,
		clock:     SystemClock,
	}
}

type CreateMiddlemanCallInput struct {
	ChatID             string
	Reason             string
	EstimatedWaitTime  int
	DesiredMiddlemanID string
}

// PendingCall is a queue entry for middlemen.
type PendingCall struct {
	*entity.MiddlemanCall
	ChatID      string `json:"chat_id"`
	RequesterID string `json:"requester_id"`
}

// Create asks for a middleman in a chat. A chat holds at most one pending or accepted
// call; a second one is a conflict.
func (uc *MiddlemanCallUseCase) Create(ctx context.Context, actor entity.Actor, input CreateMiddlemanCallInput) (messageID string, err error) {
	ctx, span := startSpan(ctx, "MiddlemanCall.Create",
		attribute.String("chat.id", input.ChatID),
		attribute.String("actor.id", actor.ID))
	defer func() { finishSpan(span, err) }()

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return "", errors.Validation("A reason is required", nil)
	}
	if utf8.RuneCountInString(reason) > maxCallReasonLength {
		return "", errors.Validation(fmt.Sprintf("Reason must be at most %d characters", maxCallReasonLength), nil)
	}
	if input.EstimatedWaitTime < 0 {
		return "", errors.Validation("Estimated wait time cannot be negative", nil)
	}
	if input.DesiredMiddlemanID != "" && input.DesiredMiddlemanID == actor.ID {
		return "", errors.Validation("You cannot request yourself as middleman", nil)
	}
	if err := checkRateLimit(ctx, uc.limiter, actor.ID, ratelimit.ActionCreateMiddlemanCall); err != nil {
		logger.Warn("CreateMiddlemanCall Rate Limited: user %s", actor.ID)
		return "", err
	}

	name := uc.profiles.DisplayName(ctx, actor.ID)

	var box *outbox
	err = uc.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		chat, err := tx.GetChat(input.ChatID)
		if err != nil {
			return err
		}
		if !uc.gate.CanCreateCall(actor, chat) {
			return errors.Forbidden("You are not a participant of this chat", nil)
		}
		if chat.TradeStatus.IsFinal() {
			return errors.Conflict("This trade has already been resolved")
		}

		if input.DesiredMiddlemanID != "" {
			desired, err := tx.GetUser(input.DesiredMiddlemanID)
			if err != nil {
				if errors.Is(err, errors.CodeNotFound) {
					return errors.Validation("Requested middleman does not exist", err)
				}
				return err
			}
			if !desired.Actor().IsMediator() {
				return errors.Validation("Requested user is not a middleman", nil)
			}
			if chat.HasParticipant(desired.ID) {
				return errors.Validation("A party to this chat cannot act as its middleman", nil)
			}
		}

		anchors, err := tx.ListMessagesByType(chat.ID, entity.MessageTypeMiddlemanCall)
		if err != nil {
			return err
		}
		for _, anchor := range anchors {
			existing, err := tx.GetMiddlemanCall(anchor.MiddlemanCallID)
			if err != nil {
				if errors.Is(err, errors.CodeNotFound) {
					continue
				}
				return err
			}
			if existing.Status.IsActive() {
				return errors.Conflict("This chat already has an active middleman call")
			}
		}

		// Writes only from here on.
		now := uc.clock()
		call := &entity.MiddlemanCall{
			ID:                 uuid.New().String(),
			Status:             entity.StatusPending,
			Reason:             reason,
			EstimatedWaitTime:  input.EstimatedWaitTime,
			DesiredMiddlemanID: input.DesiredMiddlemanID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		message := &entity.Message{
			ID:              uuid.New().String(),
			ChatID:          chat.ID,
			SenderID:        actor.ID,
			Type:            entity.MessageTypeMiddlemanCall,
			MiddlemanCallID: call.ID,
			Timestamp:       now,
		}
		if err := tx.PutMiddlemanCall(call); err != nil {
			return err
		}
		if err := tx.CreateMessage(message); err != nil {
			return err
		}

		patch := entity.ChatPatch{LastMessageAt: &now}
		if chat.TradeStatus == entity.TradeStatusAccepted {
			status := entity.TradeStatusWaitingForMiddleman
			patch.TradeStatus = &status
		}
		if err := uc.chats.PatchTradeStatus(tx, chat, patch, now); err != nil {
			return err
		}

		box = newOutbox(call.ID+":created", chat.ID, now)
		content := fmt.Sprintf("%s requested a middleman: %s", name, reason)
		if call.DesiredMiddlemanID != "" {
			box.notify(entity.NotificationMiddlemanCall, content, []string{call.DesiredMiddlemanID}, actor.ID)
		} else {
			box.notifyRole(entity.NotificationMiddlemanCall, content, entity.RoleMiddleman, actor.ID)
		}
		if err := box.write(tx); err != nil {
			return err
		}

		messageID = message.ID
		return nil
	})
	if err != nil {
		logger.Error("CreateMiddlemanCall Error: chat %s, user %s: %v", input.ChatID, actor.ID, err)
		return "", err
	}

	uc.followUps.Dispatch(ctx, box.items)
	return messageID, nil
}

// UpdateStatus moves a call along the transition table. Accepting assigns the acting
// middleman to the chat. Declining or cancelling leaves every chat field as it is: a
// rejected call does not unwind a trade already in progress.
func (uc *MiddlemanCallUseCase) UpdateStatus(ctx context.Context, actor entity.Actor, callID string, target entity.Status) (err error) {
	ctx, span := startSpan(ctx, "MiddlemanCall.UpdateStatus",
		attribute.String("middleman_call.id", callID),
		attribute.String("middleman_call.target", string(target)))
	defer func() { finishSpan(span, err) }()

	if !target.Valid() {
		return errors.Validation("Unknown middleman call status "+string(target), nil)
	}

	name := uc.profiles.DisplayName(ctx, actor.ID)

	var box *outbox
	err = uc.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		call, err := tx.GetMiddlemanCall(callID)
		if err != nil {
			return err
		}
		anchor, err := tx.FindMessageByMiddlemanCall(callID)
		if err != nil {
			return err
		}
		chat, err := tx.GetChat(anchor.ChatID)
		if err != nil {
			return err
		}

		if !call.Status.CanTransitionTo(target) {
			return errors.InvalidTransition(string(call.Status), string(target))
		}
		creatorID := anchor.SenderID
		if !uc.gate.CanTransitionCall(actor, creatorID, call, chat, target) {
			return errors.Forbidden("You are not allowed to "+verbFor(target)+" this middleman call", nil)
		}

		now := uc.clock()
		call.Status = target
		call.UpdatedAt = now
		if err := tx.PutMiddlemanCall(call); err != nil {
			return err
		}

		if target == entity.StatusAccepted {
			if err := uc.chats.PatchTradeStatus(tx, chat, entity.ChatPatch{MiddlemanID: strPtr(actor.ID)}, now); err != nil {
				return err
			}
		}

		box = newOutbox(call.ID+":"+string(target), chat.ID, now)
		switch target {
		case entity.StatusAccepted:
			box.systemMessage(name + " joined as middleman")
			box.notify(entity.NotificationMiddleman, name+" accepted your middleman request", chat.ParticipantIDs, actor.ID)
		case entity.StatusDeclined:
			box.systemMessage(fmt.Sprintf("Middleman request declined by %s", name))
			box.notify(entity.NotificationMiddleman, name+" declined your middleman request", []string{creatorID}, actor.ID)
		case entity.StatusCancelled:
			box.systemMessage(fmt.Sprintf("Middleman request cancelled by %s", name))
			if call.DesiredMiddlemanID != "" {
				box.notify(entity.NotificationMiddleman, name+" cancelled their middleman request", []string{call.DesiredMiddlemanID}, actor.ID)
			}
		}
		return box.write(tx)
	})
	if err != nil {
		logger.Error("UpdateMiddlemanCallStatus Error: call %s to %s by %s: %v", callID, target, actor.ID, err)
		return err
	}

	uc.followUps.Dispatch(ctx, box.items)
	return nil
}

// ResolveByMiddleman finishes a trade as completed or cancelled. It is the only way a
// chat reaches either final status, and it does not touch the offer or call records.
func (uc *MiddlemanCallUseCase) ResolveByMiddleman(ctx context.Context, actor entity.Actor, chatID string, outcome entity.TradeStatus) (err error) {
	ctx, span := startSpan(ctx, "MiddlemanCall.Resolve",
		attribute.String("chat.id", chatID),
		attribute.String("trade.outcome", string(outcome)))
	defer func() { finishSpan(span, err) }()

	if !outcome.IsFinal() {
		return errors.Validation("Outcome must be completed or cancelled", nil)
	}

	name := uc.profiles.DisplayName(ctx, actor.ID)

	var box *outbox
	err = uc.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		chat, err := tx.GetChat(chatID)
		if err != nil {
			return err
		}
		if !uc.gate.CanResolve(actor, chat) {
			return errors.Forbidden("Only the chat's middleman can resolve this trade", nil)
		}
		if chat.Type != entity.ChatTypeTrade {
			return errors.Validation("Only trade chats can be resolved", nil)
		}
		if chat.TradeStatus.IsFinal() {
			return errors.InvalidTransition(string(chat.TradeStatus), string(outcome))
		}

		now := uc.clock()
		if err := uc.chats.PatchTradeStatus(tx, chat, entity.ChatPatch{
			TradeStatus:        &outcome,
			ActiveTradeOfferID: strPtr(""),
			MiddlemanID:        strPtr(""),
		}, now); err != nil {
			return err
		}

		box = newOutbox(chat.ID+":resolved:"+string(outcome), chat.ID, now)
		box.syncTradeAd()
		box.systemMessage(fmt.Sprintf("Trade %s by middleman %s", outcome, name))
		box.notify(entity.NotificationTradeResolved, fmt.Sprintf("Your trade was %s by %s", outcome, name), chat.ParticipantIDs, actor.ID)
		return box.write(tx)
	})
	if err != nil {
		logger.Error("ResolveByMiddleman Error: chat %s by %s: %v", chatID, actor.ID, err)
		return err
	}

	uc.followUps.Dispatch(ctx, box.items)
	return nil
}

// ListPending returns the pending calls routed to the actor, oldest first.
func (uc *MiddlemanCallUseCase) ListPending(ctx context.Context, actor entity.Actor) ([]*PendingCall, error) {
	if !actor.IsMediator() {
		return nil, errors.Forbidden("Middleman privileges required", nil)
	}

	var out []*PendingCall
	err := uc.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		calls, err := tx.ListMiddlemanCallsByStatus(entity.StatusPending)
		if err != nil {
			return err
		}
		out = make([]*PendingCall, 0, len(calls))
		for _, call := range calls {
			anchor, err := tx.FindMessageByMiddlemanCall(call.ID)
			if err != nil {
				if errors.Is(err, errors.CodeNotFound) {
					continue
				}
				return err
			}
			chat, err := tx.GetChat(anchor.ChatID)
			if err != nil {
				if errors.Is(err, errors.CodeNotFound) {
					continue
				}
				return err
			}
			if anchor.SenderID == actor.ID || !uc.gate.CanSeeCall(actor, call, chat) {
				continue
			}
			out = append(out, &PendingCall{MiddlemanCall: call, ChatID: anchor.ChatID, RequesterID: anchor.SenderID})
		}
		return nil
	})
	if err != nil {
		logger.Error("ListPendingMiddlemanCalls Error: user %s: %v", actor.ID, err)
		return nil, err
	}
	return out, nil
}
