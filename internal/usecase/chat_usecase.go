package usecase

import (
	"context"
	"strings"
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

const maxMessageLength = 2000

// ChatUseCase owns the chat aggregate. Every change to a chat's trade status, active
// offer or assigned middleman goes through PatchTradeStatus.
type ChatUseCase struct {
	store   repository.Store
	gate    *service.PermissionGate
	limiter ratelimit.Limiter
	clock   Clock
}

func NewChatUseCase(store repository.Store, gate *service.PermissionGate, limiter ratelimit.Limiter) *ChatUseCase {
	return &ChatUseCase{
		store:   store,
		gate:    gate,
		limiter: limiter,
		clock:   SystemClock,
	}
}

type CreateChatInput struct {
	Type           entity.ChatType
	ParticipantIDs []string
	TradeAdID      string
}

type ChatSummary struct {
	*entity.Chat
	UnreadCount int `json:"unread_count"`
}

func normalizeParticipants(actorID string, ids []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, id := range append([]string{actorID}, ids...) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// CreateChat returns the existing chat when one with the same participants (and trade
// ad, for trade chats) already exists. The chat id is derived from that key, so two
// racing creators end up with the same document.
func (uc *ChatUseCase) CreateChat(ctx context.Context, actor entity.Actor, input CreateChatInput) (chat *entity.Chat, err error) {
	ctx, span := startSpan(ctx, "Chat.Create", attribute.String("chat.type", string(input.Type)))
	defer func() { finishSpan(span, err) }()

	participants := normalizeParticipants(actor.ID, input.ParticipantIDs)
	if len(participants) < 2 {
		return nil, errors.Validation("A chat needs at least two distinct participants", nil)
	}
	switch input.Type {
	case entity.ChatTypeTrade:
		if input.TradeAdID == "" {
			return nil, errors.Validation("Trade chats must reference a trade ad", nil)
		}
	case entity.ChatTypeDirectMessage:
		if input.TradeAdID != "" {
			return nil, errors.Validation("Direct messages cannot reference a trade ad", nil)
		}
	default:
		return nil, errors.Validation("Unknown chat type", nil)
	}

	if err := checkRateLimit(ctx, uc.limiter, actor.ID, ratelimit.ActionCreateChat); err != nil {
		logger.Warn("CreateChat Rate Limited: user %s", actor.ID)
		return nil, err
	}

	key := entity.ChatDedupeKey(input.Type, participants, input.TradeAdID)
	chatID := entity.ChatIDForKey(key)

	err = uc.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		existing, err := tx.GetChat(chatID)
		if err == nil {
			chat = existing
			return nil
		}
		if !errors.Is(err, errors.CodeNotFound) {
			return err
		}

		if input.Type == entity.ChatTypeTrade {
			ad, err := tx.GetTradeAd(input.TradeAdID)
			if err != nil {
				return err
			}
			if ad.Status != entity.TradeAdOpen {
				return errors.Conflict("Trade ad is no longer open")
			}
			if !containsString(participants, ad.CreatorID) {
				return errors.Validation("Trade chats must include the trade ad's creator", nil)
			}
		}

		now := uc.clock()
		chat = &entity.Chat{
			ID:             chatID,
			Type:           input.Type,
			ParticipantIDs: participants,
			TradeAdID:      input.TradeAdID,
			TradeStatus:    entity.TradeStatusNone,
			DedupeKey:      key,
			LastMessageAt:  now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return tx.CreateChat(chat)
	})
	if errors.Is(err, errors.CodeConflict) {
		// Lost a creation race; the winner's chat is the one to use.
		if existing, getErr := uc.load(ctx, chatID); getErr == nil {
			return existing, nil
		}
	}
	if err != nil {
		logger.Error("CreateChat Error: user %s: %v", actor.ID, err)
		return nil, err
	}
	return chat, nil
}

func (uc *ChatUseCase) load(ctx context.Context, chatID string) (*entity.Chat, error) {
	var chat *entity.Chat
	err := uc.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		chat, err = tx.GetChat(chatID)
		return err
	})
	return chat, err
}

func (uc *ChatUseCase) GetChat(ctx context.Context, actor entity.Actor, chatID string) (*entity.Chat, error) {
	chat, err := uc.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !uc.gate.CanViewChat(actor, chat) {
		return nil, errors.Forbidden("You are not a participant of this chat", nil)
	}
	return chat, nil
}

func (uc *ChatUseCase) ListUserChats(ctx context.Context, actor entity.Actor, limit, offset int) ([]*ChatSummary, int64, error) {
	var (
		summaries []*ChatSummary
		total     int64
	)
	err := uc.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		chats, n, err := tx.ListChatsByParticipant(actor.ID, limit, offset)
		if err != nil {
			return err
		}
		total = n
		summaries = make([]*ChatSummary, 0, len(chats))
		for _, chat := range chats {
			unread, err := unreadCount(tx, chat.ID, actor.ID)
			if err != nil {
				return err
			}
			summaries = append(summaries, &ChatSummary{Chat: chat, UnreadCount: unread})
		}
		return nil
	})
	if err != nil {
		logger.Error("ListUserChats Error: user %s: %v", actor.ID, err)
		return nil, 0, err
	}
	return summaries, total, nil
}

// PatchTradeStatus is the only writer of a chat's trade status, active offer and
// assigned middleman. It must be called after every read of the enclosing transaction.
// The patch is rejected when it would leave an active offer on a chat that has no
// trade in progress.
func (uc *ChatUseCase) PatchTradeStatus(tx repository.Tx, chat *entity.Chat, patch entity.ChatPatch, now time.Time) error {
	next := *chat
	patch.Apply(&next, now)

	if next.Type != entity.ChatTypeTrade && next.TradeStatus != entity.TradeStatusNone {
		return errors.Validation("Only trade chats carry a trade status", nil)
	}
	if next.ActiveTradeOfferID != "" && (next.TradeStatus == entity.TradeStatusNone || next.TradeStatus.IsFinal()) {
		return errors.Internal("chat "+chat.ID+" would keep an active offer with trade status "+string(next.TradeStatus), nil)
	}
	if next.TradeStatus == entity.TradeStatusAccepted && next.ActiveTradeOfferID == "" {
		return errors.Internal("chat "+chat.ID+" accepted without an active offer", nil)
	}

	if err := tx.PutChat(&next); err != nil {
		return err
	}
	*chat = next
	return nil
}

// MarkRead moves the caller's read position forward to messageID. Older or equal
// positions are ignored, so repeating the call changes nothing.
func (uc *ChatUseCase) MarkRead(ctx context.Context, actor entity.Actor, chatID, messageID string) (err error) {
	ctx, span := startSpan(ctx, "Chat.MarkRead", attribute.String("chat.id", chatID))
	defer func() { finishSpan(span, err) }()

	return uc.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		chat, err := tx.GetChat(chatID)
		if err != nil {
			return err
		}
		if !uc.gate.CanViewChat(actor, chat) {
			return errors.Forbidden("You are not a participant of this chat", nil)
		}

		message, err := tx.GetMessage(messageID)
		if err != nil {
			return err
		}
		if message.ChatID != chatID {
			return errors.NotFound("Message", nil)
		}

		state, err := tx.GetReadState(chatID, actor.ID)
		if err != nil && !errors.Is(err, errors.CodeNotFound) {
			return err
		}
		if state != nil && !message.After(readPosition(state)) {
			return nil
		}

		return tx.PutReadState(&entity.ReadState{
			ID:                entity.ReadStateID(chatID, actor.ID),
			ChatID:            chatID,
			UserID:            actor.ID,
			LastReadMessageID: message.ID,
			LastReadAt:        message.Timestamp,
		})
	})
}

func readPosition(state *entity.ReadState) *entity.Message {
	return &entity.Message{ID: state.LastReadMessageID, Timestamp: state.LastReadAt}
}

func (uc *ChatUseCase) UnreadCount(ctx context.Context, actor entity.Actor, chatID string) (int, error) {
	var count int
	err := uc.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		chat, err := tx.GetChat(chatID)
		if err != nil {
			return err
		}
		if !uc.gate.CanViewChat(actor, chat) {
			return errors.Forbidden("You are not a participant of this chat", nil)
		}
		count, err = unreadCount(tx, chatID, actor.ID)
		return err
	})
	return count, err
}

// unreadCount counts messages after the user's read position that the user did not
// send. System messages count.
func unreadCount(tx repository.Tx, chatID, userID string) (int, error) {
	state, err := tx.GetReadState(chatID, userID)
	if err != nil && !errors.Is(err, errors.CodeNotFound) {
		return 0, err
	}

	var after time.Time
	if state != nil {
		// Step back one tick so messages sharing the read timestamp are compared by id.
		after = state.LastReadAt.Add(-time.Microsecond)
	}

	messages, err := tx.ListMessagesAfter(chatID, after)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range messages {
		if m.SenderID == userID {
			continue
		}
		if state != nil && !m.After(readPosition(state)) {
			continue
		}
		count++
	}
	return count, nil
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errors.Validation("Message content is required", nil)
	}
	if len(content) > maxMessageLength {
		return "", errors.Validation("Message content is too long", nil)
	}
	return content, nil
}

func (uc *ChatUseCase) SendMessage(ctx context.Context, actor entity.Actor, chatID, content string) (message *entity.Message, err error) {
	ctx, span := startSpan(ctx, "Chat.SendMessage", attribute.String("chat.id", chatID))
	defer func() { finishSpan(span, err) }()

	content, err = validateContent(content)
	if err != nil {
		return nil, err
	}
	if err := checkRateLimit(ctx, uc.limiter, actor.ID, ratelimit.ActionSendMessage); err != nil {
		logger.Warn("SendMessage Rate Limited: user %s", actor.ID)
		return nil, err
	}

	err = uc.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		chat, err := tx.GetChat(chatID)
		if err != nil {
			return err
		}
		if !uc.gate.CanPostMessage(actor, chat) {
			return errors.Forbidden("You are not a participant of this chat", nil)
		}

		now := uc.clock()
		message = &entity.Message{
			ID:        uuid.New().String(),
			ChatID:    chatID,
			SenderID:  actor.ID,
			Type:      entity.MessageTypeText,
			Content:   content,
			Timestamp: now,
		}
		if err := tx.CreateMessage(message); err != nil {
			return err
		}
		return uc.PatchTradeStatus(tx, chat, entity.ChatPatch{LastMessageAt: &now}, now)
	})
	if err != nil {
		logger.Error("SendMessage Error: chat %s: %v", chatID, err)
		return nil, err
	}
	return message, nil
}

// EditMessage replaces the text of one of the caller's own text messages.
func (uc *ChatUseCase) EditMessage(ctx context.Context, actor entity.Actor, chatID, messageID, content string) (message *entity.Message, err error) {
	content, err = validateContent(content)
	if err != nil {
		return nil, err
	}

	err = uc.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		message, err = tx.GetMessage(messageID)
		if err != nil {
			return err
		}
		if message.ChatID != chatID {
			return errors.NotFound("Message", nil)
		}
		if !uc.gate.CanEditMessage(actor, message) {
			return errors.Forbidden("You can only edit your own text messages", nil)
		}

		message.Content = content
		message.EditedAt = timePtr(uc.clock())
		return tx.PutMessage(message)
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

// ListMessages returns a page of the chat's messages, oldest first.
func (uc *ChatUseCase) ListMessages(ctx context.Context, actor entity.Actor, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	var (
		messages []*entity.Message
		total    int64
	)
	err := uc.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		chat, err := tx.GetChat(chatID)
		if err != nil {
			return err
		}
		if !uc.gate.CanViewChat(actor, chat) {
			return errors.Forbidden("You are not a participant of this chat", nil)
		}
		messages, total, err = tx.ListMessages(chatID, limit, offset)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
