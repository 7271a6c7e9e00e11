package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	adapterrepo "tradehub/internal/adapter/repository"
	"tradehub/internal/domain/entity"
	"tradehub/internal/domain/repository"
	"tradehub/internal/domain/service"
	"tradehub/internal/infrastructure/ratelimit"
	"tradehub/pkg/logger"
)

var (
	alice  = entity.Actor{ID: "alice"}
	bob    = entity.Actor{ID: "bob"}
	eve    = entity.Actor{ID: "eve"}
	mmU2   = entity.Actor{ID: "u2", Roles: []string{entity.RoleMiddleman}}
	mmU3   = entity.Actor{ID: "u3", Roles: []string{entity.RoleMiddleman}}
	admin  = entity.Actor{ID: "root", Roles: []string{entity.RoleAdmin}}
	testT0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func init() {
	logger.SetNop()
}

// tickingClock advances one millisecond per reading so every write has a distinct time.
func tickingClock() Clock {
	var mu sync.Mutex
	now := testT0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Millisecond)
		return now
	}
}

type harness struct {
	t         *testing.T
	ctx       context.Context
	store     *adapterrepo.MemoryStore
	gate      *service.PermissionGate
	notes     *NotificationUseCase
	ads       *TradeAdUseCase
	followUps *FollowUpUseCase
	chats     *ChatUseCase
	offers    *TradeOfferUseCase
	calls     *MiddlemanCallUseCase

	adID   string
	chatID string
}

func newHarness(t *testing.T) *harness {
	return newHarnessWith(t, nil)
}

// newHarnessWith swaps the notification fan-out of follow-ups for notifier when set.
func newHarnessWith(t *testing.T, notifier Notifier) *harness {
	t.Helper()

	clock := tickingClock()
	store := adapterrepo.NewMemoryStore()
	gate := service.NewPermissionGate()
	limiter := ratelimit.Unlimited{}
	profiles := NewProfileResolver(store)

	notes := NewNotificationUseCase(store)
	notes.clock = clock
	ads := NewTradeAdUseCase(store, gate, limiter)
	ads.clock = clock

	if notifier == nil {
		notifier = notes
	}
	followUps := NewFollowUpUseCase(store, ads, notifier, 3)
	followUps.clock = clock

	chats := NewChatUseCase(store, gate, limiter)
	chats.clock = clock
	offers := NewTradeOfferUseCase(store, chats, followUps, gate, limiter, profiles)
	offers.clock = clock
	calls := NewMiddlemanCallUseCase(store, chats, followUps, gate, limiter, profiles)
	calls.clock = clock

	h := &harness{
		t:         t,
		ctx:       context.Background(),
		store:     store,
		gate:      gate,
		notes:     notes,
		ads:       ads,
		followUps: followUps,
		chats:     chats,
		offers:    offers,
		calls:     calls,
	}
	h.seed()
	return h
}

func (h *harness) seed() {
	h.t.Helper()

	err := h.store.RunTransaction(h.ctx, func(ctx context.Context, tx repository.Tx) error {
		users := []*entity.User{
			{ID: "alice", Username: "Alice"},
			{ID: "bob", Username: "Bob"},
			{ID: "eve", Username: "Eve"},
			{ID: "u2", Username: "Mia", Roles: []string{entity.RoleMiddleman}},
			{ID: "u3", Username: "Max", Roles: []string{entity.RoleMiddleman}},
			{ID: "root", Username: "Root", Roles: []string{entity.RoleAdmin}},
		}
		for _, u := range users {
			if err := tx.PutUser(u); err != nil {
				return err
			}
		}
		items := []*entity.Item{
			{ID: "item1", GameID: "g1", Name: "Golden Sword", Rarity: "legendary", Thumbnail: "https://cdn/item1.png"},
			{ID: "item2", GameID: "g1", Name: "Iron Shield", Rarity: "common"},
		}
		for _, item := range items {
			if err := tx.PutItem(item); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(h.t, err)

	ad, err := h.ads.Create(h.ctx, alice, CreateTradeAdInput{
		HaveItems: []entity.TradeAdItem{{ItemID: "item1", Quantity: 2}},
		WantItems: []entity.TradeAdItem{{ItemID: "item2", Quantity: 1}},
	})
	require.NoError(h.t, err)
	h.adID = ad.ID

	chat, err := h.chats.CreateChat(h.ctx, bob, CreateChatInput{
		Type:           entity.ChatTypeTrade,
		ParticipantIDs: []string{"alice"},
		TradeAdID:      ad.ID,
	})
	require.NoError(h.t, err)
	h.chatID = chat.ID
}

func (h *harness) view(fn func(tx repository.Tx) error) {
	h.t.Helper()
	require.NoError(h.t, h.store.View(h.ctx, func(ctx context.Context, tx repository.Tx) error {
		return fn(tx)
	}))
}

func (h *harness) chat(id string) *entity.Chat {
	var c *entity.Chat
	h.view(func(tx repository.Tx) (err error) { c, err = tx.GetChat(id); return })
	return c
}

func (h *harness) ad(id string) *entity.TradeAd {
	var a *entity.TradeAd
	h.view(func(tx repository.Tx) (err error) { a, err = tx.GetTradeAd(id); return })
	return a
}

func (h *harness) message(id string) *entity.Message {
	var m *entity.Message
	h.view(func(tx repository.Tx) (err error) { m, err = tx.GetMessage(id); return })
	return m
}

func (h *harness) offer(id string) *entity.TradeOffer {
	var o *entity.TradeOffer
	h.view(func(tx repository.Tx) (err error) { o, err = tx.GetTradeOffer(id); return })
	return o
}

func (h *harness) call(id string) *entity.MiddlemanCall {
	var c *entity.MiddlemanCall
	h.view(func(tx repository.Tx) (err error) { c, err = tx.GetMiddlemanCall(id); return })
	return c
}

func (h *harness) messagesOfType(chatID string, messageType entity.MessageType) []*entity.Message {
	var out []*entity.Message
	h.view(func(tx repository.Tx) (err error) { out, err = tx.ListMessagesByType(chatID, messageType); return })
	return out
}

func (h *harness) notifications(userID string) []*entity.Notification {
	var out []*entity.Notification
	h.view(func(tx repository.Tx) (err error) { out, _, err = tx.ListNotifications(userID, false, 0, 0); return })
	return out
}

func (h *harness) followUpsIn(status entity.FollowUpStatus) []*entity.FollowUp {
	var out []*entity.FollowUp
	h.view(func(tx repository.Tx) (err error) { out, err = tx.ListFollowUpsByStatus(status, 0); return })
	return out
}

// createOffer makes a one-item offer from actor in the harness chat and returns the
// offer id.
func (h *harness) createOffer(actor entity.Actor) string {
	h.t.Helper()
	messageID, err := h.offers.Create(h.ctx, actor, CreateTradeOfferInput{
		ChatID:   h.chatID,
		Offering: []OfferItemInput{{ItemID: "item1", Quantity: 2}},
	})
	require.NoError(h.t, err)
	return h.message(messageID).TradeOfferID
}

func (h *harness) createCall(actor entity.Actor, desired string) string {
	h.t.Helper()
	messageID, err := h.calls.Create(h.ctx, actor, CreateMiddlemanCallInput{
		ChatID:             h.chatID,
		Reason:             "please escort the trade",
		EstimatedWaitTime:  5,
		DesiredMiddlemanID: desired,
	})
	require.NoError(h.t, err)
	return h.message(messageID).MiddlemanCallID
}

// seedOffer writes a trade chat whose active offer, created by alice, is in status.
func (h *harness) seedOffer(chatID string, status entity.Status) string {
	h.t.Helper()

	offerID := "offer-" + chatID
	tradeStatus := entity.TradeStatusNone
	activeID := ""
	switch status {
	case entity.StatusPending:
		tradeStatus, activeID = entity.TradeStatusPending, offerID
	case entity.StatusAccepted:
		tradeStatus, activeID = entity.TradeStatusAccepted, offerID
	}

	err := h.store.RunTransaction(h.ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.PutChat(&entity.Chat{
			ID:                 chatID,
			Type:               entity.ChatTypeTrade,
			ParticipantIDs:     []string{"alice", "bob"},
			TradeStatus:        tradeStatus,
			ActiveTradeOfferID: activeID,
			LastMessageAt:      testT0,
			CreatedAt:          testT0,
			UpdatedAt:          testT0,
		}); err != nil {
			return err
		}
		if err := tx.PutTradeOffer(&entity.TradeOffer{
			ID:        offerID,
			Status:    status,
			Offering:  []entity.TradeOfferItem{{ItemID: "item1", Quantity: 1, Name: "Golden Sword"}},
			CreatedAt: testT0,
			UpdatedAt: testT0,
		}); err != nil {
			return err
		}
		return tx.CreateMessage(&entity.Message{
			ID:           "anchor-" + chatID,
			ChatID:       chatID,
			SenderID:     "alice",
			Type:         entity.MessageTypeTradeOffer,
			TradeOfferID: offerID,
			Timestamp:    testT0,
		})
	})
	require.NoError(h.t, err)
	return offerID
}
