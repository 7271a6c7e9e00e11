package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitionTable(t *testing.T) {
	all := []Status{StatusPending, StatusAccepted, StatusDeclined, StatusCancelled}
	legal := map[[2]Status]bool{
		{StatusPending, StatusAccepted}:   true,
		{StatusPending, StatusDeclined}:   true,
		{StatusPending, StatusCancelled}:  true,
		{StatusAccepted, StatusCancelled}: true,
		{StatusDeclined, StatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, legal[[2]Status{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.False(t, Status("bogus").Valid())
	assert.False(t, Status("bogus").CanTransitionTo(StatusCancelled))
	assert.True(t, StatusPending.IsActive())
	assert.True(t, StatusAccepted.IsActive())
	assert.False(t, StatusDeclined.IsActive())
	assert.False(t, StatusCancelled.IsActive())
}

func TestChatDedupeKeyIgnoresOrder(t *testing.T) {
	a := ChatDedupeKey(ChatTypeTrade, []string{"u2", "u1"}, "ad1")
	b := ChatDedupeKey(ChatTypeTrade, []string{"u1", "u2"}, "ad1")
	c := ChatDedupeKey(ChatTypeTrade, []string{"u1", "u2"}, "ad2")
	d := ChatDedupeKey(ChatTypeDirectMessage, []string{"u1", "u2"}, "ad1")
	e := ChatDedupeKey(ChatTypeDirectMessage, []string{"u2", "u1"}, "")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, d, e, "direct messages ignore the trade ad")
	assert.Equal(t, ChatIDForKey(a), ChatIDForKey(b))
}

func TestTradeAdCloseReopen(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ad := &TradeAd{Status: TradeAdOpen}

	assert.True(t, ad.Close(now))
	assert.Equal(t, TradeAdClosed, ad.Status)
	assert.NotNil(t, ad.ClosedAt)
	assert.False(t, ad.Close(now), "closing twice is a no-op")

	assert.True(t, ad.Reopen(now))
	assert.Equal(t, TradeAdOpen, ad.Status)
	assert.Nil(t, ad.ClosedAt)

	expired := &TradeAd{Status: TradeAdExpired}
	assert.False(t, expired.Reopen(now))
	assert.Equal(t, TradeAdExpired, expired.Status)
}

func TestChatPatchApply(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)
	chat := &Chat{TradeStatus: TradeStatusPending, ActiveTradeOfferID: "o1", MiddlemanID: "m1", LastMessageAt: now}

	status := TradeStatusNone
	empty := ""
	ChatPatch{TradeStatus: &status, ActiveTradeOfferID: &empty, LastMessageAt: &earlier}.Apply(chat, now)

	assert.Equal(t, TradeStatusNone, chat.TradeStatus)
	assert.Empty(t, chat.ActiveTradeOfferID)
	assert.Equal(t, "m1", chat.MiddlemanID, "nil fields are untouched")
	assert.Equal(t, now, chat.LastMessageAt, "last message time never moves backwards")
}

func TestFollowUpIDDeterministic(t *testing.T) {
	assert.Equal(t, FollowUpID("o1:accepted", FollowUpNotify), FollowUpID("o1:accepted", FollowUpNotify))
	assert.NotEqual(t, FollowUpID("o1:accepted", FollowUpNotify), FollowUpID("o1:accepted", FollowUpSystemMsg))
	assert.NotEqual(t, DerivedID("f", "u1"), DerivedID("f", "u2"))
}
