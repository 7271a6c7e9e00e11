package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tradehub/internal/domain/entity"
)

var (
	alice     = entity.Actor{ID: "alice"}
	bob       = entity.Actor{ID: "bob"}
	outsider  = entity.Actor{ID: "eve"}
	mm        = entity.Actor{ID: "mm", Roles: []string{entity.RoleMiddleman}}
	mm2       = entity.Actor{ID: "mm2", Roles: []string{entity.RoleMiddleman}}
	admin     = entity.Actor{ID: "root", Roles: []string{entity.RoleAdmin}}
	adminMM   = entity.Actor{ID: "boss", Roles: []string{entity.RoleAdmin, entity.RoleMiddleman}}
	tradeChat = &entity.Chat{ID: "c1", Type: entity.ChatTypeTrade, ParticipantIDs: []string{"alice", "bob"}}
)

func TestCanTransitionOffer(t *testing.T) {
	gate := NewPermissionGate()

	tests := []struct {
		name   string
		actor  entity.Actor
		target entity.Status
		want   bool
	}{
		{"creator cancels", alice, entity.StatusCancelled, true},
		{"other participant cannot cancel", bob, entity.StatusCancelled, false},
		{"creator cannot accept own offer", alice, entity.StatusAccepted, false},
		{"creator cannot decline own offer", alice, entity.StatusDeclined, false},
		{"other participant accepts", bob, entity.StatusAccepted, true},
		{"other participant declines", bob, entity.StatusDeclined, true},
		{"outsider cannot accept", outsider, entity.StatusAccepted, false},
		{"middleman outside chat cannot accept", mm, entity.StatusAccepted, false},
		{"pending is never a target", bob, entity.StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gate.CanTransitionOffer(tt.actor, "alice", tradeChat, tt.target))
		})
	}
}

func TestCanTransitionCall(t *testing.T) {
	gate := NewPermissionGate()
	routed := &entity.MiddlemanCall{DesiredMiddlemanID: "mm"}
	open := &entity.MiddlemanCall{}

	assert.True(t, gate.CanTransitionCall(mm, "alice", routed, tradeChat, entity.StatusAccepted))
	assert.False(t, gate.CanTransitionCall(mm2, "alice", routed, tradeChat, entity.StatusAccepted))
	assert.True(t, gate.CanTransitionCall(admin, "alice", routed, tradeChat, entity.StatusDeclined))
	assert.True(t, gate.CanTransitionCall(mm2, "alice", open, tradeChat, entity.StatusAccepted))
	assert.False(t, gate.CanTransitionCall(bob, "alice", open, tradeChat, entity.StatusAccepted))
	assert.True(t, gate.CanTransitionCall(alice, "alice", open, tradeChat, entity.StatusCancelled))
	assert.False(t, gate.CanTransitionCall(mm, "alice", open, tradeChat, entity.StatusCancelled))

	selfCaller := entity.Actor{ID: "mm", Roles: []string{entity.RoleMiddleman}}
	assert.False(t, gate.CanTransitionCall(selfCaller, "mm", open, tradeChat, entity.StatusAccepted), "creator can never accept")
}

func TestTradingPartyCannotMediate(t *testing.T) {
	gate := NewPermissionGate()
	bobMM := entity.Actor{ID: "bob", Roles: []string{entity.RoleMiddleman}}
	bobAdmin := entity.Actor{ID: "bob", Roles: []string{entity.RoleAdmin, entity.RoleMiddleman}}
	open := &entity.MiddlemanCall{}
	routed := &entity.MiddlemanCall{DesiredMiddlemanID: "bob"}

	for _, actor := range []entity.Actor{bobMM, bobAdmin} {
		for _, target := range []entity.Status{entity.StatusAccepted, entity.StatusDeclined} {
			assert.False(t, gate.CanTransitionCall(actor, "alice", open, tradeChat, target), "%v %s", actor.Roles, target)
			assert.False(t, gate.CanTransitionCall(actor, "alice", routed, tradeChat, target), "%v %s", actor.Roles, target)
		}
		assert.False(t, gate.CanSeeCall(actor, open, tradeChat))
		assert.False(t, gate.CanResolve(actor, tradeChat))
	}

	assigned := &entity.Chat{Type: entity.ChatTypeTrade, ParticipantIDs: []string{"alice", "bob"}, MiddlemanID: "bob"}
	assert.False(t, gate.CanResolve(bobMM, assigned), "an assignment does not outweigh a stake in the trade")
}

func TestCanResolve(t *testing.T) {
	gate := NewPermissionGate()
	unassigned := &entity.Chat{Type: entity.ChatTypeTrade}
	assigned := &entity.Chat{Type: entity.ChatTypeTrade, MiddlemanID: "mm"}

	assert.True(t, gate.CanResolve(mm, unassigned))
	assert.True(t, gate.CanResolve(mm, assigned))
	assert.False(t, gate.CanResolve(mm2, assigned))
	assert.True(t, gate.CanResolve(adminMM, assigned))
	assert.False(t, gate.CanResolve(admin, unassigned), "admin without the middleman role")
	assert.False(t, gate.CanResolve(alice, unassigned))
}

func TestChatVisibility(t *testing.T) {
	gate := NewPermissionGate()
	chat := &entity.Chat{ParticipantIDs: []string{"alice", "bob"}, MiddlemanID: "mm"}

	assert.True(t, gate.CanViewChat(alice, chat))
	assert.True(t, gate.CanViewChat(mm, chat))
	assert.True(t, gate.CanViewChat(admin, chat))
	assert.False(t, gate.CanViewChat(mm2, chat))
	assert.False(t, gate.CanViewChat(outsider, chat))

	assert.True(t, gate.CanCreateOffer(mm2, chat))
	assert.False(t, gate.CanCreateOffer(outsider, chat))
}

func TestCanSeeCall(t *testing.T) {
	gate := NewPermissionGate()

	assert.True(t, gate.CanSeeCall(mm, &entity.MiddlemanCall{}, tradeChat))
	assert.True(t, gate.CanSeeCall(mm, &entity.MiddlemanCall{DesiredMiddlemanID: "mm"}, tradeChat))
	assert.False(t, gate.CanSeeCall(mm2, &entity.MiddlemanCall{DesiredMiddlemanID: "mm"}, tradeChat))
	assert.True(t, gate.CanSeeCall(admin, &entity.MiddlemanCall{DesiredMiddlemanID: "mm"}, tradeChat))
	assert.False(t, gate.CanSeeCall(alice, &entity.MiddlemanCall{}, tradeChat))
}

func TestCanManageTradeAdAndEdit(t *testing.T) {
	gate := NewPermissionGate()
	ad := &entity.TradeAd{CreatorID: "alice"}

	assert.True(t, gate.CanManageTradeAd(alice, ad))
	assert.True(t, gate.CanManageTradeAd(admin, ad))
	assert.False(t, gate.CanManageTradeAd(bob, ad))

	text := &entity.Message{Type: entity.MessageTypeText, SenderID: "alice"}
	offer := &entity.Message{Type: entity.MessageTypeTradeOffer, SenderID: "alice"}
	assert.True(t, gate.CanEditMessage(alice, text))
	assert.False(t, gate.CanEditMessage(bob, text))
	assert.False(t, gate.CanEditMessage(alice, offer))
}
