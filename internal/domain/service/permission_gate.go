package service

import (
	"tradehub/internal/domain/entity"
)

// PermissionGate answers capability questions about an actor and an entity snapshot.
// It never touches the store; callers load the snapshot inside their transaction.
type PermissionGate struct{}

func NewPermissionGate() *PermissionGate {
	return &PermissionGate{}
}

func (g *PermissionGate) IsParticipant(actor entity.Actor, chat *entity.Chat) bool {
	return chat != nil && chat.HasParticipant(actor.ID)
}

func (g *PermissionGate) HasRole(actor entity.Actor, role string) bool {
	return actor.HasRole(role)
}

func (g *PermissionGate) IsOwner(actor entity.Actor, ownerID string) bool {
	return ownerID != "" && actor.ID == ownerID
}

// CanViewChat covers participants, the assigned middleman and admins.
func (g *PermissionGate) CanViewChat(actor entity.Actor, chat *entity.Chat) bool {
	if g.IsParticipant(actor, chat) || actor.IsAdmin() {
		return true
	}
	return chat != nil && chat.MiddlemanID != "" && chat.MiddlemanID == actor.ID
}

func (g *PermissionGate) CanPostMessage(actor entity.Actor, chat *entity.Chat) bool {
	return g.CanViewChat(actor, chat)
}

func (g *PermissionGate) CanCreateOffer(actor entity.Actor, chat *entity.Chat) bool {
	return g.IsParticipant(actor, chat) || actor.IsMediator()
}

// CanTransitionOffer applies the offer rules: only the creator cancels, and only a
// participant other than the creator accepts or declines.
func (g *PermissionGate) CanTransitionOffer(actor entity.Actor, creatorID string, chat *entity.Chat, target entity.Status) bool {
	switch target {
	case entity.StatusCancelled:
		return g.IsOwner(actor, creatorID)
	case entity.StatusAccepted, entity.StatusDeclined:
		return actor.ID != creatorID && g.IsParticipant(actor, chat)
	default:
		return false
	}
}

func (g *PermissionGate) CanCreateCall(actor entity.Actor, chat *entity.Chat) bool {
	return g.IsParticipant(actor, chat) || actor.IsAdmin()
}

// CanTransitionCall routes accept/decline to the desired middleman when one was
// requested (admins may always step in), otherwise to any middleman. Nobody taking part
// in the chat mediates it, and the creator of the call may only cancel it.
func (g *PermissionGate) CanTransitionCall(actor entity.Actor, creatorID string, call *entity.MiddlemanCall, chat *entity.Chat, target entity.Status) bool {
	switch target {
	case entity.StatusCancelled:
		return g.IsOwner(actor, creatorID)
	case entity.StatusAccepted, entity.StatusDeclined:
		if actor.ID == creatorID || g.IsParticipant(actor, chat) {
			return false
		}
		if call.DesiredMiddlemanID != "" {
			return actor.ID == call.DesiredMiddlemanID || actor.IsAdmin()
		}
		return actor.IsMediator()
	default:
		return false
	}
}

// CanSeeCall reports whether a pending call shows up in the actor's queue.
func (g *PermissionGate) CanSeeCall(actor entity.Actor, call *entity.MiddlemanCall, chat *entity.Chat) bool {
	if !actor.IsMediator() || g.IsParticipant(actor, chat) {
		return false
	}
	return call.DesiredMiddlemanID == "" || call.DesiredMiddlemanID == actor.ID || actor.IsAdmin()
}

// CanResolve requires the middleman role and no stake in the trade. Once a middleman is
// assigned to the chat, only that middleman or an admin may resolve it.
func (g *PermissionGate) CanResolve(actor entity.Actor, chat *entity.Chat) bool {
	if !actor.HasRole(entity.RoleMiddleman) || g.IsParticipant(actor, chat) {
		return false
	}
	if chat.MiddlemanID == "" || chat.MiddlemanID == actor.ID {
		return true
	}
	return actor.IsAdmin()
}

func (g *PermissionGate) CanManageTradeAd(actor entity.Actor, ad *entity.TradeAd) bool {
	return g.IsOwner(actor, ad.CreatorID) || actor.IsAdmin()
}

func (g *PermissionGate) CanEditMessage(actor entity.Actor, message *entity.Message) bool {
	return message.Type == entity.MessageTypeText && g.IsOwner(actor, message.SenderID)
}
