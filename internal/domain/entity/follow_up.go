package entity

import (
	"time"

	"github.com/google/uuid"
)

type FollowUpKind string

const (
	// FollowUpSyncTradeAd closes or reopens the chat's trade ad according to the chat's
	// trade status at the time the follow-up runs.
	FollowUpSyncTradeAd FollowUpKind = "sync_trade_ad"
	FollowUpSystemMsg   FollowUpKind = "system_message"
	FollowUpNotify      FollowUpKind = "notify"
)

type FollowUpStatus string

const (
	FollowUpPending FollowUpStatus = "pending"
	FollowUpDone    FollowUpStatus = "done"
	FollowUpDead    FollowUpStatus = "dead"
)

// FollowUp is an outbox row written in the same transaction as the state change that
// caused it. Running one twice has the same effect as running it once.
type FollowUp struct {
	ID        string         `json:"id" firestore:"id"`
	Kind      FollowUpKind   `json:"kind" firestore:"kind"`
	SourceID  string         `json:"source_id" firestore:"sourceId"`
	ChatID    string         `json:"chat_id" firestore:"chatId"`
	Status    FollowUpStatus `json:"status" firestore:"status"`
	Attempts  int            `json:"attempts" firestore:"attempts"`
	LastError string         `json:"last_error,omitempty" firestore:"lastError,omitempty"`

	Content          string   `json:"content,omitempty" firestore:"content,omitempty"`
	NotificationType string   `json:"notification_type,omitempty" firestore:"notificationType,omitempty"`
	RecipientIDs     []string `json:"recipient_ids,omitempty" firestore:"recipientIds,omitempty"`
	ExcludeUserID    string   `json:"exclude_user_id,omitempty" firestore:"excludeUserId,omitempty"`
	// RecipientRole fans a notification out to every user holding the role.
	RecipientRole string `json:"recipient_role,omitempty" firestore:"recipientRole,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

var followUpNamespace = uuid.MustParse("6f1c1b0e-7a55-4c3e-9d4b-2f7c0d6a9e11")

// FollowUpID is deterministic in (source, kind) so re-enqueueing is a no-op.
func FollowUpID(sourceID string, kind FollowUpKind) string {
	return uuid.NewSHA1(followUpNamespace, []byte(sourceID+":"+string(kind))).String()
}

// DerivedID names a record produced by a follow-up (a system message, a notification).
func DerivedID(followUpID, suffix string) string {
	return uuid.NewSHA1(followUpNamespace, []byte(followUpID+"/"+suffix)).String()
}

var chatNamespace = uuid.MustParse("0b7f6a7e-3a5e-4f43-8f59-8f2d41a1c7d3")

// ChatIDForKey makes the chat id a function of its dedupe key.
func ChatIDForKey(dedupeKey string) string {
	return uuid.NewSHA1(chatNamespace, []byte(dedupeKey)).String()
}
