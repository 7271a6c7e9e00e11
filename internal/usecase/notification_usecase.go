package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"tradehub/internal/domain/entity"
	"tradehub/internal/domain/repository"
	"tradehub/pkg/errors"
	"tradehub/pkg/logger"
)

type NotificationUseCase struct {
	store repository.Store
	clock Clock
}

func NewNotificationUseCase(store repository.Store) *NotificationUseCase {
	return &NotificationUseCase{
		store: store,
		clock: SystemClock,
	}
}

// NotifyInput addresses a notice to explicit users, to every holder of Role, or both.
type NotifyInput struct {
	UserIDs       []string
	Role          string
	Type          string
	Content       string
	ChatID        string
	VouchID       string
	ExcludeUserID string
}

// Notify inserts one notification per recipient. Callers treat a failure as best effort.
func (uc *NotificationUseCase) Notify(ctx context.Context, input NotifyInput) (err error) {
	ctx, span := startSpan(ctx, "Notification.Notify", attribute.String("notification.type", input.Type))
	defer func() { finishSpan(span, err) }()

	return uc.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		return uc.FanOut(tx, input, func(string) string { return uuid.New().String() }, uc.clock())
	})
}

// FanOut writes the notifications of input inside tx. idFor names the notification of
// each recipient; deterministic ids make a replayed fan-out a no-op.
func (uc *NotificationUseCase) FanOut(tx repository.Tx, input NotifyInput, idFor func(userID string) string, now time.Time) error {
	recipients, err := uc.recipients(tx, input)
	if err != nil {
		return err
	}

	for _, userID := range recipients {
		notification := &entity.Notification{
			ID:        idFor(userID),
			UserID:    userID,
			Type:      input.Type,
			Content:   input.Content,
			ChatID:    input.ChatID,
			VouchID:   input.VouchID,
			CreatedAt: now,
		}
		if err := tx.CreateNotification(notification); err != nil {
			return err
		}
	}
	return nil
}

func (uc *NotificationUseCase) recipients(tx repository.Tx, input NotifyInput) ([]string, error) {
	ids := append([]string{}, input.UserIDs...)
	if input.Role != "" {
		users, err := tx.ListUsersByRole(input.Role)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			ids = append(ids, u.ID)
		}
	}

	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == input.ExcludeUserID || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func (uc *NotificationUseCase) List(ctx context.Context, actor entity.Actor, unreadOnly bool, limit, offset int) ([]*entity.Notification, int64, error) {
	var (
		items []*entity.Notification
		total int64
	)
	err := uc.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		items, total, err = tx.ListNotifications(actor.ID, unreadOnly, limit, offset)
		return err
	})
	if err != nil {
		logger.Error("ListNotifications Error: user %s: %v", actor.ID, err)
		return nil, 0, err
	}
	return items, total, nil
}

func (uc *NotificationUseCase) MarkRead(ctx context.Context, actor entity.Actor, notificationID string) error {
	return uc.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		notification, err := tx.GetNotification(notificationID)
		if err != nil {
			return err
		}
		if notification.UserID != actor.ID {
			return errors.Forbidden("You can only mark your own notifications as read", nil)
		}
		if notification.Read {
			return nil
		}
		notification.Read = true
		return tx.PutNotification(notification)
	})
}

// MarkAllRead returns how many notifications changed.
func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, actor entity.Actor) (int, error) {
	var updated int
	err := uc.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		updated = 0
		unread, _, err := tx.ListNotifications(actor.ID, true, 0, 0)
		if err != nil {
			return err
		}
		for _, n := range unread {
			n.Read = true
			if err := tx.PutNotification(n); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		logger.Error("MarkAllNotificationsRead Error: user %s: %v", actor.ID, err)
		return 0, err
	}
	return updated, nil
}
