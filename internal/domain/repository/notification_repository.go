package repository

import (
	"tradehub/internal/domain/entity"
)

type NotificationRepository interface {
	GetNotification(id string) (*entity.Notification, error)
	// ListNotifications returns the user's notifications, newest first.
	ListNotifications(userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, int64, error)

	CreateNotification(notification *entity.Notification) error
	PutNotification(notification *entity.Notification) error
}

type FollowUpRepository interface {
	GetFollowUp(id string) (*entity.FollowUp, error)
	// ListFollowUpsByStatus returns the oldest follow-ups in the given status.
	ListFollowUpsByStatus(status entity.FollowUpStatus, limit int) ([]*entity.FollowUp, error)
	PutFollowUp(followUp *entity.FollowUp) error
}
