package repository

import (
	"time"

	"tradehub/internal/domain/entity"
)

type MessageRepository interface {
	GetMessage(id string) (*entity.Message, error)
	FindMessageByTradeOffer(offerID string) (*entity.Message, error)
	FindMessageByMiddlemanCall(callID string) (*entity.Message, error)
	// ListMessages returns a page of the chat's messages, oldest first.
	ListMessages(chatID string, limit, offset int) ([]*entity.Message, int64, error)
	ListMessagesByType(chatID string, messageType entity.MessageType) ([]*entity.Message, error)
	// ListMessagesAfter returns the chat's messages strictly newer than after.
	ListMessagesAfter(chatID string, after time.Time) ([]*entity.Message, error)

	CreateMessage(message *entity.Message) error
	PutMessage(message *entity.Message) error
}
