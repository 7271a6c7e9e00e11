package repository

import (
	"tradehub/internal/domain/entity"
)

type ChatRepository interface {
	GetChat(id string) (*entity.Chat, error)
	ListChatsByParticipant(userID string, limit, offset int) ([]*entity.Chat, int64, error)

	CreateChat(chat *entity.Chat) error
	PutChat(chat *entity.Chat) error
}

type ReadStateRepository interface {
	GetReadState(chatID, userID string) (*entity.ReadState, error)
	PutReadState(state *entity.ReadState) error
}
