package entity

import "time"

type ReadState struct {
	ID                string    `json:"id" firestore:"id"`
	ChatID            string    `json:"chat_id" firestore:"chatId"`
	UserID            string    `json:"user_id" firestore:"userId"`
	LastReadMessageID string    `json:"last_read_message_id" firestore:"lastReadMessageId"`
	LastReadAt        time.Time `json:"last_read_at" firestore:"lastReadAt"`
}

func ReadStateID(chatID, userID string) string {
	return chatID + "_" + userID
}
