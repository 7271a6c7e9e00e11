package entity

import (
	"time"
)

type User struct {
	ID        string   `json:"id" firestore:"id"`
	Username  string   `json:"username" firestore:"username"`
	AvatarURL string   `json:"avatar_url,omitempty" firestore:"avatarURL,omitempty"`
	Roles     []string `json:"roles" firestore:"roles"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Roles: u.Roles}
}

// DisplayName is used for notification and system-message text only.
func (u *User) DisplayName() string {
	if u == nil || u.Username == "" {
		return "Someone"
	}
	return u.Username
}
