package repository

import (
	"tradehub/internal/domain/entity"
)

type UserRepository interface {
	GetUser(id string) (*entity.User, error)
	ListUsersByRole(role string) ([]*entity.User, error)
	PutUser(user *entity.User) error
}
