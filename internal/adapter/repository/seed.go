package repository

import (
	"context"
	_ "embed"
	"encoding/json"
	"os"
	"time"

	"tradehub/internal/domain/entity"
	"tradehub/internal/domain/repository"
	"tradehub/pkg/errors"
)

//go:embed dev_seed.json
var defaultDevSeed []byte

// Seed is the user and item catalog a development store starts with.
type Seed struct {
	Users []*entity.User `json:"users"`
	Items []*entity.Item `json:"items"`
}

// LoadSeed reads a seed from path, or the built-in development seed when path is empty.
func LoadSeed(path string) (*Seed, error) {
	data := defaultDevSeed
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, errors.Internal("Failed to read seed file", err)
		}
	}

	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, errors.Validation("Invalid seed file", err)
	}
	for _, u := range seed.Users {
		if u.ID == "" {
			return nil, errors.Validation("Seed user without id", nil)
		}
	}
	for _, item := range seed.Items {
		if item.ID == "" || item.Name == "" {
			return nil, errors.Validation("Seed item needs an id and a name", nil)
		}
	}
	return &seed, nil
}

// Apply writes the seed in one transaction. Existing documents with the same ids are
// overwritten.
func (s *Seed) Apply(ctx context.Context, store repository.Store, now time.Time) error {
	return store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		for _, u := range s.Users {
			user := *u
			if user.CreatedAt.IsZero() {
				user.CreatedAt = now
			}
			user.UpdatedAt = now
			if err := tx.PutUser(&user); err != nil {
				return err
			}
		}
		for _, item := range s.Items {
			if err := tx.PutItem(item); err != nil {
				return err
			}
		}
		return nil
	})
}
