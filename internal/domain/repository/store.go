package repository

import (
	"context"
)

// Store is the document store. All reads and writes happen through a Tx so that the
// atomicity boundary of every operation is explicit.
type Store interface {
	// RunTransaction runs fn atomically. fn may be invoked more than once when the
	// backend detects contention, so it must not have side effects outside tx.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// View runs fn against a consistent read-only snapshot.
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx groups the per-entity repositories visible inside one transaction.
// Backends buffer writes until commit and require every read to precede the first write.
//
// Lookups of a missing document return an errors.NotFound AppError. Create* methods
// return an errors.Conflict AppError when the id is already taken.
type Tx interface {
	ChatRepository
	MessageRepository
	TradeOfferRepository
	MiddlemanCallRepository
	TradeAdRepository
	ReadStateRepository
	NotificationRepository
	FollowUpRepository
	UserRepository
	ItemRepository
}
