package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"tradehub/internal/domain/entity"
	"tradehub/internal/domain/repository"
	"tradehub/pkg/errors"
)

// MemoryStore is an in-process document store. Transactions are serialized behind a
// single lock, which gives the same first-writer-wins outcome Firestore gives under
// contention. Documents are stored JSON-encoded so callers never share memory with it.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(ctx, &memoryTx{store: s, readOnly: true})
}

type memoryWrite struct {
	collection string
	id         string
	data       []byte
}

type memoryTx struct {
	store    *MemoryStore
	readOnly bool
	writes   []memoryWrite
}

func (tx *memoryTx) commit() {
	for _, w := range tx.writes {
		coll, ok := tx.store.docs[w.collection]
		if !ok {
			coll = make(map[string][]byte)
			tx.store.docs[w.collection] = coll
		}
		coll[w.id] = w.data
	}
}

func (tx *memoryTx) checkRead() error {
	if len(tx.writes) > 0 {
		return errors.Internal("read after write in transaction", nil)
	}
	return nil
}

func (tx *memoryTx) pending(collection, id string) bool {
	for _, w := range tx.writes {
		if w.collection == collection && w.id == id {
			return true
		}
	}
	return false
}

func (tx *memoryTx) set(collection, id string, v interface{}) error {
	if tx.readOnly {
		return errors.Internal("write in read-only transaction", nil)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Internal("Failed to encode document", err)
	}
	tx.writes = append(tx.writes, memoryWrite{collection: collection, id: id, data: data})
	return nil
}

func (tx *memoryTx) create(collection, id string, v interface{}) error {
	if _, exists := tx.store.docs[collection][id]; exists || tx.pending(collection, id) {
		return errors.Conflict(collection + "/" + id + " already exists")
	}
	return tx.set(collection, id, v)
}

func memGet[T any](tx *memoryTx, collection, id, resource string) (*T, error) {
	if err := tx.checkRead(); err != nil {
		return nil, err
	}
	data, ok := tx.store.docs[collection][id]
	if !ok {
		return nil, errors.NotFound(resource, nil)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Internal("Failed to parse "+resource+" data", err)
	}
	return &v, nil
}

func memFilter[T any](tx *memoryTx, collection string, keep func(*T) bool) ([]*T, error) {
	if err := tx.checkRead(); err != nil {
		return nil, err
	}
	var out []*T
	for _, data := range tx.store.docs[collection] {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, errors.Internal("Failed to parse "+collection+" data", err)
		}
		if keep(&v) {
			out = append(out, &v)
		}
	}
	return out, nil
}

func paginate[T any](items []*T, limit, offset int) []*T {
	if offset >= len(items) {
		return []*T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func (tx *memoryTx) GetChat(id string) (*entity.Chat, error) {
	return memGet[entity.Chat](tx, collectionChats, id, "Chat")
}

func (tx *memoryTx) ListChatsByParticipant(userID string, limit, offset int) ([]*entity.Chat, int64, error) {
	chats, err := memFilter(tx, collectionChats, func(c *entity.Chat) bool { return c.HasParticipant(userID) })
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].LastMessageAt.After(chats[j].LastMessageAt) })
	return paginate(chats, limit, offset), int64(len(chats)), nil
}

func (tx *memoryTx) CreateChat(chat *entity.Chat) error {
	return tx.create(collectionChats, chat.ID, chat)
}

func (tx *memoryTx) PutChat(chat *entity.Chat) error {
	return tx.set(collectionChats, chat.ID, chat)
}

func (tx *memoryTx) GetReadState(chatID, userID string) (*entity.ReadState, error) {
	return memGet[entity.ReadState](tx, collectionReadStates, entity.ReadStateID(chatID, userID), "Read state")
}

func (tx *memoryTx) PutReadState(state *entity.ReadState) error {
	return tx.set(collectionReadStates, state.ID, state)
}

func (tx *memoryTx) GetMessage(id string) (*entity.Message, error) {
	return memGet[entity.Message](tx, collectionMessages, id, "Message")
}

func (tx *memoryTx) findMessage(resource string, match func(*entity.Message) bool) (*entity.Message, error) {
	msgs, err := memFilter(tx, collectionMessages, match)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, errors.NotFound(resource, nil)
	}
	return msgs[0], nil
}

func (tx *memoryTx) FindMessageByTradeOffer(offerID string) (*entity.Message, error) {
	return tx.findMessage("Trade offer message", func(m *entity.Message) bool {
		return m.Type == entity.MessageTypeTradeOffer && m.TradeOfferID == offerID
	})
}

func (tx *memoryTx) FindMessageByMiddlemanCall(callID string) (*entity.Message, error) {
	return tx.findMessage("Middleman call message", func(m *entity.Message) bool {
		return m.Type == entity.MessageTypeMiddlemanCall && m.MiddlemanCallID == callID
	})
}

func sortMessages(msgs []*entity.Message) {
	sort.Slice(msgs, func(i, j int) bool { return msgs[j].After(msgs[i]) })
}

func (tx *memoryTx) ListMessages(chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	msgs, err := memFilter(tx, collectionMessages, func(m *entity.Message) bool { return m.ChatID == chatID })
	if err != nil {
		return nil, 0, err
	}
	sortMessages(msgs)
	return paginate(msgs, limit, offset), int64(len(msgs)), nil
}

func (tx *memoryTx) ListMessagesByType(chatID string, messageType entity.MessageType) ([]*entity.Message, error) {
	msgs, err := memFilter(tx, collectionMessages, func(m *entity.Message) bool {
		return m.ChatID == chatID && m.Type == messageType
	})
	if err != nil {
		return nil, err
	}
	sortMessages(msgs)
	return msgs, nil
}

func (tx *memoryTx) ListMessagesAfter(chatID string, after time.Time) ([]*entity.Message, error) {
	msgs, err := memFilter(tx, collectionMessages, func(m *entity.Message) bool {
		return m.ChatID == chatID && m.Timestamp.After(after)
	})
	if err != nil {
		return nil, err
	}
	sortMessages(msgs)
	return msgs, nil
}

func (tx *memoryTx) CreateMessage(message *entity.Message) error {
	return tx.create(collectionMessages, message.ID, message)
}

func (tx *memoryTx) PutMessage(message *entity.Message) error {
	return tx.set(collectionMessages, message.ID, message)
}

func (tx *memoryTx) GetTradeOffer(id string) (*entity.TradeOffer, error) {
	return memGet[entity.TradeOffer](tx, collectionTradeOffers, id, "Trade offer")
}

func (tx *memoryTx) PutTradeOffer(offer *entity.TradeOffer) error {
	return tx.set(collectionTradeOffers, offer.ID, offer)
}

func (tx *memoryTx) GetMiddlemanCall(id string) (*entity.MiddlemanCall, error) {
	return memGet[entity.MiddlemanCall](tx, collectionMiddlemanCalls, id, "Middleman call")
}

func (tx *memoryTx) ListMiddlemanCallsByStatus(status entity.Status) ([]*entity.MiddlemanCall, error) {
	calls, err := memFilter(tx, collectionMiddlemanCalls, func(c *entity.MiddlemanCall) bool { return c.Status == status })
	if err != nil {
		return nil, err
	}
	sort.Slice(calls, func(i, j int) bool { return calls[i].CreatedAt.Before(calls[j].CreatedAt) })
	return calls, nil
}

func (tx *memoryTx) PutMiddlemanCall(call *entity.MiddlemanCall) error {
	return tx.set(collectionMiddlemanCalls, call.ID, call)
}

func (tx *memoryTx) GetTradeAd(id string) (*entity.TradeAd, error) {
	return memGet[entity.TradeAd](tx, collectionTradeAds, id, "Trade ad")
}

func (tx *memoryTx) ListTradeAdsByStatus(status entity.TradeAdStatus, limit, offset int) ([]*entity.TradeAd, int64, error) {
	ads, err := memFilter(tx, collectionTradeAds, func(a *entity.TradeAd) bool { return a.Status == status })
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(ads, func(i, j int) bool { return ads[i].CreatedAt.After(ads[j].CreatedAt) })
	return paginate(ads, limit, offset), int64(len(ads)), nil
}

func (tx *memoryTx) PutTradeAd(ad *entity.TradeAd) error {
	return tx.set(collectionTradeAds, ad.ID, ad)
}

func (tx *memoryTx) GetItem(id string) (*entity.Item, error) {
	return memGet[entity.Item](tx, collectionItems, id, "Item")
}

func (tx *memoryTx) PutItem(item *entity.Item) error {
	return tx.set(collectionItems, item.ID, item)
}

func (tx *memoryTx) GetNotification(id string) (*entity.Notification, error) {
	return memGet[entity.Notification](tx, collectionNotifications, id, "Notification")
}

func (tx *memoryTx) ListNotifications(userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, int64, error) {
	notes, err := memFilter(tx, collectionNotifications, func(n *entity.Notification) bool {
		return n.UserID == userID && (!unreadOnly || !n.Read)
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })
	return paginate(notes, limit, offset), int64(len(notes)), nil
}

func (tx *memoryTx) CreateNotification(notification *entity.Notification) error {
	return tx.create(collectionNotifications, notification.ID, notification)
}

func (tx *memoryTx) PutNotification(notification *entity.Notification) error {
	return tx.set(collectionNotifications, notification.ID, notification)
}

func (tx *memoryTx) GetFollowUp(id string) (*entity.FollowUp, error) {
	return memGet[entity.FollowUp](tx, collectionFollowUps, id, "Follow-up")
}

func (tx *memoryTx) ListFollowUpsByStatus(status entity.FollowUpStatus, limit int) ([]*entity.FollowUp, error) {
	items, err := memFilter(tx, collectionFollowUps, func(f *entity.FollowUp) bool { return f.Status == status })
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return paginate(items, limit, 0), nil
}

func (tx *memoryTx) PutFollowUp(followUp *entity.FollowUp) error {
	return tx.set(collectionFollowUps, followUp.ID, followUp)
}

func (tx *memoryTx) GetUser(id string) (*entity.User, error) {
	return memGet[entity.User](tx, collectionUsers, id, "User")
}

func (tx *memoryTx) ListUsersByRole(role string) ([]*entity.User, error) {
	users, err := memFilter(tx, collectionUsers, func(u *entity.User) bool { return u.Actor().HasRole(role) })
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (tx *memoryTx) PutUser(user *entity.User) error {
	return tx.set(collectionUsers, user.ID, user)
}
