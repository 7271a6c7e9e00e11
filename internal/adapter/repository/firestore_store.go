package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tradehub/internal/domain/entity"
	"tradehub/internal/domain/repository"
	"tradehub/pkg/errors"
)

type firestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) repository.Store {
	return &firestoreStore{
		client: client,
	}
}

func (s *firestoreStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{ctx: ctx, client: s.client, tx: tx})
	})
	return mapCommitError(err)
}

func (s *firestoreStore) View(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{ctx: ctx, client: s.client, tx: tx})
	}, firestore.ReadOnly)
	return mapCommitError(err)
}

func mapCommitError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if status.Code(err) == codes.AlreadyExists {
		return errors.Conflict("document already exists")
	}
	return errors.Internal("Transaction failed", err)
}

type firestoreTx struct {
	ctx    context.Context
	client *firestore.Client
	tx     *firestore.Transaction
}

func fsGet[T any](tx *firestore.Transaction, ref *firestore.DocumentRef, resource string) (*T, error) {
	doc, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound(resource, err)
		}
		return nil, errors.Internal("Failed to get "+resource, err)
	}

	var v T
	if err := doc.DataTo(&v); err != nil {
		return nil, errors.Internal("Failed to parse "+resource+" data", err)
	}
	return &v, nil
}

func fsAll[T any](iter *firestore.DocumentIterator, resource string) ([]*T, error) {
	defer iter.Stop()

	var out []*T
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate "+resource, err)
		}

		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, errors.Internal("Failed to parse "+resource+" data", err)
		}
		out = append(out, &v)
	}
	return out, nil
}

// fsPage counts every match of query with an aggregation and reads one page of it. A
// zero limit reads to the end.
func fsPage[T any](ctx context.Context, tx *firestore.Transaction, query firestore.Query, limit, offset int, resource string) ([]*T, int64, error) {
	res, err := query.NewAggregationQuery().WithCount("total").Transaction(tx).Get(ctx)
	if err != nil {
		return nil, 0, errors.Internal("Failed to count "+resource, err)
	}
	total, ok := res["total"].(*firestorepb.Value)
	if !ok {
		return nil, 0, errors.Internal("Unexpected count result for "+resource, nil)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	items, err := fsAll[T](tx.Documents(query), resource)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []*T{}
	}
	return items, total.GetIntegerValue(), nil
}

func (t *firestoreTx) doc(collection, id string) *firestore.DocumentRef {
	return t.client.Collection(collection).Doc(id)
}

func (t *firestoreTx) set(collection, id string, v interface{}) error {
	if err := t.tx.Set(t.doc(collection, id), v); err != nil {
		return errors.Internal("Failed to write "+collection, err)
	}
	return nil
}

func (t *firestoreTx) create(collection, id string, v interface{}) error {
	if err := t.tx.Create(t.doc(collection, id), v); err != nil {
		return errors.Internal("Failed to create "+collection, err)
	}
	return nil
}

func (t *firestoreTx) GetChat(id string) (*entity.Chat, error) {
	return fsGet[entity.Chat](t.tx, t.doc(collectionChats, id), "Chat")
}

func (t *firestoreTx) ListChatsByParticipant(userID string, limit, offset int) ([]*entity.Chat, int64, error) {
	query := t.client.Collection(collectionChats).
		Where("participantIds", "array-contains", userID).
		OrderBy("lastMessageAt", firestore.Desc)

	return fsPage[entity.Chat](t.ctx, t.tx, query, limit, offset, "chats")
}

func (t *firestoreTx) CreateChat(chat *entity.Chat) error {
	return t.create(collectionChats, chat.ID, chat)
}

func (t *firestoreTx) PutChat(chat *entity.Chat) error {
	return t.set(collectionChats, chat.ID, chat)
}

func (t *firestoreTx) GetReadState(chatID, userID string) (*entity.ReadState, error) {
	return fsGet[entity.ReadState](t.tx, t.doc(collectionReadStates, entity.ReadStateID(chatID, userID)), "Read state")
}

func (t *firestoreTx) PutReadState(state *entity.ReadState) error {
	return t.set(collectionReadStates, state.ID, state)
}

func (t *firestoreTx) GetMessage(id string) (*entity.Message, error) {
	return fsGet[entity.Message](t.tx, t.doc(collectionMessages, id), "Message")
}

func (t *firestoreTx) findMessage(field, value, resource string) (*entity.Message, error) {
	query := t.client.Collection(collectionMessages).Where(field, "==", value).Limit(1)
	msgs, err := fsAll[entity.Message](t.tx.Documents(query), "messages")
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, errors.NotFound(resource, nil)
	}
	return msgs[0], nil
}

func (t *firestoreTx) FindMessageByTradeOffer(offerID string) (*entity.Message, error) {
	return t.findMessage("tradeOfferId", offerID, "Trade offer message")
}

func (t *firestoreTx) FindMessageByMiddlemanCall(callID string) (*entity.Message, error) {
	return t.findMessage("middlemanCallId", callID, "Middleman call message")
}

func (t *firestoreTx) ListMessages(chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := t.client.Collection(collectionMessages).
		Where("chatId", "==", chatID).
		OrderBy("timestamp", firestore.Asc)

	return fsPage[entity.Message](t.ctx, t.tx, query, limit, offset, "messages")
}

func (t *firestoreTx) ListMessagesByType(chatID string, messageType entity.MessageType) ([]*entity.Message, error) {
	query := t.client.Collection(collectionMessages).
		Where("chatId", "==", chatID).
		Where("type", "==", string(messageType)).
		OrderBy("timestamp", firestore.Asc)

	return fsAll[entity.Message](t.tx.Documents(query), "messages")
}

func (t *firestoreTx) ListMessagesAfter(chatID string, after time.Time) ([]*entity.Message, error) {
	query := t.client.Collection(collectionMessages).
		Where("chatId", "==", chatID).
		Where("timestamp", ">", after).
		OrderBy("timestamp", firestore.Asc)

	return fsAll[entity.Message](t.tx.Documents(query), "messages")
}

func (t *firestoreTx) CreateMessage(message *entity.Message) error {
	return t.create(collectionMessages, message.ID, message)
}

func (t *firestoreTx) PutMessage(message *entity.Message) error {
	return t.set(collectionMessages, message.ID, message)
}

func (t *firestoreTx) GetTradeOffer(id string) (*entity.TradeOffer, error) {
	return fsGet[entity.TradeOffer](t.tx, t.doc(collectionTradeOffers, id), "Trade offer")
}

func (t *firestoreTx) PutTradeOffer(offer *entity.TradeOffer) error {
	return t.set(collectionTradeOffers, offer.ID, offer)
}

func (t *firestoreTx) GetMiddlemanCall(id string) (*entity.MiddlemanCall, error) {
	return fsGet[entity.MiddlemanCall](t.tx, t.doc(collectionMiddlemanCalls, id), "Middleman call")
}

func (t *firestoreTx) ListMiddlemanCallsByStatus(s entity.Status) ([]*entity.MiddlemanCall, error) {
	query := t.client.Collection(collectionMiddlemanCalls).
		Where("status", "==", string(s)).
		OrderBy("createdAt", firestore.Asc)

	return fsAll[entity.MiddlemanCall](t.tx.Documents(query), "middleman calls")
}

func (t *firestoreTx) PutMiddlemanCall(call *entity.MiddlemanCall) error {
	return t.set(collectionMiddlemanCalls, call.ID, call)
}

func (t *firestoreTx) GetTradeAd(id string) (*entity.TradeAd, error) {
	return fsGet[entity.TradeAd](t.tx, t.doc(collectionTradeAds, id), "Trade ad")
}

func (t *firestoreTx) ListTradeAdsByStatus(s entity.TradeAdStatus, limit, offset int) ([]*entity.TradeAd, int64, error) {
	query := t.client.Collection(collectionTradeAds).
		Where("status", "==", string(s)).
		OrderBy("createdAt", firestore.Desc)

	return fsPage[entity.TradeAd](t.ctx, t.tx, query, limit, offset, "trade ads")
}

func (t *firestoreTx) PutTradeAd(ad *entity.TradeAd) error {
	return t.set(collectionTradeAds, ad.ID, ad)
}

func (t *firestoreTx) GetItem(id string) (*entity.Item, error) {
	return fsGet[entity.Item](t.tx, t.doc(collectionItems, id), "Item")
}

func (t *firestoreTx) PutItem(item *entity.Item) error {
	return t.set(collectionItems, item.ID, item)
}

func (t *firestoreTx) GetNotification(id string) (*entity.Notification, error) {
	return fsGet[entity.Notification](t.tx, t.doc(collectionNotifications, id), "Notification")
}

func (t *firestoreTx) ListNotifications(userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, int64, error) {
	query := t.client.Collection(collectionNotifications).Where("userId", "==", userID)
	if unreadOnly {
		query = query.Where("read", "==", false)
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	return fsPage[entity.Notification](t.ctx, t.tx, query, limit, offset, "notifications")
}

func (t *firestoreTx) CreateNotification(notification *entity.Notification) error {
	return t.create(collectionNotifications, notification.ID, notification)
}

func (t *firestoreTx) PutNotification(notification *entity.Notification) error {
	return t.set(collectionNotifications, notification.ID, notification)
}

func (t *firestoreTx) GetFollowUp(id string) (*entity.FollowUp, error) {
	return fsGet[entity.FollowUp](t.tx, t.doc(collectionFollowUps, id), "Follow-up")
}

func (t *firestoreTx) ListFollowUpsByStatus(s entity.FollowUpStatus, limit int) ([]*entity.FollowUp, error) {
	query := t.client.Collection(collectionFollowUps).
		Where("status", "==", string(s)).
		OrderBy("createdAt", firestore.Asc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	return fsAll[entity.FollowUp](t.tx.Documents(query), "follow-ups")
}

func (t *firestoreTx) PutFollowUp(followUp *entity.FollowUp) error {
	return t.set(collectionFollowUps, followUp.ID, followUp)
}

func (t *firestoreTx) GetUser(id string) (*entity.User, error) {
	return fsGet[entity.User](t.tx, t.doc(collectionUsers, id), "User")
}

func (t *firestoreTx) ListUsersByRole(role string) ([]*entity.User, error) {
	query := t.client.Collection(collectionUsers).Where("roles", "array-contains", role)
	return fsAll[entity.User](t.tx.Documents(query), "users")
}

func (t *firestoreTx) PutUser(user *entity.User) error {
	return t.set(collectionUsers, user.ID, user)
}
