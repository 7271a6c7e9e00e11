package usecase

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"tradehub/internal/domain/entity"
	"tradehub/internal/domain/repository"
	"tradehub/pkg/errors"
	"tradehub/pkg/logger"
)

// Notifier writes the notifications of a follow-up inside the follow-up's transaction.
type Notifier interface {
	FanOut(tx repository.Tx, input NotifyInput, idFor func(userID string) string, now time.Time) error
}

// TradeAdSyncer brings a chat's trade ad in line with the chat's trade status.
type TradeAdSyncer interface {
	SyncWithChat(tx repository.Tx, chat *entity.Chat, now time.Time) (bool, error)
}

// outbox collects the follow-ups of one state change. It is rebuilt on every
// transaction attempt and written together with the change.
type outbox struct {
	sourceID string
	chatID   string
	now      time.Time
	items    []*entity.FollowUp
}

func newOutbox(sourceID, chatID string, now time.Time) *outbox {
	return &outbox{sourceID: sourceID, chatID: chatID, now: now}
}

func (o *outbox) add(fu *entity.FollowUp) {
	fu.ID = entity.FollowUpID(fmt.Sprintf("%s#%d", o.sourceID, len(o.items)), fu.Kind)
	fu.SourceID = o.sourceID
	fu.ChatID = o.chatID
	fu.Status = entity.FollowUpPending
	fu.CreatedAt = o.now
	fu.UpdatedAt = o.now
	o.items = append(o.items, fu)
}

func (o *outbox) syncTradeAd() {
	o.add(&entity.FollowUp{Kind: entity.FollowUpSyncTradeAd})
}

func (o *outbox) systemMessage(content string) {
	o.add(&entity.FollowUp{Kind: entity.FollowUpSystemMsg, Content: content})
}

func (o *outbox) notify(notificationType, content string, recipients []string, excludeUserID string) {
	o.add(&entity.FollowUp{
		Kind:             entity.FollowUpNotify,
		NotificationType: notificationType,
		Content:          content,
		RecipientIDs:     recipients,
		ExcludeUserID:    excludeUserID,
	})
}

func (o *outbox) notifyRole(notificationType, content, role, excludeUserID string) {
	o.add(&entity.FollowUp{
		Kind:             entity.FollowUpNotify,
		NotificationType: notificationType,
		Content:          content,
		RecipientRole:    role,
		ExcludeUserID:    excludeUserID,
	})
}

func (o *outbox) write(tx repository.Tx) error {
	for _, fu := range o.items {
		if err := tx.PutFollowUp(fu); err != nil {
			return err
		}
	}
	return nil
}

// FollowUpUseCase runs the dependent writes of trade and mediation transitions: trade
// ad reconciliation, system messages and notifications. Each follow-up runs in its own
// transaction and is marked done in that same transaction.
type FollowUpUseCase struct {
	store       repository.Store
	ads         TradeAdSyncer
	notifier    Notifier
	clock       Clock
	maxAttempts int
	concurrency int
}

func NewFollowUpUseCase(store repository.Store, ads TradeAdSyncer, notifier Notifier, maxAttempts int) *FollowUpUseCase {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &FollowUpUseCase{
		store:       store,
		ads:         ads,
		notifier:    notifier,
		clock:       SystemClock,
		maxAttempts: maxAttempts,
		concurrency: 4,
	}
}

// Dispatch runs freshly committed follow-ups in order. Failures are logged and left
// pending for the replay job; they never reach the caller of the original operation.
func (uc *FollowUpUseCase) Dispatch(ctx context.Context, followUps []*entity.FollowUp) {
	ctx = context.WithoutCancel(ctx)
	for _, fu := range followUps {
		if err := uc.Run(ctx, fu.ID); err != nil {
			logger.Warn("FollowUp Warning: %s %s for %s left pending: %v", fu.Kind, fu.ID, fu.SourceID, err)
		}
	}
}

// Run executes one follow-up. Running a follow-up that is already done is a no-op.
func (uc *FollowUpUseCase) Run(ctx context.Context, followUpID string) (err error) {
	ctx, span := startSpan(ctx, "FollowUp.Run", attribute.String("follow_up.id", followUpID))
	defer func() { finishSpan(span, err) }()

	err = uc.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		fu, err := tx.GetFollowUp(followUpID)
		if err != nil {
			return err
		}
		if fu.Status != entity.FollowUpPending {
			return nil
		}
		span.SetAttributes(attribute.String("follow_up.kind", string(fu.Kind)))

		now := uc.clock()
		if err := uc.execute(tx, fu, now); err != nil {
			return err
		}

		fu.Status = entity.FollowUpDone
		fu.Attempts++
		fu.LastError = ""
		fu.UpdatedAt = now
		return tx.PutFollowUp(fu)
	})
	if err != nil {
		uc.recordFailure(ctx, followUpID, err)
	}
	return err
}

func (uc *FollowUpUseCase) execute(tx repository.Tx, fu *entity.FollowUp, now time.Time) error {
	switch fu.Kind {
	case entity.FollowUpSyncTradeAd:
		chat, err := tx.GetChat(fu.ChatID)
		if err != nil {
			return err
		}
		_, err = uc.ads.SyncWithChat(tx, chat, now)
		return err

	case entity.FollowUpSystemMsg:
		messageID := entity.DerivedID(fu.ID, "message")
		if _, err := tx.GetMessage(messageID); err == nil {
			return nil
		} else if !errors.Is(err, errors.CodeNotFound) {
			return err
		}

		chat, err := tx.GetChat(fu.ChatID)
		if err != nil {
			return err
		}

		message := &entity.Message{
			ID:        messageID,
			ChatID:    fu.ChatID,
			Type:      entity.MessageTypeSystem,
			Content:   fu.Content,
			Timestamp: now,
		}
		if err := tx.CreateMessage(message); err != nil {
			return err
		}
		entity.ChatPatch{LastMessageAt: &now}.Apply(chat, now)
		return tx.PutChat(chat)

	case entity.FollowUpNotify:
		input := NotifyInput{
			UserIDs:       fu.RecipientIDs,
			Role:          fu.RecipientRole,
			Type:          fu.NotificationType,
			Content:       fu.Content,
			ChatID:        fu.ChatID,
			ExcludeUserID: fu.ExcludeUserID,
		}
		return uc.notifier.FanOut(tx, input, func(userID string) string {
			return entity.DerivedID(fu.ID, userID)
		}, now)

	default:
		return errors.Internal("unknown follow-up kind "+string(fu.Kind), nil)
	}
}

func (uc *FollowUpUseCase) recordFailure(ctx context.Context, followUpID string, cause error) {
	err := uc.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		fu, err := tx.GetFollowUp(followUpID)
		if err != nil {
			return err
		}
		if fu.Status != entity.FollowUpPending {
			return nil
		}

		fu.Attempts++
		fu.LastError = cause.Error()
		fu.UpdatedAt = uc.clock()
		if fu.Attempts >= uc.maxAttempts {
			fu.Status = entity.FollowUpDead
			logger.Error("FollowUp Error: %s %s gave up after %d attempts: %v", fu.Kind, fu.ID, fu.Attempts, cause)
		}
		return tx.PutFollowUp(fu)
	})
	if err != nil {
		logger.Error("FollowUp Error: failed to record attempt of %s: %v", followUpID, err)
	}
}

// ReplayPending retries up to limit pending follow-ups, oldest first, and returns how
// many completed.
func (uc *FollowUpUseCase) ReplayPending(ctx context.Context, limit int) (int, error) {
	var pending []*entity.FollowUp
	err := uc.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		pending, err = tx.ListFollowUpsByStatus(entity.FollowUpPending, limit)
		return err
	})
	if err != nil {
		return 0, err
	}

	results := make([]bool, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)
	for i, fu := range pending {
		i, id := i, fu.ID
		g.Go(func() error {
			results[i] = uc.Run(gctx, id) == nil
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	done := 0
	for _, ok := range results {
		if ok {
			done++
		}
	}
	return done, nil
}

// StartReplayJob reconciles leftover follow-ups every interval until ctx is done.
func (uc *FollowUpUseCase) StartReplayJob(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logger.Info("Follow-up replay job started (every %s)", interval)
		for {
			select {
			case <-ctx.Done():
				logger.Info("Follow-up replay job stopped")
				return
			case <-ticker.C:
				done, err := uc.ReplayPending(ctx, 100)
				if err != nil {
					logger.Error("FollowUp Replay Error: %v", err)
					continue
				}
				if done > 0 {
					logger.Info("Follow-up replay completed %d follow-ups", done)
				}
			}
		}
	}()
}
