package usecase

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tradehub/internal/domain/repository"
	"tradehub/internal/infrastructure/ratelimit"
	"tradehub/pkg/errors"
)

// Clock returns the current time. Stored timestamps are UTC with microsecond precision,
// which is what Firestore keeps.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

var tracer = otel.Tracer("tradehub/internal/usecase")

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func checkRateLimit(ctx context.Context, limiter ratelimit.Limiter, userID, action string) error {
	if limiter == nil {
		return nil
	}
	allowed, wait := limiter.Allow(ctx, userID, action)
	if !allowed {
		return errors.TooManyRequests(fmt.Sprintf("Rate limit exceeded. Please wait %s before trying again", wait.Round(time.Second)))
	}
	return nil
}

// ProfileResolver enriches user ids with display data. It is used for message and
// notification text only, never for authorization.
type ProfileResolver interface {
	DisplayName(ctx context.Context, userID string) string
}

type storeProfileResolver struct {
	store repository.Store
}

func NewProfileResolver(store repository.Store) ProfileResolver {
	return &storeProfileResolver{store: store}
}

func (r *storeProfileResolver) DisplayName(ctx context.Context, userID string) string {
	var name string
	err := r.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		user, err := tx.GetUser(userID)
		if err != nil {
			return err
		}
		name = user.DisplayName()
		return nil
	})
	if err != nil {
		return "Someone"
	}
	return name
}

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}
