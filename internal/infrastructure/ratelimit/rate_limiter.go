package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	ActionCreateChat          = "create_chat"
	ActionSendMessage         = "send_message"
	ActionCreateTradeAd       = "create_trade_ad"
	ActionCreateTradeOffer    = "create_trade_offer"
	ActionCreateMiddlemanCall = "create_middleman_call"
	ActionHTTPRequest         = "http_request"
)

// Limiter decides whether userID may perform action now. When it may not, the returned
// duration is how long to wait.
type Limiter interface {
	Allow(ctx context.Context, userID, action string) (bool, time.Duration)
}

// Policy is a bucket of MaxTokens refilled by RefillRate tokens every RefillTime.
type Policy struct {
	MaxTokens  int
	RefillRate int
	RefillTime time.Duration
}

// Window is the period over which MaxTokens may be spent from a full bucket.
func (p Policy) Window() time.Duration {
	if p.RefillRate <= 0 {
		return p.RefillTime
	}
	return time.Duration(p.MaxTokens/p.RefillRate) * p.RefillTime
}

func PolicyFor(action string) Policy {
	switch action {
	case ActionSendMessage:
		// 10 messages per minute
		return Policy{MaxTokens: 10, RefillRate: 1, RefillTime: 6 * time.Second}
	case ActionCreateChat:
		// 5 chats per hour
		return Policy{MaxTokens: 5, RefillRate: 1, RefillTime: 12 * time.Minute}
	case ActionCreateTradeAd:
		// 10 ads per hour
		return Policy{MaxTokens: 10, RefillRate: 1, RefillTime: 6 * time.Minute}
	case ActionCreateTradeOffer, ActionCreateMiddlemanCall:
		// 6 per minute
		return Policy{MaxTokens: 6, RefillRate: 1, RefillTime: 10 * time.Second}
	case ActionHTTPRequest:
		// 60 requests per minute per client address
		return Policy{MaxTokens: 60, RefillRate: 1, RefillTime: time.Second}
	default:
		return Policy{MaxTokens: 20, RefillRate: 1, RefillTime: 3 * time.Second}
	}
}

type TokenBucket struct {
	tokens     int
	maxTokens  int
	refillRate int
	refillTime time.Duration
	lastRefill time.Time
	mutex      sync.Mutex
}

func NewTokenBucket(maxTokens, refillRate int, refillTime time.Duration) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		refillTime: refillTime,
		lastRefill: time.Now(),
	}
}

// Allow consumes a token if one is available.
func (tb *TokenBucket) Allow() (bool, time.Duration) {
	return tb.allowAt(time.Now())
}

func (tb *TokenBucket) allowAt(now time.Time) (bool, time.Duration) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	elapsed := now.Sub(tb.lastRefill)
	tokensToAdd := int(elapsed/tb.refillTime) * tb.refillRate
	if tokensToAdd > 0 {
		tb.tokens += tokensToAdd
		if tb.tokens > tb.maxTokens {
			tb.tokens = tb.maxTokens
		}
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true, 0
	}

	return false, tb.lastRefill.Add(tb.refillTime).Sub(now)
}

func (tb *TokenBucket) GetTokens() int {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	return tb.tokens
}

// RateLimiter keeps one token bucket per user and action in process memory.
type RateLimiter struct {
	buckets map[string]*TokenBucket
	mutex   sync.RWMutex
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*TokenBucket),
	}
}

func (rl *RateLimiter) Allow(_ context.Context, userID, action string) (bool, time.Duration) {
	return rl.bucket(userID, action).Allow()
}

func (rl *RateLimiter) bucket(userID, action string) *TokenBucket {
	key := userID + ":" + action

	rl.mutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.mutex.RUnlock()
	if exists {
		return bucket
	}

	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	// Double-check pattern
	if bucket, exists = rl.buckets[key]; !exists {
		p := PolicyFor(action)
		bucket = NewTokenBucket(p.MaxTokens, p.RefillRate, p.RefillTime)
		rl.buckets[key] = bucket
	}
	return bucket
}

func (rl *RateLimiter) GetStatus(userID, action string) (tokens int, maxTokens int) {
	key := userID + ":" + action

	rl.mutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.mutex.RUnlock()

	if !exists {
		return 0, 0
	}

	return bucket.GetTokens(), bucket.maxTokens
}

// Cleanup drops buckets idle for more than an hour.
func (rl *RateLimiter) Cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	for key, bucket := range rl.buckets {
		bucket.mutex.Lock()
		idle := now.Sub(bucket.lastRefill)
		bucket.mutex.Unlock()
		if idle > time.Hour {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanupRoutine runs Cleanup every 30 minutes until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}

// Unlimited allows everything. Used by tests and local tools.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string, string) (bool, time.Duration) {
	return true, 0
}
