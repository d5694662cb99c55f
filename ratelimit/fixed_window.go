// Package ratelimit holds the in-process request limiters used by the HTTP
// middleware. Both implementations are safe for concurrent use.
package ratelimit

import (
	"context"
	"math"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Decision is the outcome of taking one point from a key's budget.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds the wait up to whole seconds, never below one.
func (d Decision) RetryAfterSeconds() int {
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Limiter is satisfied by every limiter in this package.
type Limiter interface {
	Take(ctx context.Context, key string) (Decision, error)
}

// FixedWindow allows points operations per key inside each window of
// duration. The window for a key starts at its first operation and the
// budget resets in full once it elapses. Rejected operations still count.
type FixedWindow struct {
	limiter *limiter.Limiter
}

func NewFixedWindow(points int, duration time.Duration) *FixedWindow {
	if points <= 0 || duration <= 0 {
		return nil
	}
	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          "blog-route",
		CleanUpInterval: duration,
	})
	return &FixedWindow{
		limiter: limiter.New(store, limiter.Rate{Period: duration, Limit: int64(points)}),
	}
}

// Take consumes one point for key. A nil limiter allows everything.
func (l *FixedWindow) Take(ctx context.Context, key string) (Decision, error) {
	if l == nil {
		return Decision{Allowed: true}, nil
	}

	state, err := l.limiter.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}

	decision := Decision{
		Allowed:   !state.Reached,
		Limit:     int(state.Limit),
		Remaining: int(state.Remaining),
		ResetAt:   time.Unix(state.Reset, 0),
	}
	if state.Reached {
		decision.RetryAfter = time.Until(decision.ResetAt)
	}
	return decision, nil
}
