package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Keyed is a per-key token bucket. It refills evenly so that at most
// points requests pass per period, with a burst of points.
type Keyed struct {
	mu            sync.Mutex
	limiters      map[string]*keyedEntry
	limit         rate.Limit
	burst         int
	period        time.Duration
	now           func() time.Time
	opCount       int
	cleanupEveryN int
}

type keyedEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyed builds the limiter. now defaults to time.Now when nil.
func NewKeyed(points int, period time.Duration, now func() time.Time) *Keyed {
	if points <= 0 || period <= 0 {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	return &Keyed{
		limiters:      make(map[string]*keyedEntry),
		limit:         rate.Every(period / time.Duration(points)),
		burst:         points,
		period:        period,
		now:           now,
		cleanupEveryN: 64,
	}
}

// Take consumes one token for key. A nil limiter allows everything.
func (k *Keyed) Take(_ context.Context, key string) (Decision, error) {
	if k == nil {
		return Decision{Allowed: true}, nil
	}
	return k.takeAt(key, k.now()), nil
}

func (k *Keyed) takeAt(key string, now time.Time) Decision {
	k.mu.Lock()
	defer k.mu.Unlock()

	entry, ok := k.limiters[key]
	if !ok {
		entry = &keyedEntry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.limiters[key] = entry
	}
	entry.lastSeen = now
	k.maybeCleanupLocked(now)

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return Decision{Limit: k.burst, RetryAfter: k.period}
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return Decision{Limit: k.burst, RetryAfter: delay, ResetAt: now.Add(delay)}
	}

	return Decision{
		Allowed:   true,
		Limit:     k.burst,
		Remaining: int(entry.limiter.TokensAt(now)),
	}
}

func (k *Keyed) maybeCleanupLocked(now time.Time) {
	k.opCount++
	if k.opCount%k.cleanupEveryN != 0 {
		return
	}
	for key, entry := range k.limiters {
		if now.Sub(entry.lastSeen) > 2*k.period {
			delete(k.limiters, key)
		}
	}
}
