package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func take(t *testing.T, l Limiter, key string) Decision {
	t.Helper()
	d, err := l.Take(context.Background(), key)
	require.NoError(t, err)
	return d
}

func TestFixedWindowRejectsAfterBudget(t *testing.T) {
	limiter := NewFixedWindow(10, 50*time.Second)

	for i := 0; i < 10; i++ {
		d := take(t, limiter, "1.2.3.4")
		require.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 10, d.Limit)
		assert.Equal(t, 9-i, d.Remaining)
	}

	denied := take(t, limiter, "1.2.3.4")
	assert.False(t, denied.Allowed)
	assert.Equal(t, 0, denied.Remaining)
	assert.LessOrEqual(t, denied.RetryAfter, 50*time.Second)
	assert.InDelta(t, 50, denied.RetryAfterSeconds(), 1)
}

func TestFixedWindowResetsAfterWindow(t *testing.T) {
	limiter := NewFixedWindow(2, 300*time.Millisecond)

	assert.True(t, take(t, limiter, "k").Allowed)
	assert.True(t, take(t, limiter, "k").Allowed)
	assert.False(t, take(t, limiter, "k").Allowed)

	time.Sleep(400 * time.Millisecond)

	again := take(t, limiter, "k")
	assert.True(t, again.Allowed, "budget resets once the window elapses")
	assert.Equal(t, 1, again.Remaining)
}

func TestFixedWindowKeysAreIndependent(t *testing.T) {
	limiter := NewFixedWindow(1, time.Minute)

	assert.True(t, take(t, limiter, "a").Allowed)
	assert.False(t, take(t, limiter, "a").Allowed)
	assert.True(t, take(t, limiter, "b").Allowed)
}

func TestFixedWindowRetryAfterIsAtLeastOneSecond(t *testing.T) {
	limiter := NewFixedWindow(1, time.Second)

	take(t, limiter, "k")
	d := take(t, limiter, "k")
	require.False(t, d.Allowed)
	assert.Equal(t, 1, d.RetryAfterSeconds())
}

func TestFixedWindowConcurrentTakesNeverOvercount(t *testing.T) {
	limiter := NewFixedWindow(10, time.Minute)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := limiter.Take(context.Background(), "shared")
			if err == nil && d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}

func TestNilLimitersAllow(t *testing.T) {
	var fw *FixedWindow
	var keyed *Keyed
	assert.True(t, take(t, fw, "x").Allowed)
	assert.True(t, take(t, keyed, "x").Allowed)
	assert.Nil(t, NewFixedWindow(0, time.Second))
	assert.Nil(t, NewKeyed(0, time.Second, nil))
}

func TestKeyedBackstop(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewKeyed(10, time.Minute, func() time.Time { return now })

	for i := 0; i < 10; i++ {
		require.True(t, take(t, limiter, "ip").Allowed, "request %d", i)
	}

	denied := take(t, limiter, "ip")
	assert.False(t, denied.Allowed)
	assert.InDelta(t, float64(6*time.Second), float64(denied.RetryAfter), float64(time.Millisecond))

	now = now.Add(7 * time.Second)
	assert.True(t, take(t, limiter, "ip").Allowed)
	assert.True(t, take(t, limiter, "other").Allowed)
}

func TestKeyedSweepsIdleKeys(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewKeyed(5, time.Second, func() time.Time { return now })

	for i := 0; i < 63; i++ {
		limiter.takeAt("key-"+strconv.Itoa(i), now)
	}
	limiter.takeAt("late", now.Add(3*time.Second))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Len(t, limiter.limiters, 1)
}
