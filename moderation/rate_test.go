package moderation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTrackerWithClock() (*RateTracker, *MemoryStore, *manualClock) {
	store := NewMemoryStore()
	clock := &manualClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	tr := NewRateTracker(store)
	tr.now = clock.Now
	return tr, store, clock
}

func TestSpacedMessagesNeverTrigger(t *testing.T) {
	tr, _, clock := newTrackerWithClock()
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		over, err := tr.Over(ctx, 1, 1)
		require.NoError(t, err)
		assert.False(t, over, "message %d", i)
		clock.Advance(61 * time.Second)
	}
}

func TestWindowBoundary(t *testing.T) {
	tr, _, clock := newTrackerWithClock()
	ctx := context.Background()

	n, _ := tr.Hit(ctx, 1, 5)
	assert.Equal(t, 1, n)
	clock.Advance(59 * time.Second)
	n, _ = tr.Hit(ctx, 1, 5)
	assert.Equal(t, 2, n)
	// exactly 60s old no longer counts
	clock.Advance(1 * time.Second)
	n, _ = tr.Hit(ctx, 1, 5)
	assert.Equal(t, 2, n)
}

func TestWindowIsCapped(t *testing.T) {
	tr, _, _ := newTrackerWithClock()
	ctx := context.Background()

	var last int
	for i := 0; i < 40; i++ {
		n, err := tr.Hit(ctx, 1, 5)
		require.NoError(t, err)
		assert.LessOrEqual(t, n, 6)
		last = n
	}
	assert.Equal(t, 6, last)

	over, err := tr.Over(ctx, 1, 5)
	require.NoError(t, err)
	assert.True(t, over)
}

func TestUsersAreIndependent(t *testing.T) {
	tr, _, _ := newTrackerWithClock()
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		_, _ = tr.Hit(ctx, 1, 5)
	}
	over, _ := tr.Over(ctx, 2, 5)
	assert.False(t, over)
}

func TestSweep(t *testing.T) {
	tr, store, clock := newTrackerWithClock()
	ctx := context.Background()

	_, _ = tr.Hit(ctx, 1, 5)
	clock.Advance(30 * time.Second)
	_, _ = tr.Hit(ctx, 2, 5)
	clock.Advance(31 * time.Second)

	n, err := tr.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.tracked())
}

func TestConcurrentHitsSameUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_, _ = store.Hit(ctx, 1, now, RateWindow, 0)
			}
		}()
	}
	wg.Wait()

	n, err := store.Hit(ctx, 1, now, RateWindow, 0)
	require.NoError(t, err)
	assert.Equal(t, 81, n)
}

func TestConcurrentWarningsSameUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = store.AddWarning(ctx, 1, 0)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.warningCount(1))
}

func TestAddWarningCrossesOnce(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		crossed int
		wg      sync.WaitGroup
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, c, err := store.AddWarning(ctx, 1, 3)
			assert.NoError(t, err)
			if c {
				mu.Lock()
				crossed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, crossed)
	assert.Zero(t, store.warningCount(1))
}

func TestRedisStoreBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	s, err := NewRedisStore("redis://localhost:6379/0")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Client.Del(ctx, warnKey(42)).Err())

	now := time.Now()
	for i := 0; i < 10; i++ {
		n, err := s.Hit(ctx, 42, now.Add(time.Duration(i)*time.Millisecond), RateWindow, 6)
		assert.NoError(err)
		assert.LessOrEqual(n, 6)
	}

	n, crossed, err := s.AddWarning(ctx, 42, 2)
	assert.NoError(err)
	assert.Equal(1, n)
	assert.False(crossed)
	n, crossed, err = s.AddWarning(ctx, 42, 2)
	assert.NoError(err)
	assert.Equal(2, n)
	assert.True(crossed)
	assert.Zero(s.Client.Exists(ctx, warnKey(42)).Val())
}
