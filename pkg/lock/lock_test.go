package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"salon-booking/pkg/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	locker := NewRedisLocker(client)
	ctx := context.Background()

	t.Run("ExclusiveUntilReleased", func(t *testing.T) {
		release, err := locker.TryAcquire(ctx, "slotlock:a", time.Second)
		require.NoError(t, err)

		_, err = locker.TryAcquire(ctx, "slotlock:a", time.Second)
		assert.ErrorIs(t, err, ErrNotAcquired)

		require.NoError(t, release(ctx))
		assert.False(t, s.Exists("slotlock:a"))

		release, err = locker.TryAcquire(ctx, "slotlock:a", time.Second)
		require.NoError(t, err)
		require.NoError(t, release(ctx))
	})

	t.Run("ExpiresAfterTTL", func(t *testing.T) {
		_, err := locker.TryAcquire(ctx, "slotlock:b", time.Second)
		require.NoError(t, err)

		s.FastForward(2 * time.Second)

		release, err := locker.TryAcquire(ctx, "slotlock:b", time.Second)
		require.NoError(t, err)
		require.NoError(t, release(ctx))
	})

	t.Run("StaleReleaseKeepsNewOwner", func(t *testing.T) {
		stale, err := locker.TryAcquire(ctx, "slotlock:c", time.Second)
		require.NoError(t, err)

		s.FastForward(2 * time.Second)

		_, err = locker.TryAcquire(ctx, "slotlock:c", time.Minute)
		require.NoError(t, err)

		require.NoError(t, stale(ctx))
		assert.True(t, s.Exists("slotlock:c"))
	})
}

func TestMemoryLocker(t *testing.T) {
	locker := NewMemoryLocker()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	locker.clock = func() time.Time { return now }
	ctx := context.Background()

	release, err := locker.TryAcquire(ctx, "k", time.Second)
	require.NoError(t, err)

	_, err = locker.TryAcquire(ctx, "k", time.Second)
	assert.ErrorIs(t, err, ErrNotAcquired)

	_, err = locker.TryAcquire(ctx, "other", time.Second)
	assert.NoError(t, err)

	now = now.Add(2 * time.Second)
	second, err := locker.TryAcquire(ctx, "k", time.Second)
	require.NoError(t, err)

	// the expired holder must not release the new owner
	require.NoError(t, release(ctx))
	_, err = locker.TryAcquire(ctx, "k", time.Second)
	assert.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, second(ctx))
}

func TestAcquireWaitsForRelease(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	release, err := locker.TryAcquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = release(ctx)
	}()

	got, err := Acquire(ctx, locker, "k", time.Minute, time.Second, DefaultBackoff)
	require.NoError(t, err)
	require.NoError(t, got(ctx))
}

func TestAcquireTimesOut(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	_, err := locker.TryAcquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	_, err = Acquire(ctx, locker, "k", time.Minute, 50*time.Millisecond, DefaultBackoff)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrUnavailable))
}

func TestAcquireSerialisesHolders(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := Acquire(ctx, locker, "k", time.Second, 2*time.Second, DefaultBackoff)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			_ = release(ctx)
		}()
	}

	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestBackoffNextDelay(t *testing.T) {
	b := Backoff{InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, BackoffFactor: 2}

	assert.Equal(t, 10*time.Millisecond, b.NextDelay(1))
	assert.Equal(t, 20*time.Millisecond, b.NextDelay(2))
	assert.Equal(t, 40*time.Millisecond, b.NextDelay(3))
	assert.Equal(t, 50*time.Millisecond, b.NextDelay(4))
}

func TestSlotKey(t *testing.T) {
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "slotlock:abc:2025-03-14", SlotKey("abc", date))
}
