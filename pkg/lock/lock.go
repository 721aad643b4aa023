// Package lock provides short-lived keyed mutual exclusion used to serialise
// booking creation per salon and day.
package lock

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"salon-booking/pkg/utils"
)

// ErrNotAcquired is returned by TryAcquire when another holder owns the key.
var ErrNotAcquired = errors.New("lock held by another owner")

// Locker acquires and releases named locks.
type Locker interface {
	// TryAcquire takes the lock once without waiting.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// Backoff defines the retry schedule used while waiting for a lock.
type Backoff struct {
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

var DefaultBackoff = Backoff{
	InitialDelay:  10 * time.Millisecond,
	MaxDelay:      200 * time.Millisecond,
	BackoffFactor: 2,
}

// NextDelay returns the delay before attempt (1-based).
func (b Backoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if b.InitialDelay <= 0 {
		b.InitialDelay = 10 * time.Millisecond
	}
	if b.BackoffFactor <= 0 {
		b.BackoffFactor = 2
	}

	d := time.Duration(float64(b.InitialDelay) * math.Pow(b.BackoffFactor, float64(attempt-1)))
	if b.MaxDelay > 0 && d > b.MaxDelay {
		d = b.MaxDelay
	}
	return d
}

// Acquire retries TryAcquire until it succeeds, ctx is done or wait elapses.
// A timeout is reported as utils.ErrUnavailable.
func Acquire(ctx context.Context, l Locker, key string, ttl, wait time.Duration, backoff Backoff) (func(context.Context) error, error) {
	deadline := time.Now().Add(wait)

	for attempt := 1; ; attempt++ {
		release, err := l.TryAcquire(ctx, key, ttl)
		if err == nil {
			return release, nil
		}
		if !errors.Is(err, ErrNotAcquired) {
			return nil, fmt.Errorf("acquire %s: %w: %v", key, utils.ErrUnavailable, err)
		}

		delay := backoff.NextDelay(attempt)
		if time.Now().Add(delay).After(deadline) {
			return nil, fmt.Errorf("acquire %s: %w: timed out after %s", key, utils.ErrUnavailable, wait)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("acquire %s: %w", key, ctx.Err())
		case <-timer.C:
		}
	}
}

// SlotKey names the lock guarding bookings of a salon on one date.
func SlotKey(salonID string, date time.Time) string {
	return "slotlock:" + salonID + ":" + date.Format("2006-01-02")
}
