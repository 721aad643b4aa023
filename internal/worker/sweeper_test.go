package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"salon-booking/internal/dto/response"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingExpiry struct {
	calls     atomic.Int32
	olderThan time.Duration
	dryRun    atomic.Bool
}

func (c *countingExpiry) Sweep(_ context.Context, olderThan time.Duration, dryRun bool) (*response.SweepResponse, error) {
	c.calls.Add(1)
	c.olderThan = olderThan
	c.dryRun.Store(dryRun)
	return &response.SweepResponse{Cancelled: 1}, nil
}

func TestExpirySweeperRunsUntilCancelled(t *testing.T) {
	expiry := &countingExpiry{}
	sweeper := NewExpirySweeper(expiry, 10*time.Millisecond, 15*time.Minute, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return expiry.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
	assert.False(t, expiry.dryRun.Load())
}

func TestExpirySweeperRunOnce(t *testing.T) {
	expiry := &countingExpiry{}
	sweeper := NewExpirySweeper(expiry, time.Minute, 20*time.Minute, zap.NewNop())

	sweeper.RunOnce(context.Background())

	assert.Equal(t, int32(1), expiry.calls.Load())
	assert.Equal(t, 20*time.Minute, expiry.olderThan)
}
