// Package worker runs background jobs next to the HTTP server.
package worker

import (
	"context"
	"time"

	"salon-booking/internal/usecase"

	"go.uber.org/zap"
)

// ExpirySweeper periodically cancels bookings whose payment window elapsed.
type ExpirySweeper struct {
	expiry    usecase.ExpiryService
	interval  time.Duration
	olderThan time.Duration
	log       *zap.Logger
}

func NewExpirySweeper(expiry usecase.ExpiryService, interval, olderThan time.Duration, log *zap.Logger) *ExpirySweeper {
	return &ExpirySweeper{
		expiry:    expiry,
		interval:  interval,
		olderThan: olderThan,
		log:       log.With(zap.String("worker", "expiry_sweeper")),
	}
}

// Start blocks until ctx is cancelled.
func (w *ExpirySweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("Expiry sweeper started",
		zap.Duration("interval", w.interval),
		zap.Duration("older_than", w.olderThan))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Expiry sweeper stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and logs its outcome.
func (w *ExpirySweeper) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()

	result, err := w.expiry.Sweep(ctx, w.olderThan, false)
	if err != nil {
		w.log.Error("Expiry sweep failed", zap.Error(err))
		return
	}
	if result.Cancelled > 0 {
		w.log.Info("Expired bookings cancelled", zap.Int("cancelled", result.Cancelled))
	}
}
