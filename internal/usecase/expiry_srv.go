package usecase

import (
	"context"
	"fmt"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/data/repository"
	"salon-booking/internal/dto/response"
	"salon-booking/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExpiryService cancels online-payment bookings whose payment never arrived.
type ExpiryService interface {
	// Sweep cancels pending unpaid bookings older than olderThan. With
	// dryRun it only reports the matches.
	Sweep(ctx context.Context, olderThan time.Duration, dryRun bool) (*response.SweepResponse, error)
}

type expiryService struct {
	repo   *repository.Repository
	notify *notifier
	now    func() time.Time
	log    *zap.Logger
}

func NewExpiryService(repo *repository.Repository, deps Deps, notify *notifier, log *zap.Logger) ExpiryService {
	return &expiryService{
		repo:   repo,
		notify: notify,
		now:    deps.Now,
		log:    log.With(zap.String("service", "expiry")),
	}
}

func (s *expiryService) Sweep(ctx context.Context, olderThan time.Duration, dryRun bool) (*response.SweepResponse, error) {
	if olderThan <= 0 {
		return nil, fmt.Errorf("sweep window must be positive, got %s", olderThan)
	}

	cutoff := s.now().Add(-olderThan)
	candidates, err := s.repo.Booking.FindExpiredPending(ctx, cutoff)
	if err != nil {
		s.log.Error("Failed to find expired bookings", zap.Error(err), zap.Time("cutoff", cutoff))
		return nil, fmt.Errorf("find expired bookings: %w", err)
	}

	resp := &response.SweepResponse{
		DryRun:   dryRun,
		Cutoff:   cutoff.Format(time.RFC3339),
		Matched:  len(candidates),
		Bookings: make([]string, 0, len(candidates)),
	}

	ids := make([]uuid.UUID, len(candidates))
	byID := make(map[uuid.UUID]*entity.Booking, len(candidates))
	for i, b := range candidates {
		ids[i] = b.ID
		byID[b.ID] = b
		resp.Bookings = append(resp.Bookings, b.ID.String())
	}

	if dryRun || len(candidates) == 0 {
		s.log.Info("Expiry sweep finished",
			zap.Bool("dry_run", dryRun),
			zap.Int("matched", resp.Matched),
			zap.Time("cutoff", cutoff))
		return resp, nil
	}

	cancelled, err := s.repo.Booking.CancelExpired(ctx, ids, cutoff)
	if err != nil {
		s.log.Error("Failed to cancel expired bookings", zap.Error(err), zap.Int("matched", len(ids)))
		return nil, fmt.Errorf("cancel expired bookings: %w", err)
	}

	resp.Cancelled = len(cancelled)
	resp.Bookings = resp.Bookings[:0]
	for _, id := range cancelled {
		resp.Bookings = append(resp.Bookings, id.String())
		if b, ok := byID[id]; ok {
			b.Status = entity.BookingStatusCancelled
			s.notify.BookingExpired(b)
		}
	}
	metrics.AddExpired(len(cancelled))

	s.log.Info("Expiry sweep finished",
		zap.Int("matched", resp.Matched),
		zap.Int("cancelled", resp.Cancelled),
		zap.Time("cutoff", cutoff))
	return resp, nil
}
