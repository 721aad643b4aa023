package repository

import (
	"context"
	"fmt"

	"salon-booking/internal/data/entity"
	"salon-booking/pkg/database"

	"go.uber.org/zap"
)

// WebhookEventRepository persists provider event ids that were applied.
type WebhookEventRepository interface {
	IsProcessed(ctx context.Context, provider, eventID string) (bool, error)
	// MarkProcessed records the event; inserted is false when it was already there.
	MarkProcessed(ctx context.Context, event *entity.ProcessedWebhookEvent) (inserted bool, err error)
}

type webhookEventRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewWebhookEventRepository(db database.PgxIface, log *zap.Logger) WebhookEventRepository {
	return &webhookEventRepository{
		db:  db,
		log: log.With(zap.String("repository", "webhook_event")),
	}
}

func (r *webhookEventRepository) IsProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM processed_webhook_events WHERE provider = $1 AND event_id = $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, provider, eventID).Scan(&exists); err != nil {
		r.log.Error("Failed to check webhook event",
			zap.Error(err),
			zap.String("provider", provider),
			zap.String("event_id", eventID),
		)
		return false, fmt.Errorf("check webhook event %s: %w", eventID, err)
	}

	return exists, nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, event *entity.ProcessedWebhookEvent) (bool, error) {
	query := `
		INSERT INTO processed_webhook_events (provider, event_id, event_type, processed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider, event_id) DO NOTHING
	`

	result, err := r.db.Exec(ctx, query, event.Provider, event.EventID, event.EventType, event.ProcessedAt)
	if err != nil {
		r.log.Error("Failed to record webhook event",
			zap.Error(err),
			zap.String("provider", event.Provider),
			zap.String("event_id", event.EventID),
		)
		return false, fmt.Errorf("record webhook event %s: %w", event.EventID, err)
	}

	return result.RowsAffected() == 1, nil
}
