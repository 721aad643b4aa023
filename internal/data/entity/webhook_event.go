package entity

import "time"

// ProcessedWebhookEvent records a provider event id that has been applied.
type ProcessedWebhookEvent struct {
	Provider    string    `db:"provider"`
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
