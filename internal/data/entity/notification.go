package entity

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationBookingConfirmed  NotificationType = "booking_confirmed"
	NotificationBookingCancelled  NotificationType = "booking_cancelled"
	NotificationBookingCompleted  NotificationType = "booking_completed"
	NotificationReviewReceived    NotificationType = "review_received"
	NotificationReviewResponse    NotificationType = "review_response"
	NotificationMessageReceived   NotificationType = "message_received"
	NotificationPaymentSuccess    NotificationType = "payment_success"
	NotificationPaymentFailed     NotificationType = "payment_failed"
	NotificationApplicationUpdate NotificationType = "application_update"
	NotificationSystem            NotificationType = "system"
)

type Notification struct {
	BaseSimple
	UserID           uuid.UUID        `db:"user_id"`
	Type             NotificationType `db:"notification_type"`
	Title            string           `db:"title"`
	Message          string           `db:"message"`
	ActionURL        *string          `db:"action_url"`
	RelatedBookingID *uuid.UUID       `db:"related_booking_id"`
	Metadata         map[string]any   `db:"metadata"`
	IsRead           bool             `db:"is_read"`
	ReadAt           *time.Time       `db:"read_at"`
}
