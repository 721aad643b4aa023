package response

import (
	"time"

	"salon-booking/internal/data/entity"
)

type NotificationResponse struct {
	ID               string                  `json:"id"`
	Type             entity.NotificationType `json:"notification_type"`
	Title            string                  `json:"title"`
	Message          string                  `json:"message"`
	ActionURL        *string                 `json:"action_url,omitempty"`
	RelatedBookingID *string                 `json:"related_booking_id,omitempty"`
	Metadata         map[string]any          `json:"metadata,omitempty"`
	IsRead           bool                    `json:"is_read"`
	ReadAt           *time.Time              `json:"read_at,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
}

func NotificationToResponse(n *entity.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID.String(),
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		ActionURL: n.ActionURL,
		Metadata:  n.Metadata,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
	if n.RelatedBookingID != nil {
		id := n.RelatedBookingID.String()
		resp.RelatedBookingID = &id
	}
	return resp
}

type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}
