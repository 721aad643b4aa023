package response

import (
	"time"

	"salon-booking/internal/data/entity"
)

type ChatResponse struct {
	ID            string     `json:"id"`
	CustomerID    string     `json:"customer_id"`
	CustomerName  string     `json:"customer_name,omitempty"`
	SalonID       string     `json:"salon_id"`
	SalonName     string     `json:"salon_name,omitempty"`
	LastMessage   *string    `json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	UnreadCount   int64      `json:"unread_count"`
}

type MessageResponse struct {
	ID          string             `json:"id"`
	ChatID      string             `json:"chat_id"`
	SenderID    string             `json:"sender_id"`
	SenderType  entity.SenderType  `json:"sender_type"`
	MessageType entity.MessageType `json:"message_type"`
	Content     string             `json:"content"`
	IsRead      bool               `json:"is_read"`
	ReadAt      *time.Time         `json:"read_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

type ChatDetailResponse struct {
	Chat     ChatResponse      `json:"chat"`
	Messages []MessageResponse `json:"messages"`
}

func MessageToResponse(m *entity.Message) MessageResponse {
	return MessageResponse{
		ID:          m.ID.String(),
		ChatID:      m.ChatID.String(),
		SenderID:    m.SenderID.String(),
		SenderType:  m.SenderType,
		MessageType: m.MessageType,
		Content:     m.Content,
		IsRead:      m.IsRead,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
	}
}
