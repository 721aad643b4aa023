package entity

import (
	"time"

	"github.com/google/uuid"
)

type SenderType string

const (
	SenderCustomer SenderType = "customer"
	SenderSalon    SenderType = "salon"
)

type MessageType string

const (
	MessageTypeText           MessageType = "text"
	MessageTypeBookingInquiry MessageType = "booking_inquiry"
)

// Chat is the single conversation between a customer and a salon.
type Chat struct {
	BaseNoDelete
	CustomerID    uuid.UUID  `db:"customer_id"`
	SalonID       uuid.UUID  `db:"salon_id"`
	LastMessageAt *time.Time `db:"last_message_at"`
}

type Message struct {
	BaseSimple
	ChatID      uuid.UUID   `db:"chat_id"`
	SenderID    uuid.UUID   `db:"sender_id"`
	SenderType  SenderType  `db:"sender_type"`
	MessageType MessageType `db:"message_type"`
	Content     string      `db:"content"`
	IsRead      bool        `db:"is_read"`
	ReadAt      *time.Time  `db:"read_at"`
}
