package request

type SendMessageRequest struct {
	Content     string `json:"content" validate:"required,min=1,max=2000"`
	MessageType string `json:"message_type,omitempty" validate:"omitempty,oneof=text booking_inquiry"`
}
