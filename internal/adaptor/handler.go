package adaptor

import (
	"salon-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Salon        *SalonHandler
	Booking      *BookingHandler
	Payment      *PaymentHandler
	Chat         *ChatHandler
	Notification *NotificationHandler
	Review       *ReviewHandler
	Application  *SalonApplicationHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(service.Auth, log),
		User:         NewUserHandler(service.User, log),
		Salon:        NewSalonHandler(service.Salon, log),
		Booking:      NewBookingHandler(service.Booking, service.Availability, log),
		Payment:      NewPaymentHandler(service.Payment, log),
		Chat:         NewChatHandler(service.Chat, log),
		Notification: NewNotificationHandler(service.Notification, log),
		Review:       NewReviewHandler(service.Review, log),
		Application:  NewSalonApplicationHandler(service.Application, log),
	}
}
