package wire

import (
	"salon-booking/internal/adaptor"
	"salon-booking/internal/data/entity"
	"salon-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireChat(r chi.Router, chatHandler *adaptor.ChatHandler, deps routeDeps) {
	r.Group(func(r chi.Router) {
		r.Use(deps.auth)

		// Customer side
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(string(entity.RoleCustomer)))
			r.Get("/api/bookings/chats", chatHandler.GetCustomerChats)
			r.Get("/api/bookings/chat/{salon_id}", chatHandler.GetCustomerChat)
			r.Post("/api/bookings/chat/{salon_id}/send", chatHandler.SendCustomerMessage)
		})

		// Salon side
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(string(entity.RoleSalonOwner)))
			r.Get("/api/bookings/salon/chats", chatHandler.GetSalonChats)
			r.Get("/api/bookings/salon/chat/{customer_id}", chatHandler.GetSalonChat)
			r.Post("/api/bookings/salon/chat/{customer_id}/send", chatHandler.SendSalonMessage)
		})

		r.Post("/api/bookings/messages/{id}/read", chatHandler.MarkMessageRead)
	})
}
