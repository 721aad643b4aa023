package wire

import (
	"salon-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireNotification(r chi.Router, notificationHandler *adaptor.NotificationHandler, deps routeDeps) {
	r.Group(func(r chi.Router) {
		r.Use(deps.auth)
		r.Get("/api/notifications", notificationHandler.GetNotifications)
		r.Get("/api/notifications/unread-count", notificationHandler.GetUnreadCount)
		r.Post("/api/notifications/{id}/read", notificationHandler.MarkRead)
		r.Post("/api/notifications/read-all", notificationHandler.MarkAllRead)
	})
}
