package wire

import (
	"salon-booking/internal/adaptor"
	"salon-booking/internal/data/entity"
	"salon-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireSalon(r chi.Router, salonHandler *adaptor.SalonHandler, deps routeDeps) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/salons", salonHandler.GetSalons)
	r.Get("/api/salons/{id}", salonHandler.GetSalonByID)
	r.Get("/api/salons/{id}/services", salonHandler.GetSalonServices)

	// ==================== SALON OWNER ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(deps.auth, middleware.RequireRole(string(entity.RoleSalonOwner)))
		r.Get("/api/salon/profile", salonHandler.GetMySalon)
		r.Put("/api/salon/profile", salonHandler.UpdateMySalon)
		r.Post("/api/salon/services", salonHandler.CreateService)
		r.Put("/api/salon/services/{id}", salonHandler.UpdateService)
		r.Delete("/api/salon/services/{id}", salonHandler.DeleteService)
	})

	// ==================== ADMIN ROUTES ====================
	r.With(
		deps.auth,
		middleware.RequireRole(string(entity.RoleAdmin)),
	).Post("/api/admin/salons", salonHandler.CreateSalon)
}
