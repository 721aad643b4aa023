package wire

import (
	"salon-booking/internal/adaptor"
	"salon-booking/internal/data/entity"
	"salon-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireSalonApplication(r chi.Router, applicationHandler *adaptor.SalonApplicationHandler, deps routeDeps) {
	// ==================== APPLICANT ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(deps.auth, middleware.RequireRole(string(entity.RoleCustomer)))
		r.Post("/api/salon-applications", applicationHandler.Submit)
		r.Get("/api/salon-applications/mine", applicationHandler.GetMyApplication)
	})

	// ==================== ADMIN ROUTES ====================
	r.With(
		deps.auth,
		middleware.RequireRole(string(entity.RoleAdmin)),
	).Route("/api/admin/salon-applications", func(r chi.Router) {
		r.Get("/", applicationHandler.ListApplications)
		r.Post("/{id}/approve", applicationHandler.Approve)
		r.Post("/{id}/reject", applicationHandler.Reject)
	})
}
