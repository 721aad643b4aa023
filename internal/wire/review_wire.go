package wire

import (
	"salon-booking/internal/adaptor"
	"salon-booking/internal/data/entity"
	"salon-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireReview(r chi.Router, reviewHandler *adaptor.ReviewHandler, deps routeDeps) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/salons/{id}/reviews", reviewHandler.GetSalonReviews)
	r.Get("/api/salons/{id}/review-stats", reviewHandler.GetSalonReviewStats)

	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(deps.auth)

		r.With(middleware.RequireRole(string(entity.RoleCustomer))).Post("/api/reviews", reviewHandler.CreateReview)
		r.Get("/api/user/reviews", reviewHandler.GetUserReviews)

		r.With(middleware.RequireRole(string(entity.RoleSalonOwner))).
			Post("/api/salon/reviews/{id}/respond", reviewHandler.RespondToReview)
	})

	// ==================== ADMIN ROUTES ====================
	r.With(
		deps.auth,
		middleware.RequireRole(string(entity.RoleAdmin)),
	).Route("/api/admin/reviews", func(r chi.Router) {
		r.Get("/pending", reviewHandler.GetPendingReviews)
		r.Post("/{id}/moderate", reviewHandler.ModerateReview)
	})
}
