package wire

import (
	"salon-booking/internal/adaptor"
	"salon-booking/internal/data/entity"
	"salon-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	paymentHandler *adaptor.PaymentHandler,
	deps routeDeps,
) {
	customer := middleware.RequireRole(string(entity.RoleCustomer))
	owner := middleware.RequireRole(string(entity.RoleSalonOwner))

	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/bookings/available-slots/{salon_id}", bookingHandler.GetAvailableSlots)
	r.Get("/api/bookings/check-available-slots", bookingHandler.CheckAvailableSlots)

	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(deps.auth)

		// Customer
		r.With(customer).Post("/api/bookings/create", bookingHandler.CreateBooking)
		r.With(customer).Get("/api/bookings/my-bookings", bookingHandler.GetMyBookings)
		r.With(customer).Post("/api/bookings/{id}/cancel", bookingHandler.CancelBooking)
		r.With(customer).Get("/api/bookings/my-transactions", paymentHandler.GetMyTransactions)

		// Customer payments
		r.With(customer).Post("/api/bookings/paypal/create", paymentHandler.CreatePayPalPayment)
		r.With(customer).Post("/api/bookings/paypal/execute", paymentHandler.ExecutePayPalPayment)
		r.With(customer).Post("/api/bookings/{id}/stripe/create-checkout", paymentHandler.CreateStripeCheckout)
		r.With(customer).Post("/api/bookings/{id}/stripe/verify", paymentHandler.VerifyStripePayment)
		r.With(customer).Post("/api/bookings/{id}/update-payment-status", paymentHandler.UpdatePaymentStatus)

		// Salon owner
		r.With(owner).Get("/api/bookings/salon-bookings", bookingHandler.GetSalonBookings)
		r.With(owner).Post("/api/bookings/{id}/update-status", bookingHandler.UpdateBookingStatus)
		r.With(owner).Post("/api/bookings/{id}/refund", paymentHandler.RefundBooking)
		r.With(owner).Get("/api/bookings/salon-transactions", paymentHandler.GetSalonTransactions)
		r.With(owner).Get("/api/bookings/salon-transactions/export", paymentHandler.ExportSalonTransactions)

		// Either side of the booking
		r.Get("/api/bookings/{id}/calendar-link", bookingHandler.GetCalendarLink)
	})
}
