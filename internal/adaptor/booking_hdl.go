package adaptor

import (
	"net/http"

	"salon-booking/internal/dto/request"
	"salon-booking/internal/usecase"
	"salon-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service      usecase.BookingService
	availability usecase.AvailabilityService
	log          *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, availability usecase.AvailabilityService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service:      service,
		availability: availability,
		log:          log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/bookings/create
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.CreateBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking created", booking)
}

// GetMyBookings handles GET /api/bookings/my-bookings
func (h *BookingHandler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req := pageFromQuery(r)
	bookings, err := h.service.GetMyBookings(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "get my bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// CancelBooking handles POST /api/bookings/{id}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	booking, err := h.service.CancelBooking(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "cancel booking")
		return
	}

	utils.ResponseSuccess(w, "Booking cancelled", booking)
}

// GetAvailableSlots handles GET /api/bookings/available-slots/{salon_id}?date=&service_id=
func (h *BookingHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	h.writeSlots(w, r, chi.URLParam(r, "salon_id"), query.Get("date"), query.Get("service_id"))
}

// CheckAvailableSlots handles GET /api/bookings/check-available-slots?salon_id=&date=&service_id=
func (h *BookingHandler) CheckAvailableSlots(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	h.writeSlots(w, r, query.Get("salon_id"), query.Get("date"), query.Get("service_id"))
}

func (h *BookingHandler) writeSlots(w http.ResponseWriter, r *http.Request, salonID, date, serviceID string) {
	if salonID == "" || date == "" {
		utils.ResponseBadRequest(w, "salon_id and date are required", nil)
		return
	}

	slots, err := h.availability.GetAvailableSlots(r.Context(), salonID, date, serviceID)
	if err != nil {
		writeServiceError(w, h.log, err, "get available slots")
		return
	}

	utils.ResponseSuccess(w, "success", slots)
}

// GetSalonBookings handles GET /api/bookings/salon-bookings?status=&payment_status=&date=
func (h *BookingHandler) GetSalonBookings(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	req := request.SalonBookingsQuery{
		PaginatedRequest: pageFromQuery(r),
		Status:           query.Get("status"),
		PaymentStatus:    query.Get("payment_status"),
		Date:             query.Get("date"),
	}

	bookings, err := h.service.GetSalonBookings(r.Context(), ownerID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "get salon bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// UpdateBookingStatus handles POST /api/bookings/{id}/update-status
func (h *BookingHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.UpdateBookingStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	booking, err := h.service.UpdateBookingStatus(r.Context(), ownerID, chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update booking status")
		return
	}

	utils.ResponseSuccess(w, "Booking status updated", booking)
}

// GetCalendarLink handles GET /api/bookings/{id}/calendar-link
func (h *BookingHandler) GetCalendarLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	link, err := h.service.GetCalendarLink(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get calendar link")
		return
	}

	utils.ResponseSuccess(w, "success", link)
}
