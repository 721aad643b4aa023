package response

import (
	"time"

	"salon-booking/internal/data/entity"
)

type BookingResponse struct {
	ID            string               `json:"id"`
	CustomerID    string               `json:"customer_id"`
	SalonID       string               `json:"salon_id"`
	SalonName     string               `json:"salon_name,omitempty"`
	ServiceID     string               `json:"service_id"`
	ServiceName   string               `json:"service_name,omitempty"`
	Date          string               `json:"date"`
	Time          string               `json:"time"`
	Duration      int                  `json:"duration"`
	CustomerName  string               `json:"customer_name"`
	CustomerEmail string               `json:"customer_email"`
	CustomerPhone string               `json:"customer_phone,omitempty"`
	Notes         *string              `json:"notes,omitempty"`
	Price         float64              `json:"price"`
	Status        entity.BookingStatus `json:"status"`
	PaymentStatus entity.PaymentStatus `json:"payment_status"`
	PaymentMethod entity.PaymentMethod `json:"payment_method"`
	PaymentID     *string              `json:"payment_id,omitempty"`
	HoldExpiresAt *time.Time           `json:"hold_expires_at,omitempty"`
	CalendarLink  string               `json:"calendar_link,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID.String(),
		CustomerID:    b.CustomerID.String(),
		SalonID:       b.SalonID.String(),
		ServiceID:     b.ServiceID.String(),
		Date:          b.BookingDate.Format(entity.DateLayout),
		Time:          b.BookingTime,
		Duration:      b.DurationMinutes,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		CustomerPhone: b.CustomerPhone,
		Notes:         b.Notes,
		Price:         b.Price,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		PaymentMethod: b.PaymentMethod,
		PaymentID:     b.PaymentID,
		HoldExpiresAt: b.HoldExpiresAt,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

type SlotResponse struct {
	Time        string `json:"time"`
	DisplayTime string `json:"display_time"`
	EndTime     string `json:"end_time"`
}

// AvailableSlotsResponse lists only the free start times; TotalSlots counts them.
type AvailableSlotsResponse struct {
	Date       string         `json:"date"`
	SalonID    string         `json:"salon_id"`
	SalonName  string         `json:"salon_name"`
	ServiceID  string         `json:"service_id,omitempty"`
	Service    string         `json:"service,omitempty"`
	Duration   int            `json:"duration"`
	Slots      []SlotResponse `json:"slots"`
	TotalSlots int            `json:"total_slots"`
}

// ConflictingBooking describes the booking that blocks a requested slot.
type ConflictingBooking struct {
	Time     string `json:"time"`
	Service  string `json:"service"`
	Duration int    `json:"duration"`
}

type CalendarLinkResponse struct {
	BookingID    string `json:"booking_id"`
	CalendarLink string `json:"calendar_link"`
}

type SweepResponse struct {
	DryRun    bool     `json:"dry_run"`
	Cutoff    string   `json:"cutoff"`
	Matched   int      `json:"matched"`
	Cancelled int      `json:"cancelled"`
	Bookings  []string `json:"bookings"`
}
