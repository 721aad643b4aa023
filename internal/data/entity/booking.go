package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type PaymentMethod string

const (
	PaymentMethodPayPal   PaymentMethod = "paypal"
	PaymentMethodStripe   PaymentMethod = "stripe"
	PaymentMethodPayLater PaymentMethod = "pay_later"
	PaymentMethodCash     PaymentMethod = "cash"
)

// TimeLayout is the wall-clock format of Booking.BookingTime.
const TimeLayout = "15:04"

// DateLayout is the format of booking dates on the wire.
const DateLayout = "2006-01-02"

type Booking struct {
	BaseNoDelete
	CustomerID      uuid.UUID     `db:"customer_id"`
	SalonID         uuid.UUID     `db:"salon_id"`
	ServiceID       uuid.UUID     `db:"service_id"`
	BookingDate     time.Time     `db:"booking_date"`
	BookingTime     string        `db:"booking_time"`
	DurationMinutes int           `db:"duration_minutes"`
	CustomerName    string        `db:"customer_name"`
	CustomerEmail   string        `db:"customer_email"`
	CustomerPhone   string        `db:"customer_phone"`
	Notes           *string       `db:"notes"`
	Price           float64       `db:"price"`
	Status          BookingStatus `db:"status"`
	PaymentStatus   PaymentStatus `db:"payment_status"`
	PaymentMethod   PaymentMethod `db:"payment_method"`
	PaymentID       *string       `db:"payment_id"`
	HoldExpiresAt   *time.Time    `db:"hold_expires_at"`
}

// ParseClock converts "HH:MM" (or "HH:MM:SS") to minutes since midnight.
func ParseClock(value string) (int, error) {
	layouts := []string{TimeLayout, "15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, fmt.Errorf("invalid time %q", value)
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// StartMinute returns the booking start as minutes since midnight.
func (b *Booking) StartMinute() (int, error) {
	return ParseClock(b.BookingTime)
}

// Window returns the occupied interval [start, start+duration) in minutes.
func (b *Booking) Window() (start, end int, err error) {
	start, err = b.StartMinute()
	if err != nil {
		return 0, 0, err
	}
	return start, start + b.DurationMinutes, nil
}

// StartsAt combines the booking date and time in loc.
func (b *Booking) StartsAt(loc *time.Location) (time.Time, error) {
	minute, err := b.StartMinute()
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := b.BookingDate.Date()
	return time.Date(y, m, d, minute/60, minute%60, 0, 0, loc), nil
}

// HoldActive reports whether an unpaid pending booking still reserves its slot.
// Pay-later bookings have no hold expiry and reserve until their status changes.
func (b *Booking) HoldActive(now time.Time) bool {
	if b.Status != BookingStatusPending {
		return false
	}
	if b.PaymentStatus != PaymentStatusPending {
		return b.PaymentStatus == PaymentStatusCompleted
	}
	if b.HoldExpiresAt == nil {
		return b.PaymentMethod == PaymentMethodPayLater
	}
	return now.Before(*b.HoldExpiresAt)
}

// BlocksSlot reports whether the booking occupies its interval at time now.
func (b *Booking) BlocksSlot(now time.Time) bool {
	switch b.Status {
	case BookingStatusConfirmed, BookingStatusCompleted:
		return true
	case BookingStatusPending:
		return b.HoldActive(now)
	}
	return false
}

func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentStatusCompleted
}
