package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/dto/request"
	"salon-booking/internal/dto/response"
	"salon-booking/pkg/lock"
	"salon-booking/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func (f *fixture) services(deps Deps) *Service {
	deps.Now = f.clock
	return NewService(f.repo, f.config, deps, zap.NewNop())
}

func (f *fixture) createRequest(serviceID, clock, method string) *request.CreateBookingRequest {
	return &request.CreateBookingRequest{
		SalonID:       f.salon.ID.String(),
		ServiceID:     serviceID,
		Date:          testDate,
		Time:          clock,
		PaymentMethod: method,
	}
}

// slotAvailable reports whether clock is listed; booked slots are left out.
func slotAvailable(t *testing.T, slots *response.AvailableSlotsResponse, clock string) bool {
	t.Helper()
	for _, s := range slots.Slots {
		if s.Time == clock {
			return true
		}
	}
	return false
}

func TestCreateBookingRemovesAndCancelRestoresSlot(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{})
	ctx := context.Background()

	booking, err := svc.Booking.CreateBooking(ctx, f.customer.ID, f.createRequest(f.haircut.ID.String(), "10:00", "pay_later"))
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusPending, booking.Status)
	assert.Equal(t, entity.PaymentStatusPending, booking.PaymentStatus)
	assert.Equal(t, "Haircut", booking.ServiceName)
	assert.Contains(t, booking.CalendarLink, "calendar.google.com")

	slots, err := svc.Availability.GetAvailableSlots(ctx, f.salon.ID.String(), testDate, f.haircut.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 60, slots.Duration)
	assert.False(t, slotAvailable(t, slots, "10:00"))
	assert.False(t, slotAvailable(t, slots, "09:30"), "09:30-10:30 overlaps the booking")
	assert.False(t, slotAvailable(t, slots, "10:30"))
	assert.True(t, slotAvailable(t, slots, "09:00"))
	assert.True(t, slotAvailable(t, slots, "11:00"))
	assert.Len(t, slots.Slots, slots.TotalSlots)
	// 17 starts fit a 60 minute service between 09:00 and 18:00; three overlap the booking.
	assert.Equal(t, 14, slots.TotalSlots)

	_, err = svc.Booking.CancelBooking(ctx, f.customer.ID, booking.ID)
	require.NoError(t, err)

	slots, err = svc.Availability.GetAvailableSlots(ctx, f.salon.ID.String(), testDate, f.haircut.ID.String())
	require.NoError(t, err)
	assert.True(t, slotAvailable(t, slots, "10:00"))
}

func TestAvailabilityGridStopsBeforeClosing(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{})

	slots, err := svc.Availability.GetAvailableSlots(context.Background(), f.salon.ID.String(), testDate, f.color.ID.String())
	require.NoError(t, err)

	last := slots.Slots[len(slots.Slots)-1]
	assert.Equal(t, "16:30", last.Time, "a 90 minute service must end by 18:00")
	assert.Equal(t, "18:00", last.EndTime)
	assert.Equal(t, len(slots.Slots), slots.TotalSlots)
}

func TestAvailabilityValidation(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{})
	ctx := context.Background()

	_, err := svc.Availability.GetAvailableSlots(ctx, "not-a-uuid", testDate, "")
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = svc.Availability.GetAvailableSlots(ctx, f.salon.ID.String(), "02/06/2025", "")
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = svc.Availability.GetAvailableSlots(ctx, f.owner.ID.String(), testDate, "")
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestCreateBookingConflictReportsExistingBooking(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{})
	ctx := context.Background()

	_, err := svc.Booking.CreateBooking(ctx, f.customer.ID, f.createRequest(f.haircut.ID.String(), "10:00", "pay_later"))
	require.NoError(t, err)

	_, err = svc.Booking.CreateBooking(ctx, f.customer.ID, f.createRequest(f.color.ID.String(), "09:30", "stripe"))
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrConflict)

	conflict, ok := IsSlotConflict(err)
	require.True(t, ok)
	assert.Equal(t, response.ConflictingBooking{Time: "10:00", Service: "Haircut", Duration: 60}, conflict.Conflicting())

	// Back-to-back bookings do not overlap.
	_, err = svc.Booking.CreateBooking(ctx, f.customer.ID, f.createRequest(f.haircut.ID.String(), "11:00", "pay_later"))
	assert.NoError(t, err)
}

func TestCreateBookingRejectsInvalidRequests(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{})
	ctx := context.Background()

	tests := []struct {
		name string
		req  *request.CreateBookingRequest
		want error
	}{
		{"MissingService", f.createRequest("", "10:00", "pay_later"), utils.ErrValidation},
		{"BadMethod", f.createRequest(f.haircut.ID.String(), "10:00", "bitcoin"), utils.ErrValidation},
		{"AfterClosing", f.createRequest(f.color.ID.String(), "17:00", "pay_later"), utils.ErrValidation},
		{"BeforeOpening", f.createRequest(f.haircut.ID.String(), "08:00", "pay_later"), utils.ErrValidation},
		{"UnknownService", f.createRequest(f.owner.ID.String(), "10:00", "pay_later"), utils.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Booking.CreateBooking(ctx, f.customer.ID, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("PastTime", func(t *testing.T) {
		req := f.createRequest(f.haircut.ID.String(), "10:00", "pay_later")
		req.Date = "2025-05-31"
		_, err := svc.Booking.CreateBooking(ctx, f.customer.ID, req)
		assert.ErrorIs(t, err, utils.ErrValidation)
	})
}

func TestConcurrentCreateBookingOneWins(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{Locker: lock.NewMemoryLocker()})
	ctx := context.Background()

	const workers = 2
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Booking.CreateBooking(ctx, f.customer.ID, f.createRequest(f.haircut.ID.String(), "14:00", "stripe"))
		}(i)
	}
	wg.Wait()

	var created, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, utils.ErrConflict):
			_, ok := IsSlotConflict(err)
			assert.True(t, ok)
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, conflicts)
}

func TestOnlinePaymentHoldExpiresAndFreesSlot(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{})
	ctx := context.Background()

	booking, err := svc.Booking.CreateBooking(ctx, f.customer.ID, f.createRequest(f.haircut.ID.String(), "15:00", "paypal"))
	require.NoError(t, err)
	require.NotNil(t, booking.HoldExpiresAt)
	assert.Equal(t, f.now.Add(15*time.Minute), *booking.HoldExpiresAt)

	slots, err := svc.Availability.GetAvailableSlots(ctx, f.salon.ID.String(), testDate, "")
	require.NoError(t, err)
	assert.False(t, slotAvailable(t, slots, "15:00"))

	f.now = f.now.Add(16 * time.Minute)
	slots, err = svc.Availability.GetAvailableSlots(ctx, f.salon.ID.String(), testDate, "")
	require.NoError(t, err)
	assert.True(t, slotAvailable(t, slots, "15:00"))
}

func TestPayLaterHoldsSlotUntilStatusChanges(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{})
	ctx := context.Background()

	booking, err := svc.Booking.CreateBooking(ctx, f.customer.ID, f.createRequest(f.haircut.ID.String(), "11:00", "pay_later"))
	require.NoError(t, err)
	assert.Nil(t, booking.HoldExpiresAt)

	// No payment window: a day later the slot is still taken and the sweeper skips it.
	f.now = f.now.Add(24 * time.Hour)
	swept, err := svc.Expiry.Sweep(ctx, 15*time.Minute, false)
	require.NoError(t, err)
	assert.Zero(t, swept.Cancelled)

	slots, err := svc.Availability.GetAvailableSlots(ctx, f.salon.ID.String(), testDate, "")
	require.NoError(t, err)
	assert.False(t, slotAvailable(t, slots, "11:00"))

	_, err = svc.Booking.CancelBooking(ctx, f.customer.ID, booking.ID)
	require.NoError(t, err)
	slots, err = svc.Availability.GetAvailableSlots(ctx, f.salon.ID.String(), testDate, "")
	require.NoError(t, err)
	assert.True(t, slotAvailable(t, slots, "11:00"))
}

func TestCancelBookingRules(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{})
	ctx := context.Background()

	confirmed := f.addBooking("12:00", entity.PaymentMethodPayLater, f.now)
	confirmed.Status = entity.BookingStatusConfirmed
	f.bookings.put(confirmed)

	_, err := svc.Booking.CancelBooking(ctx, f.customer.ID, confirmed.ID.String())
	assert.ErrorIs(t, err, utils.ErrInvalidState)

	pending := f.addBooking("13:00", entity.PaymentMethodPayLater, f.now)
	_, err = svc.Booking.CancelBooking(ctx, f.owner.ID, pending.ID.String())
	assert.ErrorIs(t, err, utils.ErrNotFound, "other users cannot see the booking")
}

func TestUpdateBookingStatusSettlesPayLater(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{})
	ctx := context.Background()

	b := f.addBooking("10:00", entity.PaymentMethodPayLater, f.now)
	f.addPendingTxn(b, "")

	resp, err := svc.Booking.UpdateBookingStatus(ctx, f.owner.ID, b.ID.String(), &request.UpdateBookingStatusRequest{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCompleted, resp.Status)
	assert.Equal(t, entity.PaymentStatusCompleted, resp.PaymentStatus)
	assert.Equal(t, entity.PaymentMethodCash, resp.PaymentMethod)

	txns := f.txns.all()
	require.Len(t, txns, 1)
	assert.Equal(t, entity.TransactionStatusCompleted, txns[0].Status)
	assert.Equal(t, entity.PaymentMethodCash, txns[0].PaymentMethod)

	_, err = svc.Booking.UpdateBookingStatus(ctx, f.owner.ID, b.ID.String(), &request.UpdateBookingStatusRequest{Status: "pending"})
	assert.ErrorIs(t, err, utils.ErrInvalidState)

	_, err = svc.Booking.UpdateBookingStatus(ctx, f.customer.ID, b.ID.String(), &request.UpdateBookingStatusRequest{Status: "cancelled"})
	assert.ErrorIs(t, err, utils.ErrForbidden)
}

func TestGetCalendarLink(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{})
	ctx := context.Background()

	b := f.addBooking("10:00", entity.PaymentMethodPayLater, f.now)

	link, err := svc.Booking.GetCalendarLink(ctx, f.owner.ID, b.ID.String())
	require.NoError(t, err)
	assert.Contains(t, link.CalendarLink, "dates=20250602T100000%2F20250602T110000")
	assert.Contains(t, link.CalendarLink, "Haircut+at+Glow+Studio")

	_, err = svc.Booking.GetCalendarLink(ctx, f.salon.ID, b.ID.String())
	assert.ErrorIs(t, err, utils.ErrNotFound)
}
