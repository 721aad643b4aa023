package usecase

import (
	"context"
	"testing"
	"time"

	"salon-booking/internal/data/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpirySweep(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{})
	ctx := context.Background()

	stale := f.addBooking("10:00", entity.PaymentMethodStripe, f.now.Add(-20*time.Minute))
	staleTxn := f.addPendingTxn(stale, "cs_stale")
	fresh := f.addBooking("11:00", entity.PaymentMethodPayPal, f.now.Add(-1*time.Minute))
	payLater := f.addBooking("12:00", entity.PaymentMethodPayLater, f.now.Add(-20*time.Minute))

	t.Run("DryRun", func(t *testing.T) {
		resp, err := svc.Expiry.Sweep(ctx, 15*time.Minute, true)
		require.NoError(t, err)
		assert.True(t, resp.DryRun)
		assert.Equal(t, 1, resp.Matched)
		assert.Equal(t, 0, resp.Cancelled)
		assert.Equal(t, []string{stale.ID.String()}, resp.Bookings)
		assert.Equal(t, entity.BookingStatusPending, f.bookings.get(stale.ID).Status)
	})

	t.Run("Cancel", func(t *testing.T) {
		resp, err := svc.Expiry.Sweep(ctx, 15*time.Minute, false)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Matched)
		assert.Equal(t, 1, resp.Cancelled)
		assert.Equal(t, []string{stale.ID.String()}, resp.Bookings)

		assert.Equal(t, entity.BookingStatusCancelled, f.bookings.get(stale.ID).Status)
		assert.Equal(t, entity.BookingStatusPending, f.bookings.get(fresh.ID).Status)
		assert.Equal(t, entity.BookingStatusPending, f.bookings.get(payLater.ID).Status)

		txn, _ := f.txns.FindByID(ctx, staleTxn.ID)
		assert.Equal(t, entity.TransactionStatusCancelled, txn.Status)
	})

	t.Run("NothingLeft", func(t *testing.T) {
		resp, err := svc.Expiry.Sweep(ctx, 15*time.Minute, false)
		require.NoError(t, err)
		assert.Equal(t, 0, resp.Matched)
		assert.Empty(t, resp.Bookings)
	})
}

func TestExpirySweepRejectsNonPositiveWindow(t *testing.T) {
	f := newFixture()
	svc := f.services(Deps{})

	_, err := svc.Expiry.Sweep(context.Background(), 0, true)
	assert.Error(t, err)
}
