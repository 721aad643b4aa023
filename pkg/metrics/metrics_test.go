package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	Register()
	Register()

	assert.NotPanics(t, func() {
		ObserveHTTP("/api/bookings/create", "2xx", 0.01)
		IncPayment("stripe", "completed")
	})

	before := testutil.ToFloat64(bookings.WithLabelValues("conflict"))
	IncBooking("conflict")
	assert.Equal(t, before+1, testutil.ToFloat64(bookings.WithLabelValues("conflict")))

	before = testutil.ToFloat64(webhooks.WithLabelValues("stripe", "duplicate"))
	IncWebhook("stripe", "duplicate")
	assert.Equal(t, before+1, testutil.ToFloat64(webhooks.WithLabelValues("stripe", "duplicate")))

	before = testutil.ToFloat64(expiredBookings)
	AddExpired(3)
	assert.Equal(t, before+3, testutil.ToFloat64(expiredBookings))
}
