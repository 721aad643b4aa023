package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "salon_booking"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		},
		[]string{"route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking creation outcomes.",
		},
		[]string{"outcome"},
	)

	payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Payment transitions by provider and status.",
		},
		[]string{"provider", "status"},
	)

	webhooks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Webhook events by provider and result.",
		},
		[]string{"provider", "result"},
	)

	panics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_panics_total",
			Help:      "Handler panics recovered by route.",
		},
		[]string{"route"},
	)

	expiredBookings = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_bookings_total",
			Help:      "Pending bookings cancelled by the expiry sweeper.",
		},
	)
)

// Register registers the collectors with the default registry. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, bookings, payments, webhooks, panics, expiredBookings)
	})
}

func ObserveHTTP(route, status string, seconds float64) {
	httpRequests.WithLabelValues(route, status).Inc()
	httpDuration.WithLabelValues(route).Observe(seconds)
}

// IncBooking records a booking outcome: created, conflict, lock_timeout or error.
func IncBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

func IncPayment(provider, status string) {
	payments.WithLabelValues(provider, status).Inc()
}

// IncWebhook records a webhook result: applied, duplicate, ignored or failed.
func IncWebhook(provider, result string) {
	webhooks.WithLabelValues(provider, result).Inc()
}

func IncPanic(route string) {
	panics.WithLabelValues(route).Inc()
}

func AddExpired(n int) {
	expiredBookings.Add(float64(n))
}
