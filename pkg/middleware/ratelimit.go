package middleware

import (
	"net/http"
	"sync"

	"salon-booking/pkg/utils"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rps      float64
	burst    int
}

func NewRateLimiter(config utils.RateLimitConfig) *RateLimiter {
	burst := config.Burst
	if burst <= 0 {
		burst = 5
	}
	return &RateLimiter{rps: config.RPS, burst: burst}
}

func (l *RateLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	lim := rate.NewLimiter(rate.Limit(l.rps), l.burst)
	actual, _ := l.limiters.LoadOrStore(key, lim)
	return actual.(*rate.Limiter)
}

// Limit rejects requests over the per-IP rate with 429. A non-positive rate
// disables limiting.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.rps <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		key := utils.GetClientIP(r.Context())
		if key == "" {
			key = clientIP(r)
		}

		if !l.getLimiter(key).Allow() {
			utils.ResponseTooManyRequests(w, "Too many requests, please slow down")
			return
		}

		next.ServeHTTP(w, r)
	})
}
