package middleware

import (
	"net/http"

	"salon-booking/pkg/metrics"
	"salon-booking/pkg/utils"

	"go.uber.org/zap"
)

// Recover turns handler panics into a 500 response and counts them per route.
func Recover(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				route := routePattern(r)
				metrics.IncPanic(route)
				logger.Error("Handler panic",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("route", route),
					zap.String("client_ip", utils.GetClientIP(r.Context())),
					zap.Stack("stack"),
				)

				utils.ResponseInternalError(w, "Internal server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
