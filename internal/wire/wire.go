package wire

import (
	"net/http"

	"salon-booking/internal/adaptor"
	"salon-booking/internal/data/repository"
	"salon-booking/internal/usecase"
	"salon-booking/pkg/metrics"
	"salon-booking/pkg/middleware"
	"salon-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the router and the services behind it.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and routes.
func Wiring(repo *repository.Repository, config *utils.Config, deps usecase.Deps, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, deps, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, repo, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

// routeDeps is what every wire* function needs besides its handler.
type routeDeps struct {
	auth func(http.Handler) http.Handler
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	metrics.Register()
	limiter := middleware.NewRateLimiter(config.RateLimit)

	// Global middleware
	r.Use(middleware.ClientIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", map[string]string{"status": "healthy"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	deps := routeDeps{
		auth: middleware.AuthSession(repo.Session, repo.User, logger),
	}

	r.Group(func(r chi.Router) {
		r.Use(limiter.Limit)

		wireAuth(r, handler.Auth, deps)
		wireUser(r, handler.User, deps)
		wireSalon(r, handler.Salon, deps)
		wireBooking(r, handler.Booking, handler.Payment, deps)
		wireChat(r, handler.Chat, deps)
		wireNotification(r, handler.Notification, deps)
		wireReview(r, handler.Review, deps)
		wireSalonApplication(r, handler.Application, deps)
	})

	// Stripe retries on its own schedule; the webhook is not rate limited
	r.Post("/api/bookings/stripe/webhook", handler.Payment.StripeWebhook)

	return r
}
