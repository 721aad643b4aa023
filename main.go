package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salon-booking/cmd"
	"salon-booking/internal/data/repository"
	"salon-booking/internal/payment"
	"salon-booking/internal/usecase"
	"salon-booking/internal/wire"
	"salon-booking/pkg/calendar"
	"salon-booking/pkg/database"
	"salon-booking/pkg/events"
	"salon-booking/pkg/googleauth"
	"salon-booking/pkg/lock"
	"salon-booking/pkg/mailer"
	"salon-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	sweep := flag.Bool("sweep", false, "cancel expired pending bookings once and exit")
	dryRun := flag.Bool("dry-run", false, "with -sweep, report matches without cancelling")
	minutes := flag.Int("minutes", 0, "with -sweep, age in minutes after which a pending booking expires (default SWEEPER_EXPIRY_MINUTES)")
	flag.Parse()

	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.Bool("sweep", *sweep),
	)

	// Connect to database
	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	repos := repository.NewRepository(db, logger)

	deps, cleanup := buildDeps(ctx, config, logger)
	defer cleanup()

	app := wire.Wiring(repos, config, deps, logger)

	if config.Google.CalendarID != "" && config.Google.CalendarCredentials != "" {
		pusher, err := calendar.NewPusher(ctx, config.Google.CalendarCredentials, config.Google.CalendarID)
		if err != nil {
			logger.Warn("Calendar sync disabled", zap.Error(err))
		} else {
			usecase.NewCalendarSync(repos, pusher, config.App.Location(), logger).Subscribe(deps.Events)
			logger.Info("Calendar sync enabled", zap.String("calendar_id", config.Google.CalendarID))
		}
	}

	if *sweep {
		olderThan := time.Duration(config.Sweeper.ExpiryMinutes) * time.Minute
		if *minutes > 0 {
			olderThan = time.Duration(*minutes) * time.Minute
		}
		if err := cmd.Sweep(ctx, app.Service.Expiry, olderThan, *dryRun, os.Stdout); err != nil {
			logger.Error("Sweep failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	if err := cmd.APIServer(ctx, app, config, logger); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}

// buildDeps connects the optional infrastructure. Anything not configured
// is left nil so the services fall back to their in-process defaults.
func buildDeps(ctx context.Context, config *utils.Config, logger *zap.Logger) (usecase.Deps, func()) {
	var closers []func()
	deps := usecase.Deps{
		Mailer: mailer.New(config.Email, logger),
		Events: events.NewEventBus(),
	}

	redisClient, err := database.InitRedis(config.Redis)
	switch {
	case err != nil:
		logger.Warn("Redis unavailable, using in-process slot lock", zap.Error(err))
	case redisClient != nil:
		deps.Locker = lock.NewRedisLocker(redisClient)
		closers = append(closers, func() { _ = redisClient.Close() })
		logger.Info("Redis slot lock enabled", zap.String("addr", config.Redis.Addr))
	default:
		logger.Info("Redis not configured, using in-process slot lock")
	}

	var gateways []payment.Gateway
	if config.Stripe.SecretKey != "" {
		gateways = append(gateways, payment.NewStripeGateway(config.Stripe))
	}
	if config.PayPal.ClientID != "" {
		paypal, err := payment.NewPayPalGateway(config.PayPal)
		if err != nil {
			logger.Warn("PayPal disabled", zap.Error(err))
		} else {
			gateways = append(gateways, paypal)
		}
	}
	deps.Payments = payment.NewRegistry(gateways...)

	if config.Google.ClientID != "" {
		deps.Google = googleauth.NewVerifier(config.Google.ClientID)
	}

	if config.RabbitMQ.URL != "" {
		publisher, err := events.NewAMQPPublisher(config.RabbitMQ.URL, config.RabbitMQ.Exchange)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, events stay in-process", zap.Error(err))
		} else {
			events.Forward(deps.Events, publisher, logger)
			closers = append(closers, func() { _ = publisher.Close() })
			logger.Info("Forwarding events to RabbitMQ", zap.String("exchange", config.RabbitMQ.Exchange))
		}
	}

	return deps, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}
