package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"salon-booking/internal/wire"
	"salon-booking/internal/worker"
	"salon-booking/pkg/utils"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// APIServer serves the router until ctx is cancelled, running the expiry
// sweeper alongside when it is enabled.
func APIServer(ctx context.Context, app *wire.App, config *utils.Config, logger *zap.Logger) error {
	addr := fmt.Sprintf(":%s", config.App.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	if config.Sweeper.IntervalMinutes > 0 {
		sweeper := worker.NewExpirySweeper(
			app.Service.Expiry,
			time.Duration(config.Sweeper.IntervalMinutes)*time.Minute,
			time.Duration(config.Sweeper.ExpiryMinutes)*time.Minute,
			logger,
		)
		go sweeper.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("HTTP server stopped")
	return nil
}
