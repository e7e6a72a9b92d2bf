package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/glbter/distributed-systems/portfolio-analytics/config"
	portfolioHttp "github.com/glbter/distributed-systems/portfolio-analytics/http"
	"github.com/glbter/distributed-systems/portfolio-analytics/metrics"
)

const shutdownTimeout = 30 * time.Second

func routerOptions(cfg *config.Config) portfolioHttp.RouterOptions {
	return portfolioHttp.RouterOptions{
		BasePath:       cfg.HTTP.BasePath,
		FrontendOrigin: cfg.FrontendOrigin,
		Timeout:        60 * time.Second,
	}
}

// serve runs handler on port until ctx is done, then drains in-flight requests.
func serve(ctx context.Context, logger *zap.Logger, port int, handler http.Handler) error {
	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server is starting", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server is shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// serveMetrics exposes /metrics and /health for the non-HTTP services when a
// port is configured.
func serveMetrics(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) {
	if cfg.HTTP.Port == 0 {
		return
	}

	router := portfolioHttp.NewRouter(routerOptions(cfg), logger, m, func(chi.Router) {})
	go func() {
		if err := serve(ctx, logger, cfg.HTTP.Port, router); err != nil {
			logger.Error(fmt.Errorf("metrics server: %w", err).Error())
		}
	}()
}
