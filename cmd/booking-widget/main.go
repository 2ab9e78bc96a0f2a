package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/salon-booking/internal/api/router"
	"github.com/wolfman30/salon-booking/internal/app/bootstrap"
	"github.com/wolfman30/salon-booking/internal/booking"
	appconfig "github.com/wolfman30/salon-booking/internal/config"
	"github.com/wolfman30/salon-booking/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/salon-booking/internal/http/middleware"
	"github.com/wolfman30/salon-booking/internal/observability/metrics"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting salon booking widget API",
		"env", cfg.Env,
		"port", cfg.Port,
		"salon_api", cfg.SalonAPIBaseURL,
		"timezone", cfg.Location().String(),
	)
	if _, err := cfg.ResolveLocation(); err != nil {
		logger.Warn("booking timezone not found, using UTC", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(reg)

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx)

	handler := router.New(&router.Config{
		Logger:             logger,
		Booking:            buildBookingHandler(cfg, redisClient, reg, bookingMetrics, logger),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
		RequestTimeout:     requestTimeout(cfg),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout(cfg) + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildBookingHandler wires the widget API against the salon backend.
func buildBookingHandler(cfg *appconfig.Config, redisClient *redis.Client, reg *prometheus.Registry, m *metrics.BookingMetrics, logger *logging.Logger) *handlers.BookingHandler {
	components := bootstrap.BuildBooking(cfg, bootstrap.BookingOptions{
		Guard:    bootstrap.BuildSubmitGuard(cfg, redisClient, logger),
		Observer: bootstrap.TransitionLogger(logger),
		Metrics:  m,
	}, logger)

	return handlers.NewBookingHandler(handlers.BookingHandlerConfig{
		Catalog:      components.Catalog,
		Resolver:     components.Resolver,
		Orchestrator: components.Orchestrator,
		History:      components.History,
		Gatherer:     reg,
		Logger:       logger,
	})
}

// requestTimeout leaves room for all three submission steps.
// A non-positive STEP_TIMEOUT means the orchestrator's 10s default.
func requestTimeout(cfg *appconfig.Config) time.Duration {
	step := cfg.StepTimeout
	if step <= 0 {
		step = booking.DefaultStepTimeout
	}
	return 3*step + 5*time.Second
}
