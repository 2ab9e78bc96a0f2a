package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/salon-booking/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/salon-booking/internal/http/middleware"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Booking        *handlers.BookingHandler
	MetricsHandler http.Handler

	CORSAllowedOrigins []string
	// RateLimiter guards the /booking routes; nil disables limiting.
	RateLimiter *httpmiddleware.RateLimiter
	// RequestTimeout bounds a whole widget API request; zero disables it.
	RequestTimeout time.Duration
}

// New creates the widget API router
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", cfg.Booking.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/booking", func(b chi.Router) {
		if cfg.RateLimiter != nil {
			b.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		if cfg.RequestTimeout > 0 {
			b.Use(middleware.Timeout(cfg.RequestTimeout))
		}
		b.Get("/services", cfg.Booking.ListServices)
		b.Get("/stylists", cfg.Booking.ListStylists)
		b.Get("/slots", cfg.Booking.GetSlots)
		b.Post("/reservations", cfg.Booking.CreateReservation)
		b.Get("/history", cfg.Booking.GetHistory)
		b.Get("/stats", cfg.Booking.Stats)
	})

	return r
}
