package bootstrap

import (
	"github.com/wolfman30/salon-booking/internal/booking"
	appconfig "github.com/wolfman30/salon-booking/internal/config"
	"github.com/wolfman30/salon-booking/internal/observability/metrics"
	"github.com/wolfman30/salon-booking/internal/salonapi"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

// BookingComponents is the booking workflow wired against one salon backend.
type BookingComponents struct {
	Client       *salonapi.Client
	Catalog      *booking.CatalogLoader
	Resolver     *booking.AvailabilityResolver
	Orchestrator *booking.Orchestrator
	History      *booking.History
}

// BookingOptions are the optional collaborators of BuildBooking.
type BookingOptions struct {
	Guard    booking.Guard
	Observer booking.TransitionObserver
	Metrics  *metrics.BookingMetrics
}

// BuildBooking wires the catalog loader, availability resolver, orchestrator
// and history lookup from configuration.
func BuildBooking(cfg *appconfig.Config, opts BookingOptions, logger *logging.Logger) BookingComponents {
	if logger == nil {
		logger = logging.Default()
	}
	client := salonapi.NewClient(cfg.SalonAPIBaseURL, logger.Component("salonapi"), salonapi.WithTimeout(cfg.SalonAPITimeout))
	window := booking.BookingWindow{
		MaxAdvanceDays: cfg.MaxAdvanceBookingDays,
		Location:       cfg.Location(),
	}
	return BookingComponents{
		Client:   client,
		Catalog:  booking.NewCatalogLoader(client, logger, opts.Metrics),
		Resolver: booking.NewAvailabilityResolver(client, window, logger, opts.Metrics),
		Orchestrator: booking.NewOrchestrator(client, booking.OrchestratorConfig{
			StepTimeout:            cfg.StepTimeout,
			DefaultDurationMinutes: cfg.DefaultDurationMinutes,
			Guard:                  opts.Guard,
			Observer:               opts.Observer,
		}, logger, opts.Metrics),
		History: booking.NewHistory(client, logger, opts.Metrics),
	}
}

// NewSession starts a page view over the wired components.
func (c BookingComponents) NewSession() *booking.Session {
	return booking.NewSession(c.Catalog, c.Resolver, c.Orchestrator)
}

// TransitionLogger logs every state machine edge at debug level.
func TransitionLogger(logger *logging.Logger) booking.TransitionObserver {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Component("booking_state")
	return func(attemptID string, tr booking.Transition) {
		logger.Debug("booking transition", "attempt_id", attemptID, "from", tr.From, "to", tr.To)
	}
}
