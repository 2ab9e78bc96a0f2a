package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/salon-booking/internal/observability/metrics"
	"github.com/wolfman30/salon-booking/internal/salonapi"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

const dateLayout = "2006-01-02"

// BookingWindow is the range of calendar dates a customer may pick: today
// through MaxAdvanceDays ahead, inclusive, in Location.
type BookingWindow struct {
	MaxAdvanceDays int
	Location       *time.Location
	Now            Clock
}

// Bounds returns the first and last bookable dates at midnight in Location.
func (w BookingWindow) Bounds() (time.Time, time.Time) {
	loc := w.Location
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	today := truncateDay(now().In(loc))
	return today, today.AddDate(0, 0, w.MaxAdvanceDays)
}

// Contains reports whether date's calendar day lies inside the window.
func (w BookingWindow) Contains(date time.Time) bool {
	first, last := w.Bounds()
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, first.Location())
	return !day.Before(first) && !day.After(last)
}

// ParseDate parses a YYYY-MM-DD form value in the window's location.
func (w BookingWindow) ParseDate(raw string) (time.Time, error) {
	loc := w.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(dateLayout, strings.TrimSpace(raw), loc)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SlotState is the rendering state of the time selection control.
type SlotState string

const (
	SlotStateIncomplete  SlotState = "selection_incomplete"
	SlotStateLoading     SlotState = "loading"
	SlotStateLoaded      SlotState = "loaded"
	SlotStateUnavailable SlotState = "unavailable"
)

// SlotRequest is one (date, service) query. StylistID narrows availability
// to one stylist when set.
type SlotRequest struct {
	Date      time.Time
	ServiceID string
	StylistID string
}

// SlotView is what the time selection control shows.
type SlotView struct {
	State     SlotState           `json:"state"`
	Date      string              `json:"date,omitempty"`
	ServiceID string              `json:"service_id,omitempty"`
	Slots     []salonapi.TimeSlot `json:"slots"`
	Message   string              `json:"message,omitempty"`
	Err       error               `json:"-"`
}

// Options renders the view as a selection control.
func (v SlotView) Options() []Option {
	switch v.State {
	case SlotStateLoaded:
		out := make([]Option, 0, len(v.Slots)+1)
		out = append(out, Option{Value: "", Label: "Select a time"})
		for _, slot := range v.Slots {
			out = append(out, Option{Value: slot.Start.String(), Label: slot.Start.Clock()})
		}
		return out
	default:
		return []Option{{Value: "", Label: v.Message}}
	}
}

// Has reports whether start is one of the selectable slots.
func (v SlotView) Has(start string) bool {
	if v.State != SlotStateLoaded {
		return false
	}
	for _, slot := range v.Slots {
		if slot.Start.String() == start {
			return true
		}
	}
	return false
}

const (
	incompleteMessage  = "Select a date and service first"
	loadingMessage     = "Loading times..."
	outOfWindowMessage = "Choose a date between %s and %s"
	unavailableMessage = "Unable to retrieve time slots"
	noSlotsMessage     = "No times available on this date"
)

// AvailabilityResolver turns a (date, service) selection into bookable slots.
// Results are never cached: every call reflects the backend at call time.
type AvailabilityResolver struct {
	source  SlotSource
	window  BookingWindow
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
}

// NewAvailabilityResolver creates a resolver.
func NewAvailabilityResolver(source SlotSource, window BookingWindow, logger *logging.Logger, m *metrics.BookingMetrics) *AvailabilityResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &AvailabilityResolver{source: source, window: window, logger: logger.Component("availability"), metrics: m}
}

// Window exposes the configured booking window.
func (r *AvailabilityResolver) Window() BookingWindow { return r.window }

// GetAvailableSlots issues at most one backend query. Missing or
// out-of-window selections return SlotStateIncomplete without a network call.
func (r *AvailabilityResolver) GetAvailableSlots(ctx context.Context, req SlotRequest) SlotView {
	view := SlotView{ServiceID: strings.TrimSpace(req.ServiceID), Slots: []salonapi.TimeSlot{}}
	if !req.Date.IsZero() {
		view.Date = req.Date.Format(dateLayout)
	}

	if err := r.checkPreconditions(req); err != nil {
		view.State = SlotStateIncomplete
		view.Message = err.Message
		view.Err = err
		r.metrics.ObserveSlotLookup(string(view.State))
		return view
	}

	raw, err := r.source.GetAvailableSlots(ctx, salonapi.SlotQuery{
		Date:      req.Date,
		ServiceID: view.ServiceID,
		StylistID: strings.TrimSpace(req.StylistID),
	})
	if err != nil {
		r.logger.Warn("slot lookup failed", "date", view.Date, "service_id", view.ServiceID, "error", err)
		view.State = SlotStateUnavailable
		view.Message = unavailableMessage
		view.Err = err
		r.metrics.ObserveSlotLookup(string(view.State))
		return view
	}

	view.State = SlotStateLoaded
	view.Slots = FilterAvailable(raw)
	if len(view.Slots) == 0 {
		view.Message = noSlotsMessage
	}
	r.metrics.ObserveSlotLookup(string(view.State))
	return view
}

func (r *AvailabilityResolver) checkPreconditions(req SlotRequest) *PreconditionError {
	if req.Date.IsZero() || strings.TrimSpace(req.ServiceID) == "" {
		return &PreconditionError{Field: "selection", Message: incompleteMessage}
	}
	if !r.window.Contains(req.Date) {
		first, last := r.window.Bounds()
		return &PreconditionError{
			Field:   "date",
			Message: fmt.Sprintf(outOfWindowMessage, first.Format(dateLayout), last.Format(dateLayout)),
		}
	}
	return nil
}

// FilterAvailable keeps slots flagged available, preserving server order.
func FilterAvailable(slots []salonapi.TimeSlot) []salonapi.TimeSlot {
	out := make([]salonapi.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.Available {
			out = append(out, slot)
		}
	}
	return out
}
