package booking

import (
	"context"
	"strings"

	"github.com/wolfman30/salon-booking/internal/observability/metrics"
	"github.com/wolfman30/salon-booking/internal/salonapi"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

// HistoryState is the outcome of a reservation history lookup.
type HistoryState string

const (
	HistoryMissingEmail HistoryState = "missing_email"
	HistoryNoCustomer   HistoryState = "no_customer"
	HistoryEmpty        HistoryState = "empty"
	HistoryFound        HistoryState = "found"
	HistoryFailed       HistoryState = "failed"
)

var statusLabels = map[salonapi.ReservationStatus]string{
	salonapi.StatusPending:   "Pending",
	salonapi.StatusConfirmed: "Confirmed",
	salonapi.StatusCompleted: "Completed",
	salonapi.StatusCancelled: "Cancelled",
	salonapi.StatusNoShow:    "No-show",
}

// StatusLabel returns the display label, falling back to the raw value.
func StatusLabel(status salonapi.ReservationStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}

// HistoryEntry is one rendered reservation.
type HistoryEntry struct {
	ID          string                     `json:"id"`
	When        string                     `json:"when"`
	Status      salonapi.ReservationStatus `json:"status"`
	StatusLabel string                     `json:"status_label"`
	Notes       string                     `json:"notes,omitempty"`
}

// HistoryView is what the history panel shows.
type HistoryView struct {
	State      HistoryState   `json:"state"`
	CustomerID string         `json:"customer_id,omitempty"`
	Entries    []HistoryEntry `json:"entries"`
	Message    string         `json:"message,omitempty"`
	Err        error          `json:"-"`
}

// History looks up a customer's reservations by email.
type History struct {
	source  HistorySource
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
}

// NewHistory creates a history lookup.
func NewHistory(source HistorySource, logger *logging.Logger, m *metrics.BookingMetrics) *History {
	if logger == nil {
		logger = logging.Default()
	}
	return &History{source: source, logger: logger.Component("history"), metrics: m}
}

// Lookup resolves the customer the same way the orchestrator does (first
// match) and lists their reservations.
func (h *History) Lookup(ctx context.Context, email string) HistoryView {
	view := h.lookup(ctx, email)
	h.metrics.ObserveHistoryLookup(string(view.State))
	return view
}

func (h *History) lookup(ctx context.Context, email string) HistoryView {
	email = NormalizeEmail(email)
	if email == "" {
		return HistoryView{
			State:   HistoryMissingEmail,
			Entries: []HistoryEntry{},
			Message: "Enter an email address",
			Err:     &PreconditionError{Field: "email", Message: "Enter an email address"},
		}
	}

	matches, err := h.source.FindCustomersByEmail(ctx, email)
	if err != nil {
		return h.failed(err)
	}
	customer, ok := ResolveCustomer(matches)
	if !ok {
		return HistoryView{State: HistoryNoCustomer, Entries: []HistoryEntry{}, Message: "No customer found for this email"}
	}

	reservations, err := h.source.ListReservationsByCustomer(ctx, customer.ID)
	if err != nil {
		return h.failed(err)
	}
	if len(reservations) == 0 {
		return HistoryView{State: HistoryEmpty, CustomerID: customer.ID, Entries: []HistoryEntry{}, Message: "No reservations yet"}
	}

	entries := make([]HistoryEntry, 0, len(reservations))
	for _, r := range reservations {
		when := r.ReservationDatetime.String()
		if !r.ReservationDatetime.Time.IsZero() {
			when = r.ReservationDatetime.Time.Format("2006-01-02 15:04")
		}
		entries = append(entries, HistoryEntry{
			ID:          r.ID,
			When:        when,
			Status:      r.Status,
			StatusLabel: StatusLabel(r.Status),
			Notes:       strings.TrimSpace(r.Notes),
		})
	}
	return HistoryView{State: HistoryFound, CustomerID: customer.ID, Entries: entries}
}

func (h *History) failed(err error) HistoryView {
	h.logger.Warn("history lookup failed", "error", err)
	return HistoryView{State: HistoryFailed, Entries: []HistoryEntry{}, Message: "Error: " + UserMessage(err), Err: err}
}
