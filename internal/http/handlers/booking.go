package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/salon-booking/internal/booking"
	"github.com/wolfman30/salon-booking/internal/observability/metrics"
	"github.com/wolfman30/salon-booking/internal/salonapi"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

const maxBookingBody = 64 << 10

// BookingHandler serves the widget API. It is stateless: every request is
// its own page view of the booking form.
type BookingHandler struct {
	catalog      *booking.CatalogLoader
	resolver     *booking.AvailabilityResolver
	orchestrator *booking.Orchestrator
	history      *booking.History
	gatherer     prometheus.Gatherer
	logger       *logging.Logger
}

// BookingHandlerConfig wires a BookingHandler.
type BookingHandlerConfig struct {
	Catalog      *booking.CatalogLoader
	Resolver     *booking.AvailabilityResolver
	Orchestrator *booking.Orchestrator
	History      *booking.History
	// Gatherer backs /booking/stats; nil uses the default registry.
	Gatherer prometheus.Gatherer
	Logger   *logging.Logger
}

// NewBookingHandler creates the widget API handler.
func NewBookingHandler(cfg BookingHandlerConfig) *BookingHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{
		catalog:      cfg.Catalog,
		resolver:     cfg.Resolver,
		orchestrator: cfg.Orchestrator,
		history:      cfg.History,
		gatherer:     cfg.Gatherer,
		logger:       logger.Component("booking_api"),
	}
}

// CatalogResponse is the body of the catalog endpoints.
type CatalogResponse[T any] struct {
	State   booking.LoadState `json:"state"`
	Options []booking.Option  `json:"options"`
	Items   []T               `json:"items"`
	Message string            `json:"message,omitempty"`
}

// SlotsResponse is the body of GET /booking/slots.
type SlotsResponse struct {
	booking.SlotView
	Options []booking.Option `json:"options"`
}

// ReservationRequest is the body of POST /booking/reservations.
type ReservationRequest struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	ServiceID string `json:"service_id"`
	StylistID string `json:"stylist_id"`
	SlotStart string `json:"slot_start"`
	Notes     string `json:"notes"`
}

// ReservationResponse is the 201 body of POST /booking/reservations.
type ReservationResponse struct {
	AttemptID       string                `json:"attempt_id"`
	Reservation     *salonapi.Reservation `json:"reservation"`
	CustomerCreated bool                  `json:"customer_created"`
	Message         string                `json:"message"`
}

// BookingFailure is the error body of POST /booking/reservations.
type BookingFailure struct {
	AttemptID       string            `json:"attempt_id,omitempty"`
	Step            booking.State     `json:"step"`
	Reason          string            `json:"reason"`
	Kind            booking.ErrorKind `json:"kind"`
	CustomerCreated bool              `json:"customer_created,omitempty"`
}

// Health handles GET /health.
func (h *BookingHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListServices handles GET /booking/services.
func (h *BookingHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	res := h.catalog.ListServices(r.Context())
	resp := CatalogResponse[salonapi.Service]{
		State:   res.State,
		Items:   res.Items,
		Message: res.Message("services"),
	}
	if res.State != booking.LoadFailed {
		resp.Options = booking.ServiceOptions(res.Items)
	}
	writeCatalog(w, resp)
}

// ListStylists handles GET /booking/stylists.
func (h *BookingHandler) ListStylists(w http.ResponseWriter, r *http.Request) {
	res := h.catalog.ListStylists(r.Context())
	resp := CatalogResponse[salonapi.Stylist]{
		State:   res.State,
		Items:   res.Items,
		Message: res.Message("stylists"),
	}
	if res.State != booking.LoadFailed {
		resp.Options = booking.StylistOptions(res.Items)
	}
	writeCatalog(w, resp)
}

func writeCatalog[T any](w http.ResponseWriter, resp CatalogResponse[T]) {
	if resp.Items == nil {
		resp.Items = []T{}
	}
	if resp.Options == nil {
		resp.Options = []booking.Option{}
	}
	status := http.StatusOK
	if resp.State == booking.LoadFailed {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

// GetSlots handles GET /booking/slots?date=YYYY-MM-DD&service_id=&stylist_id=.
// An incomplete selection is not an error; the view carries the prompt.
func (h *BookingHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := booking.SlotRequest{
		ServiceID: q.Get("service_id"),
		StylistID: q.Get("stylist_id"),
	}
	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		date, err := h.resolver.Window().ParseDate(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return
		}
		req.Date = date
	}

	view := h.resolver.GetAvailableSlots(r.Context(), req)
	status := http.StatusOK
	if view.State == booking.SlotStateUnavailable {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, SlotsResponse{SlotView: view, Options: view.Options()})
}

// CreateReservation handles POST /booking/reservations.
func (h *BookingHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBookingBody)
	var body ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Warn("invalid reservation body", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req := booking.BookingRequest{
		Contact:   booking.ContactInfo{Email: body.Email, Name: body.Name, Phone: body.Phone},
		ServiceID: body.ServiceID,
		StylistID: body.StylistID,
		Notes:     body.Notes,
	}
	if raw := strings.TrimSpace(body.SlotStart); raw != "" {
		slot, err := salonapi.ParseTimestamp(raw)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, BookingFailure{
				Step:   booking.StateIdle,
				Reason: "Select a time slot",
				Kind:   booking.KindPrecondition,
			})
			return
		}
		req.SlotStart = slot
	}

	res, err := h.orchestrator.SubmitBooking(r.Context(), req)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ReservationResponse{
		AttemptID:       res.AttemptID,
		Reservation:     res.Reservation,
		CustomerCreated: res.CustomerCreated,
		Message:         "Reservation confirmed",
	})
}

func (h *BookingHandler) writeBookingError(w http.ResponseWriter, err error) {
	var be *booking.BookingError
	if !errors.As(err, &be) {
		h.logger.Error("unexpected booking error", "error", err)
		writeJSON(w, http.StatusInternalServerError, BookingFailure{
			Step:   booking.StateFailed,
			Reason: booking.GenericTransportMessage,
			Kind:   booking.KindTransport,
		})
		return
	}
	writeJSON(w, bookingErrorStatus(be), BookingFailure{
		AttemptID:       be.AttemptID,
		Step:            be.Step,
		Reason:          be.Reason,
		Kind:            be.Kind,
		CustomerCreated: be.CustomerCreated,
	})
}

// bookingErrorStatus maps a failed attempt to an HTTP status. Backend
// rejections keep their 4xx code; anything the backend could not explain is
// a bad gateway.
func bookingErrorStatus(be *booking.BookingError) int {
	switch be.Kind {
	case booking.KindPrecondition:
		return http.StatusUnprocessableEntity
	case booking.KindConflict:
		return http.StatusConflict
	case booking.KindValidation:
		var ve *salonapi.ValidationError
		if errors.As(be, &ve) && ve.StatusCode >= 400 && ve.StatusCode < 500 {
			return ve.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

// GetHistory handles GET /booking/history?email=.
func (h *BookingHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	view := h.history.Lookup(r.Context(), r.URL.Query().Get("email"))
	status := http.StatusOK
	switch view.State {
	case booking.HistoryMissingEmail:
		status = http.StatusUnprocessableEntity
	case booking.HistoryFailed:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, view)
}

// Stats handles GET /booking/stats: attempt outcomes since process start.
func (h *BookingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.SnapshotOutcomes(h.gatherer))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
