package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/salon-booking/internal/observability/metrics"
	"github.com/wolfman30/salon-booking/internal/salonapi"
	"github.com/wolfman30/salon-booking/internal/submitguard"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

var tracer = otel.Tracer("salon/booking")

// DefaultStepTimeout bounds each backend call when none is configured.
const DefaultStepTimeout = 10 * time.Second

const defaultDurationMinutes = 30

// BookingRequest is one user-initiated submission of the booking form.
type BookingRequest struct {
	Contact   ContactInfo        `json:"contact"`
	ServiceID string             `json:"service_id" validate:"required"`
	StylistID string             `json:"stylist_id,omitempty"`
	SlotStart salonapi.Timestamp `json:"slot_start"`
	Notes     string             `json:"notes,omitempty" validate:"max=1000"`
}

func (r BookingRequest) normalized() BookingRequest {
	r.Contact.Email = NormalizeEmail(r.Contact.Email)
	r.Contact.Name = strings.TrimSpace(r.Contact.Name)
	r.Contact.Phone = strings.TrimSpace(r.Contact.Phone)
	r.ServiceID = strings.TrimSpace(r.ServiceID)
	r.StylistID = strings.TrimSpace(r.StylistID)
	r.Notes = strings.TrimSpace(r.Notes)
	return r
}

// guardKey identifies one booking intent. The slot is keyed by instant so
// equivalent spellings of the same start collide.
func (r BookingRequest) guardKey() string {
	slot := r.SlotStart.String()
	if !r.SlotStart.Time.IsZero() {
		slot = r.SlotStart.Time.UTC().Format(time.RFC3339)
	}
	return r.Contact.Email + "|" + r.ServiceID + "|" + slot
}

// Result is a successful submission.
type Result struct {
	AttemptID       string                `json:"attempt_id"`
	Reservation     *salonapi.Reservation `json:"reservation"`
	Customer        salonapi.Customer     `json:"customer"`
	CustomerCreated bool                  `json:"customer_created"`
	Transitions     []Transition          `json:"transitions"`
}

// OrchestratorConfig tunes the submission sequence.
type OrchestratorConfig struct {
	// StepTimeout bounds each backend call; zero means 10s.
	StepTimeout time.Duration
	// DefaultDurationMinutes is used when the backend reports no duration.
	DefaultDurationMinutes int
	// Guard rejects duplicate in-flight submissions; nil means a
	// process-local guard.
	Guard    Guard
	Observer TransitionObserver
	Now      Clock
}

// Orchestrator runs the find-or-create customer, service re-fetch and
// reservation submission sequence.
type Orchestrator struct {
	backend ReservationBackend
	cfg     OrchestratorConfig
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
}

// NewOrchestrator creates an orchestrator. metrics may be nil.
func NewOrchestrator(backend ReservationBackend, cfg OrchestratorConfig, logger *logging.Logger, m *metrics.BookingMetrics) *Orchestrator {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = DefaultStepTimeout
	}
	if cfg.DefaultDurationMinutes <= 0 {
		cfg.DefaultDurationMinutes = defaultDurationMinutes
	}
	if cfg.Guard == nil {
		cfg.Guard = submitguard.NewMemory()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{backend: backend, cfg: cfg, logger: logger.Component("orchestrator"), metrics: m}
}

// SubmitBooking runs one attempt. Every failure is returned as a
// *BookingError; no step is retried.
func (o *Orchestrator) SubmitBooking(ctx context.Context, req BookingRequest) (*Result, error) {
	att := newAttempt(uuid.NewString(), o.cfg.Now, o.cfg.Observer)
	ctx, span := tracer.Start(ctx, "booking.submit")
	defer span.End()
	span.SetAttributes(attribute.String("booking.attempt_id", att.id))

	req = req.normalized()
	if err := checkRequest(req); err != nil {
		return nil, o.fail(span, att, err, false)
	}

	release, err := o.cfg.Guard.Acquire(ctx, req.guardKey())
	if err != nil {
		return nil, o.reject(span, att, err)
	}
	defer release()

	// Step 1: customer resolution.
	if err := att.advance(StateResolvingCustomer); err != nil {
		return nil, o.fail(span, att, err, false)
	}
	var customer salonapi.Customer
	var created bool
	err = o.runStep(ctx, att, func(stepCtx context.Context) error {
		var stepErr error
		customer, created, stepErr = o.resolveCustomer(stepCtx, req.Contact)
		return stepErr
	})
	if err != nil {
		return nil, o.fail(span, att, err, created)
	}

	// Step 2: authoritative duration.
	if err := att.advance(StateFetchingServiceDetails); err != nil {
		return nil, o.fail(span, att, err, created)
	}
	var svc *salonapi.Service
	err = o.runStep(ctx, att, func(stepCtx context.Context) error {
		var stepErr error
		svc, stepErr = o.backend.GetService(stepCtx, req.ServiceID)
		return stepErr
	})
	if err != nil {
		return nil, o.fail(span, att, err, created)
	}

	// Step 3: submit the draft exactly once.
	if err := att.advance(StateSubmittingReservation); err != nil {
		return nil, o.fail(span, att, err, created)
	}
	draft := o.buildDraft(customer.ID, req, svc)
	var reservation *salonapi.Reservation
	err = o.runStep(ctx, att, func(stepCtx context.Context) error {
		var stepErr error
		reservation, stepErr = o.backend.CreateReservation(stepCtx, draft)
		return stepErr
	})
	if err != nil {
		return nil, o.fail(span, att, err, created)
	}

	if err := att.advance(StateSucceeded); err != nil {
		return nil, o.fail(span, att, err, created)
	}
	o.metrics.ObserveAttempt("succeeded", "")
	o.logger.Info("booking submitted",
		"attempt_id", att.id,
		"reservation_id", reservation.ID,
		"customer_id", customer.ID,
		"customer_created", created,
		"duration_minutes", draft.DurationMinutes,
	)
	return &Result{
		AttemptID:       att.id,
		Reservation:     reservation,
		Customer:        customer,
		CustomerCreated: created,
		Transitions:     att.history(),
	}, nil
}

// resolveCustomer is find-or-create keyed on email. created reports whether a
// new record was written.
func (o *Orchestrator) resolveCustomer(ctx context.Context, contact ContactInfo) (salonapi.Customer, bool, error) {
	matches, err := o.backend.FindCustomersByEmail(ctx, contact.Email)
	if err != nil {
		return salonapi.Customer{}, false, fmt.Errorf("find customer: %w", err)
	}
	if customer, ok := ResolveCustomer(matches); ok {
		if len(matches) > 1 {
			o.logger.Warn("multiple customers share an email, using first", "count", len(matches), "customer_id", customer.ID)
		}
		return customer, false, nil
	}

	newCustomer, err := o.backend.CreateCustomer(ctx, salonapi.CustomerCreate{
		Email: contact.Email,
		Name:  salonapi.OptionalString(contact.Name),
		Phone: salonapi.OptionalString(contact.Phone),
	})
	if err != nil {
		return salonapi.Customer{}, false, fmt.Errorf("create customer: %w", err)
	}
	return *newCustomer, true, nil
}

func (o *Orchestrator) buildDraft(customerID string, req BookingRequest, svc *salonapi.Service) salonapi.ReservationDraft {
	duration := o.cfg.DefaultDurationMinutes
	if svc != nil && svc.DurationMinutes > 0 {
		duration = svc.DurationMinutes
	}
	return salonapi.ReservationDraft{
		CustomerID:          customerID,
		ServiceID:           req.ServiceID,
		StylistID:           salonapi.OptionalString(req.StylistID),
		ReservationDatetime: req.SlotStart,
		DurationMinutes:     duration,
		Notes:               salonapi.OptionalString(req.Notes),
	}
}

func (o *Orchestrator) runStep(ctx context.Context, att *attempt, fn func(context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
	defer cancel()
	start := time.Now()
	err := fn(stepCtx)
	// A call that completed is kept even if the deadline passed meanwhile;
	// the backend may already have committed it.
	if err != nil && stepCtx.Err() != nil && !errors.Is(err, stepCtx.Err()) {
		err = fmt.Errorf("%w: %w", stepCtx.Err(), err)
	}
	o.metrics.ObserveStep(string(att.current()), err == nil, time.Since(start))
	return err
}

func (o *Orchestrator) fail(span trace.Span, att *attempt, cause error, customerCreated bool) error {
	step := att.current()
	kind, reason := classify(cause)
	if errors.Is(cause, ErrIllegalTransition) {
		kind, reason = KindTransport, GenericTransportMessage
	}
	_ = att.advance(StateFailed)

	be := &BookingError{
		AttemptID:       att.id,
		Step:            step,
		Kind:            kind,
		Reason:          reason,
		CustomerCreated: customerCreated,
		Err:             cause,
	}
	span.RecordError(cause)
	span.SetStatus(codes.Error, "booking failed")
	span.SetAttributes(attribute.String("booking.failed_step", string(step)))
	o.metrics.ObserveAttempt("failed", string(step))

	logArgs := []any{"attempt_id", att.id, "step", step, "kind", kind, "error", cause}
	if customerCreated {
		logArgs = append(logArgs, "orphaned_customer", true)
	}
	if kind == KindPrecondition {
		o.logger.Info("booking rejected before submission", logArgs...)
	} else {
		o.logger.Warn("booking failed", logArgs...)
	}
	return be
}

func (o *Orchestrator) reject(span trace.Span, att *attempt, cause error) error {
	if !errors.Is(cause, submitguard.ErrHeld) {
		// Guard infrastructure failure; treat like a transport problem.
		return o.fail(span, att, cause, false)
	}
	_ = att.advance(StateFailed)
	span.SetAttributes(attribute.Bool("booking.duplicate", true))
	o.metrics.ObserveAttempt("rejected", string(StateIdle))
	o.logger.Info("duplicate booking submission rejected", "attempt_id", att.id)
	return &BookingError{
		AttemptID: att.id,
		Step:      StateIdle,
		Kind:      KindConflict,
		Reason:    InFlightMessage,
		Err:       fmt.Errorf("%w: %w", ErrSubmissionInFlight, cause),
	}
}
