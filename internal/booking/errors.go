package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfman30/salon-booking/internal/salonapi"
)

// ErrorKind classifies a failure for display and metrics.
type ErrorKind string

const (
	KindTransport    ErrorKind = "transport"
	KindValidation   ErrorKind = "validation"
	KindPrecondition ErrorKind = "precondition"
	KindConflict     ErrorKind = "conflict"
)

// Messages shown when the backend gave no explanation.
const (
	GenericTransportMessage = "Could not reach the booking service. Please try again."
	TimeoutMessage          = "The booking service took too long to respond. Please try again."
	InFlightMessage         = "This booking is already being submitted."
)

// ErrSubmissionInFlight is wrapped by a BookingError when a duplicate
// submission is rejected by the guard.
var ErrSubmissionInFlight = errors.New("booking submission already in flight")

// PreconditionError is a client-side check that failed before any network
// call was issued.
type PreconditionError struct {
	Field   string
	Message string
}

func (e *PreconditionError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// BookingError is the terminal failure of one submission attempt. Step is the
// state the attempt was in when it failed.
type BookingError struct {
	AttemptID string
	Step      State
	Kind      ErrorKind
	Reason    string
	// CustomerCreated is set when step 1 created a customer that remains in
	// the backend even though the booking failed.
	CustomerCreated bool
	Err             error
}

func (e *BookingError) Error() string {
	return fmt.Sprintf("booking failed at %s: %s", e.Step, e.Reason)
}

func (e *BookingError) Unwrap() error { return e.Err }

// classify maps an error from a backend call to a kind and user-visible
// reason.
func classify(err error) (ErrorKind, string) {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return KindPrecondition, pe.Message
	}
	if detail, ok := salonapi.DetailOf(err); ok {
		return KindValidation, detail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransport, TimeoutMessage
	}
	return KindTransport, GenericTransportMessage
}

// UserMessage renders any error from this package for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var be *BookingError
	if errors.As(err, &be) {
		return be.Reason
	}
	_, reason := classify(err)
	return reason
}
