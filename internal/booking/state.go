package booking

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is a position in the per-attempt submission state machine.
type State string

const (
	StateIdle                   State = "idle"
	StateResolvingCustomer      State = "resolving_customer"
	StateFetchingServiceDetails State = "fetching_service_details"
	StateSubmittingReservation  State = "submitting_reservation"
	StateSucceeded              State = "succeeded"
	StateFailed                 State = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

var transitions = map[State][]State{
	StateIdle:                   {StateResolvingCustomer, StateFailed},
	StateResolvingCustomer:      {StateFetchingServiceDetails, StateFailed},
	StateFetchingServiceDetails: {StateSubmittingReservation, StateFailed},
	StateSubmittingReservation:  {StateSucceeded, StateFailed},
}

// ErrIllegalTransition guards the state machine against out-of-order steps.
var ErrIllegalTransition = errors.New("illegal booking state transition")

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition is one recorded edge of an attempt.
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

// TransitionObserver is notified of every edge as it happens.
type TransitionObserver func(attemptID string, tr Transition)

type attempt struct {
	id       string
	now      Clock
	observer TransitionObserver

	mu    sync.Mutex
	state State
	log   []Transition
}

func newAttempt(id string, now Clock, observer TransitionObserver) *attempt {
	if now == nil {
		now = time.Now
	}
	return &attempt{id: id, now: now, observer: observer, state: StateIdle}
}

func (a *attempt) current() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *attempt) advance(to State) error {
	a.mu.Lock()
	from := a.state
	if !CanTransition(from, to) {
		a.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	tr := Transition{From: from, To: to, At: a.now()}
	a.state = to
	a.log = append(a.log, tr)
	a.mu.Unlock()

	if a.observer != nil {
		a.observer(a.id, tr)
	}
	return nil
}

func (a *attempt) history() []Transition {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Transition, len(a.log))
	copy(out, a.log)
	return out
}
