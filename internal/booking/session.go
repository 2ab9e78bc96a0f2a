package booking

import (
	"context"
	"sync"

	"github.com/wolfman30/salon-booking/internal/salonapi"
)

// Session is one page view of the booking form. It memoizes the catalog,
// holds the FormState and runs the effects Reduce asks for.
type Session struct {
	catalog      *CatalogLoader
	resolver     *AvailabilityResolver
	orchestrator *Orchestrator

	mu       sync.Mutex
	state    FormState
	services *CatalogResult[salonapi.Service]
	stylists *CatalogResult[salonapi.Stylist]
}

// NewSession starts a page view with an empty form.
func NewSession(catalog *CatalogLoader, resolver *AvailabilityResolver, orchestrator *Orchestrator) *Session {
	return &Session{
		catalog:      catalog,
		resolver:     resolver,
		orchestrator: orchestrator,
		state:        NewFormState(),
	}
}

// Services returns the memoized service list, loading it on first use.
// Failed loads are not memoized.
func (s *Session) Services(ctx context.Context) CatalogResult[salonapi.Service] {
	s.mu.Lock()
	cached := s.services
	s.mu.Unlock()
	if cached != nil {
		return *cached
	}

	res := s.catalog.ListServices(ctx)
	if res.State != LoadFailed {
		s.mu.Lock()
		s.services = &res
		s.mu.Unlock()
	}
	return res
}

// Stylists is Services for stylists.
func (s *Session) Stylists(ctx context.Context) CatalogResult[salonapi.Stylist] {
	s.mu.Lock()
	cached := s.stylists
	s.mu.Unlock()
	if cached != nil {
		return *cached
	}

	res := s.catalog.ListStylists(ctx)
	if res.State != LoadFailed {
		s.mu.Lock()
		s.stylists = &res
		s.mu.Unlock()
	}
	return res
}

// Refresh drops the memoized catalog so the next access reloads it.
func (s *Session) Refresh() {
	s.mu.Lock()
	s.services = nil
	s.stylists = nil
	s.mu.Unlock()
}

// Open loads the catalog into the form.
func (s *Session) Open(ctx context.Context) FormState {
	services := s.Services(ctx)
	stylists := s.Stylists(ctx)
	ev := CatalogLoaded{
		ServicesState:   services.State,
		StylistsState:   stylists.State,
		ServicesMessage: services.Message("services"),
		StylistsMessage: stylists.Message("stylists"),
	}

	if services.State == LoadLoaded {
		ev.Services = ServiceOptions(services.Items)
	} else {
		ev.Services = []Option{{Value: "", Label: ev.ServicesMessage}}
	}
	// An empty stylist list still allows booking without a preference.
	if stylists.State == LoadFailed {
		ev.Stylists = []Option{{Value: "", Label: ev.StylistsMessage}}
	} else {
		ev.Stylists = StylistOptions(stylists.Items)
	}
	return s.Dispatch(ctx, ev)
}

// State returns the current form.
func (s *Session) State() FormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies ev and runs resulting effects until none remain. The lock
// is not held while an effect runs, so a second SubmitPressed during a
// submission sees Busy and is ignored.
func (s *Session) Dispatch(ctx context.Context, ev Event) FormState {
	queue := []Event{ev}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		s.mu.Lock()
		var effects []Effect
		s.state, effects = Reduce(s.state, next)
		s.mu.Unlock()

		for _, eff := range effects {
			queue = append(queue, s.run(ctx, eff))
		}
	}
	return s.State()
}

func (s *Session) run(ctx context.Context, eff Effect) Event {
	switch e := eff.(type) {
	case LoadSlots:
		view := s.resolver.GetAvailableSlots(ctx, e.Request)
		if view.State == SlotStateUnavailable {
			return SlotsFailed{Seq: e.Seq, Err: view.Err}
		}
		return SlotsLoaded{Seq: e.Seq, View: view}
	case Submit:
		res, err := s.orchestrator.SubmitBooking(ctx, e.Request)
		if err != nil {
			return SubmitFailed{Err: err}
		}
		return SubmitSucceeded{Result: res}
	}
	return nil
}
