package booking

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/salon-booking/internal/salonapi"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

var (
	jst      = time.FixedZone("JST", 9*60*60)
	fixedNow = time.Date(2025, 6, 1, 10, 30, 0, 0, jst)
)

func fixedClock() time.Time { return fixedNow }

func testLogger() *logging.Logger { return logging.New("error") }

func mustTimestamp(raw string) salonapi.Timestamp {
	ts, err := salonapi.ParseTimestamp(raw)
	if err != nil {
		panic(err)
	}
	return ts
}

// fakeBackend records every call in order and answers from canned fields.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	services    []salonapi.Service
	servicesErr error
	stylists    []salonapi.Stylist
	stylistsErr error

	slots       []salonapi.TimeSlot
	slotsErr    error
	slotQueries []salonapi.SlotQuery

	customers    []salonapi.Customer
	findErr      error
	findEmails   []string
	created      salonapi.Customer
	createErr    error
	createBodies []salonapi.CustomerCreate

	service       salonapi.Service
	serviceErr    error
	serviceBlocks bool

	reservation    salonapi.Reservation
	reservationErr error
	drafts         []salonapi.ReservationDraft
	// submitEntered is signalled and submitRelease awaited inside
	// CreateReservation when set.
	submitEntered chan struct{}
	submitRelease chan struct{}

	history    []salonapi.Reservation
	historyErr error
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeBackend) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeBackend) ListServices(ctx context.Context) ([]salonapi.Service, error) {
	f.record("list_services")
	return f.services, f.servicesErr
}

func (f *fakeBackend) ListStylists(ctx context.Context) ([]salonapi.Stylist, error) {
	f.record("list_stylists")
	return f.stylists, f.stylistsErr
}

func (f *fakeBackend) GetAvailableSlots(ctx context.Context, query salonapi.SlotQuery) ([]salonapi.TimeSlot, error) {
	f.record("get_slots")
	f.mu.Lock()
	f.slotQueries = append(f.slotQueries, query)
	f.mu.Unlock()
	return f.slots, f.slotsErr
}

func (f *fakeBackend) FindCustomersByEmail(ctx context.Context, email string) ([]salonapi.Customer, error) {
	f.record("find_customer")
	f.mu.Lock()
	f.findEmails = append(f.findEmails, email)
	f.mu.Unlock()
	return f.customers, f.findErr
}

func (f *fakeBackend) CreateCustomer(ctx context.Context, req salonapi.CustomerCreate) (*salonapi.Customer, error) {
	f.record("create_customer")
	f.mu.Lock()
	f.createBodies = append(f.createBodies, req)
	f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	c := f.created
	return &c, nil
}

func (f *fakeBackend) GetService(ctx context.Context, serviceID string) (*salonapi.Service, error) {
	f.record("get_service")
	if f.serviceBlocks {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.serviceErr != nil {
		return nil, f.serviceErr
	}
	s := f.service
	return &s, nil
}

func (f *fakeBackend) CreateReservation(ctx context.Context, draft salonapi.ReservationDraft) (*salonapi.Reservation, error) {
	f.record("create_reservation")
	f.mu.Lock()
	f.drafts = append(f.drafts, draft)
	f.mu.Unlock()
	if f.submitEntered != nil {
		f.submitEntered <- struct{}{}
		<-f.submitRelease
	}
	if f.reservationErr != nil {
		return nil, f.reservationErr
	}
	r := f.reservation
	r.CustomerID = draft.CustomerID
	r.ServiceID = draft.ServiceID
	r.ReservationDatetime = draft.ReservationDatetime
	r.DurationMinutes = draft.DurationMinutes
	return &r, nil
}

func (f *fakeBackend) ListReservationsByCustomer(ctx context.Context, customerID string) ([]salonapi.Reservation, error) {
	f.record("list_reservations")
	return f.history, f.historyErr
}

func validRequest() BookingRequest {
	return BookingRequest{
		Contact:   ContactInfo{Email: "jane@example.com", Name: "Jane", Phone: "090-1234-5678"},
		ServiceID: "svc-1",
		SlotStart: mustTimestamp("2025-06-02T09:00:00"),
	}
}

func newTestOrchestrator(backend ReservationBackend, cfg OrchestratorConfig) *Orchestrator {
	if cfg.Now == nil {
		cfg.Now = fixedClock
	}
	return NewOrchestrator(backend, cfg, testLogger(), nil)
}
