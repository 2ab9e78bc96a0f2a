// Package booking implements the customer booking workflow on top of the
// salon backend: catalog loading, slot availability, and the find-or-create
// customer / reservation submission sequence.
package booking

import (
	"context"
	"time"

	"github.com/wolfman30/salon-booking/internal/salonapi"
)

// CatalogSource lists the selectable catalog.
type CatalogSource interface {
	ListServices(ctx context.Context) ([]salonapi.Service, error)
	ListStylists(ctx context.Context) ([]salonapi.Stylist, error)
}

// SlotSource lists raw availability for a day.
type SlotSource interface {
	GetAvailableSlots(ctx context.Context, query salonapi.SlotQuery) ([]salonapi.TimeSlot, error)
}

// CustomerDirectory is the customer half of find-or-create.
type CustomerDirectory interface {
	FindCustomersByEmail(ctx context.Context, email string) ([]salonapi.Customer, error)
	CreateCustomer(ctx context.Context, req salonapi.CustomerCreate) (*salonapi.Customer, error)
}

// ReservationBackend is everything the orchestrator calls.
type ReservationBackend interface {
	CustomerDirectory
	GetService(ctx context.Context, serviceID string) (*salonapi.Service, error)
	CreateReservation(ctx context.Context, draft salonapi.ReservationDraft) (*salonapi.Reservation, error)
}

// HistorySource backs reservation history lookups.
type HistorySource interface {
	FindCustomersByEmail(ctx context.Context, email string) ([]salonapi.Customer, error)
	ListReservationsByCustomer(ctx context.Context, customerID string) ([]salonapi.Reservation, error)
}

// Guard prevents duplicate in-flight submissions.
type Guard interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// Clock lets tests pin "today".
type Clock func() time.Time
