package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/salon-booking/internal/salonapi"
)

func TestHistoryLookup_Found(t *testing.T) {
	backend := &fakeBackend{
		customers: []salonapi.Customer{{ID: "cust-1"}, {ID: "cust-2"}},
		history: []salonapi.Reservation{
			{ID: "res-1", ReservationDatetime: mustTimestamp("2025-06-02T09:00:00"), Status: salonapi.StatusConfirmed, Notes: " bring photo "},
			{ID: "res-2", ReservationDatetime: mustTimestamp("2025-05-01T14:30:00"), Status: salonapi.StatusNoShow},
		},
	}
	h := NewHistory(backend, testLogger(), nil)

	view := h.Lookup(context.Background(), " Jane@Example.com ")

	require.Equal(t, HistoryFound, view.State)
	assert.Equal(t, "cust-1", view.CustomerID)
	require.Len(t, view.Entries, 2)
	assert.Equal(t, HistoryEntry{
		ID:          "res-1",
		When:        "2025-06-02 09:00",
		Status:      salonapi.StatusConfirmed,
		StatusLabel: "Confirmed",
		Notes:       "bring photo",
	}, view.Entries[0])
	assert.Equal(t, "No-show", view.Entries[1].StatusLabel)
	assert.Equal(t, []string{"jane@example.com"}, backend.findEmails)
}

func TestHistoryLookup_States(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		backend *fakeBackend
		want    HistoryState
		calls   []string
	}{
		{
			name:    "missing email",
			email:   "  ",
			backend: &fakeBackend{},
			want:    HistoryMissingEmail,
		},
		{
			name:    "no customer",
			email:   "new@example.com",
			backend: &fakeBackend{},
			want:    HistoryNoCustomer,
			calls:   []string{"find_customer"},
		},
		{
			name:    "no reservations",
			email:   "jane@example.com",
			backend: &fakeBackend{customers: []salonapi.Customer{{ID: "cust-1"}}},
			want:    HistoryEmpty,
			calls:   []string{"find_customer", "list_reservations"},
		},
		{
			name:    "lookup fails",
			email:   "jane@example.com",
			backend: &fakeBackend{customers: []salonapi.Customer{{ID: "cust-1"}}, historyErr: errors.New("connection reset")},
			want:    HistoryFailed,
			calls:   []string{"find_customer", "list_reservations"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewHistory(tt.backend, testLogger(), nil).Lookup(context.Background(), tt.email)
			assert.Equal(t, tt.want, view.State)
			assert.NotNil(t, view.Entries)
			assert.NotEmpty(t, view.Message)
			if tt.calls == nil {
				assert.Empty(t, tt.backend.Calls())
			} else {
				assert.Equal(t, tt.calls, tt.backend.Calls())
			}
		})
	}
}

func TestStatusLabel_UnknownPassesThrough(t *testing.T) {
	assert.Equal(t, "Cancelled", StatusLabel(salonapi.StatusCancelled))
	assert.Equal(t, "rescheduled", StatusLabel("rescheduled"))
}
