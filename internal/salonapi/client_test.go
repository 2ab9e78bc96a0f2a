package salonapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wolfman30/salon-booking/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL+"/api/v1", logging.New("error"))
}

func TestClient_ListServices_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/api/v1/services/" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"svc-1","name":"Cut","price":4500,"duration_minutes":45,"is_active":true}],"total":1}`))
	})

	services, err := client.ListServices(context.Background())
	if err != nil {
		t.Fatalf("ListServices() error = %v", err)
	}
	if len(services) != 1 {
		t.Fatalf("len(services) = %d, want 1", len(services))
	}
	if services[0].DurationMinutes != 45 || services[0].Price != 4500 {
		t.Fatalf("service = %+v", services[0])
	}
}

func TestClient_GetService_EscapesID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/api/v1/services/svc%2F1" {
			t.Fatalf("escaped path = %s", r.URL.EscapedPath())
		}
		_, _ = w.Write([]byte(`{"id":"svc/1","name":"Color","duration_minutes":90,"price":8000}`))
	})

	svc, err := client.GetService(context.Background(), "svc/1")
	if err != nil {
		t.Fatalf("GetService() error = %v", err)
	}
	if svc.DurationMinutes != 90 {
		t.Fatalf("duration = %d, want 90", svc.DurationMinutes)
	}
}

func TestClient_FindCustomersByEmail_EncodesQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("email"); got != "a+b@example.com" {
			t.Fatalf("email = %q", got)
		}
		_, _ = w.Write([]byte(`{"items":[{"id":"cust-1","email":"a+b@example.com"},{"id":"cust-2","email":"a+b@example.com"}]}`))
	})

	customers, err := client.FindCustomersByEmail(context.Background(), "a+b@example.com")
	if err != nil {
		t.Fatalf("FindCustomersByEmail() error = %v", err)
	}
	if len(customers) != 2 || customers[0].ID != "cust-1" {
		t.Fatalf("customers = %+v", customers)
	}
}

func TestClient_CreateCustomer_SendsNullsForBlankFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("content-type = %s", ct)
		}
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["email"] != "new@example.com" {
			t.Fatalf("email = %v", body["email"])
		}
		if v, ok := body["phone"]; !ok || v != nil {
			t.Fatalf("phone should be explicit null, got %v (present=%v)", v, ok)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"cust-9","email":"new@example.com","name":"Hana"}`))
	})

	customer, err := client.CreateCustomer(context.Background(), CustomerCreate{
		Email: "new@example.com",
		Name:  OptionalString("Hana"),
		Phone: OptionalString("  "),
	})
	if err != nil {
		t.Fatalf("CreateCustomer() error = %v", err)
	}
	if customer.ID != "cust-9" {
		t.Fatalf("id = %s, want cust-9", customer.ID)
	}
}

func TestClient_CreateCustomer_MissingIDIsTransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.CreateCustomer(context.Background(), CustomerCreate{Email: "x@example.com"})
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestClient_GetAvailableSlots_Query(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/reservations/availability/slots" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("date") != "2025-06-01" || q.Get("service_id") != "svc-1" {
			t.Fatalf("query = %s", r.URL.RawQuery)
		}
		if _, ok := q["stylist_id"]; ok {
			t.Fatalf("stylist_id should be omitted when empty")
		}
		_, _ = w.Write([]byte(`{"date":"2025-06-01","slots":[
			{"start_time":"2025-06-01T09:00:00","end_time":"2025-06-01T09:30:00","available":true},
			{"start_time":"2025-06-01T09:30:00","end_time":"2025-06-01T10:00:00","available":false}]}`))
	})

	slots, err := client.GetAvailableSlots(context.Background(), SlotQuery{
		Date:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ServiceID: "svc-1",
	})
	if err != nil {
		t.Fatalf("GetAvailableSlots() error = %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("len(slots) = %d, want 2", len(slots))
	}
	if slots[0].Start.Raw != "2025-06-01T09:00:00" || slots[0].Start.Clock() != "09:00" {
		t.Fatalf("start = %+v", slots[0].Start)
	}
	if slots[1].Available {
		t.Fatal("second slot should be unavailable")
	}
}

func TestClient_CreateReservation_EchoesSlotVerbatim(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["reservation_datetime"] != "2025-06-01T09:00:00" {
			t.Fatalf("reservation_datetime = %v", body["reservation_datetime"])
		}
		if body["duration_minutes"] != float64(45) {
			t.Fatalf("duration_minutes = %v", body["duration_minutes"])
		}
		if v, ok := body["stylist_id"]; !ok || v != nil {
			t.Fatalf("stylist_id should be explicit null")
		}
		_, _ = w.Write([]byte(`{"id":"res-1","customer_id":"cust-9","service_id":"svc-1","reservation_datetime":"2025-06-01T09:00:00","duration_minutes":45,"status":"pending","created_at":"2025-05-20T10:11:12.123456+00:00"}`))
	})

	start, err := ParseTimestamp("2025-06-01T09:00:00")
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	res, err := client.CreateReservation(context.Background(), ReservationDraft{
		CustomerID:          "cust-9",
		ServiceID:           "svc-1",
		ReservationDatetime: start,
		DurationMinutes:     45,
	})
	if err != nil {
		t.Fatalf("CreateReservation() error = %v", err)
	}
	if res.ID != "res-1" || res.Status != StatusPending {
		t.Fatalf("reservation = %+v", res)
	}
	if res.CreatedAt == nil || res.CreatedAt.Time.Year() != 2025 {
		t.Fatalf("created_at = %+v", res.CreatedAt)
	}
}

func TestClient_DetailBecomesValidationError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"slot_taken"}`))
	})

	_, err := client.CreateReservation(context.Background(), ReservationDraft{CustomerID: "c", ServiceID: "s"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T %v", err, err)
	}
	if ve.Detail != "slot_taken" || ve.StatusCode != http.StatusBadRequest {
		t.Fatalf("validation error = %+v", ve)
	}
}

func TestClient_ValidationListDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"}]}`))
	})

	_, err := client.CreateCustomer(context.Background(), CustomerCreate{Email: "bad"})
	detail, ok := DetailOf(err)
	if !ok || detail != "value is not a valid email address" {
		t.Fatalf("detail = %q ok=%v err=%v", detail, ok, err)
	}
}

func TestClient_NonJSONErrorIsTransport(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream failed", http.StatusBadGateway)
	})

	_, err := client.ListStylists(context.Background())
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	var te *TransportError
	if errors.As(err, &te) && te.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", te.StatusCode)
	}
}

func TestClient_InvalidJSONIsTransport(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[`))
	})

	_, err := client.ListServices(context.Background())
	if !IsTransport(err) {
		t.Fatalf("expected transport error for bad JSON, got %v", err)
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.ListServices(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}

func TestClient_ListReservationsByCustomer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("customer_id") != "cust-1" {
			t.Fatalf("customer_id = %s", r.URL.Query().Get("customer_id"))
		}
		_, _ = w.Write([]byte(`{"items":[{"id":"res-1","customer_id":"cust-1","service_id":"svc-1","reservation_datetime":"2025-06-01T09:00:00","duration_minutes":30,"status":"confirmed"}]}`))
	})

	items, err := client.ListReservationsByCustomer(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("ListReservationsByCustomer() error = %v", err)
	}
	if len(items) != 1 || items[0].Status != StatusConfirmed {
		t.Fatalf("items = %+v", items)
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	for _, raw := range []string{
		"2025-06-01T09:00:00",
		"2025-06-01T09:00:00+09:00",
		"2025-06-01T09:00:00.123456",
		"2025-06-01T09:00",
	} {
		ts, err := ParseTimestamp(raw)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q) error = %v", raw, err)
		}
		if ts.Clock() != "09:00" {
			t.Fatalf("clock(%q) = %s", raw, ts.Clock())
		}
		if ts.String() != raw {
			t.Fatalf("String() = %s, want %s", ts.String(), raw)
		}
	}
	if _, err := ParseTimestamp("tomorrow"); err == nil {
		t.Fatal("expected error for garbage timestamp")
	}
}
