package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/wolfman30/salon-booking/internal/booking"
	appconfig "github.com/wolfman30/salon-booking/internal/config"
	"github.com/wolfman30/salon-booking/internal/submitguard"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

func TestBuildRedisClientEmptyAddrReturnsNil(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, logging.New("error"), true); client != nil {
		t.Fatalf("expected nil client for empty REDIS_ADDR")
	}
	if client := BuildRedisClient(context.Background(), nil, nil, true); client != nil {
		t.Fatalf("expected nil client for nil config")
	}
}

func TestBuildRedisClientUnreachableReturnsNil(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := &appconfig.Config{RedisAddr: addr}
	if client := BuildRedisClient(context.Background(), cfg, logging.New("error"), true); client != nil {
		t.Fatalf("expected nil client when redis is down")
	}
}

func TestBuildSubmitGuardUsesRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	logger := logging.New("error")
	cfg := &appconfig.Config{RedisAddr: mr.Addr(), SubmitGuardTTL: time.Minute}

	client := BuildRedisClient(context.Background(), cfg, logger, true)
	if client == nil {
		t.Fatalf("expected redis client")
	}
	t.Cleanup(func() { _ = client.Close() })

	guard := BuildSubmitGuard(cfg, client, logger)
	if _, ok := guard.(*submitguard.Fallback); !ok {
		t.Fatalf("guard = %T, want *submitguard.Fallback", guard)
	}

	key := "jane@example.com|svc-1|2025-06-02T09:00:00"
	release, err := guard.Acquire(context.Background(), key)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := guard.Acquire(context.Background(), key); !errors.Is(err, submitguard.ErrHeld) {
		t.Fatalf("second Acquire() error = %v, want ErrHeld", err)
	}
	release()
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("expected lock key to be released, got %v", keys)
	}
}

func TestBuildSubmitGuardWithoutRedisIsProcessLocal(t *testing.T) {
	guard := BuildSubmitGuard(&appconfig.Config{}, nil, logging.New("error"))
	if _, ok := guard.(*submitguard.Memory); !ok {
		t.Fatalf("guard = %T, want *submitguard.Memory", guard)
	}
}

func TestBuildBookingUsesConfiguredBackend(t *testing.T) {
	var hits atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/api/v1/services/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"items":[{"id":"svc-1","name":"Cut","price":4500,"duration_minutes":45}]}`))
	}))
	t.Cleanup(backend.Close)

	cfg := &appconfig.Config{
		SalonAPIBaseURL:        backend.URL + "/api/v1",
		SalonAPITimeout:        time.Second,
		StepTimeout:            time.Second,
		MaxAdvanceBookingDays:  90,
		DefaultDurationMinutes: 30,
		BookingTimezone:        "UTC",
	}
	components := BuildBooking(cfg, BookingOptions{}, logging.New("error"))

	res := components.Catalog.ListServices(context.Background())
	if res.State != booking.LoadLoaded || len(res.Items) != 1 {
		t.Fatalf("result = %+v", res)
	}

	session := components.NewSession()
	session.Services(context.Background())
	session.Services(context.Background())
	if got := hits.Load(); got != 2 {
		t.Fatalf("backend hits = %d, want 2 (one direct, one memoized session load)", got)
	}
	if components.Resolver.Window().MaxAdvanceDays != 90 {
		t.Fatalf("window not configured")
	}
}

func TestTransitionLoggerWritesDebug(t *testing.T) {
	var buf bytes.Buffer
	observe := TransitionLogger(logging.NewWithWriter(&buf, "debug"))
	observe("attempt-1", booking.Transition{From: booking.StateIdle, To: booking.StateResolvingCustomer})
	if !bytes.Contains(buf.Bytes(), []byte(`"attempt_id":"attempt-1"`)) {
		t.Fatalf("log output = %s", buf.String())
	}
}
