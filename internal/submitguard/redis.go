package submitguard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/salon-booking/pkg/logging"
)

const (
	keyPrefix  = "booking:inflight:"
	defaultTTL = time.Minute
)

var tracer = otel.Tracer("salon/submitguard")

// releaseScript deletes the key only if it still carries our token, so an
// expired-and-reclaimed key is never released by the previous holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a guard shared by every widget replica pointing at the same
// Redis. Keys expire after ttl so a crashed holder cannot wedge a slot.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewRedis creates a Redis-backed guard.
func NewRedis(client *redis.Client, ttl time.Duration, logger *logging.Logger) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

// Acquire claims key with SET NX PX.
func (g *Redis) Acquire(ctx context.Context, key string) (Release, error) {
	ctx, span := tracer.Start(ctx, "submitguard.acquire")
	defer span.End()

	if g.client == nil {
		return nil, errors.New("redis client is required")
	}
	redisKey := keyPrefix + key
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, redisKey, token, g.ttl).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("submitguard: set nx: %w", err)
	}
	span.SetAttributes(attribute.Bool("submitguard.acquired", ok))
	if !ok {
		return nil, ErrHeld
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be done; releasing must still happen.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, g.client, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
				g.logger.Warn("submit guard release failed", "error", err)
			}
		})
	}, nil
}

// Locker is anything that can claim a submission key.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// Fallback prefers the primary guard and drops to the secondary when the
// primary errors for any reason other than the key being held. This mirrors
// failing open when Redis is down.
type Fallback struct {
	Primary   Locker
	Secondary Locker
	Logger    *logging.Logger
}

// Acquire implements Locker.
func (f *Fallback) Acquire(ctx context.Context, key string) (Release, error) {
	if f.Primary != nil {
		release, err := f.Primary.Acquire(ctx, key)
		if err == nil || errors.Is(err, ErrHeld) {
			return release, err
		}
		if f.Logger != nil {
			f.Logger.Warn("shared submit guard unavailable, using local guard", "error", err)
		}
	}
	if f.Secondary == nil {
		return func() {}, nil
	}
	return f.Secondary.Acquire(ctx, key)
}
