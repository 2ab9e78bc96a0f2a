package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/salon-booking/internal/booking"
	appconfig "github.com/wolfman30/salon-booking/internal/config"
	"github.com/wolfman30/salon-booking/internal/submitguard"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

const redisPingTimeout = 3 * time.Second

// BuildRedisClient returns a Redis client when REDIS_ADDR is configured.
// With verify set, an unreachable server yields nil so callers fall back to
// process-local state.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not available", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSubmitGuard shares the in-flight guard through Redis when a client is
// available. Redis errors at submit time fall back to the local guard.
func BuildSubmitGuard(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) booking.Guard {
	if logger == nil {
		logger = logging.Default()
	}
	memory := submitguard.NewMemory()
	if redisClient == nil {
		logger.Info("submit guard is process-local")
		return memory
	}
	ttl := time.Minute
	if cfg != nil && cfg.SubmitGuardTTL > 0 {
		ttl = cfg.SubmitGuardTTL
	}
	logger.Info("submit guard shared via redis", "ttl", ttl.String())
	return &submitguard.Fallback{
		Primary:   submitguard.NewRedis(redisClient, ttl, logger),
		Secondary: memory,
		Logger:    logger,
	}
}
