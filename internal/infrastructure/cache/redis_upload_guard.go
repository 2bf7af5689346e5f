package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gestionale/backend/internal/domain/billing"
)

// RedisUploadGuard implements billing.UploadGuard using Redis. Suitable
// for distributed deployments where multiple instances must not upload
// the same contract concurrently. The guard is advisory: a failure of
// the claim machinery is reported, never silently swallowed, and the
// TTL bounds how long a crashed process holds a claim.
type RedisUploadGuard struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisUploadGuard creates a new Redis-backed upload guard
func NewRedisUploadGuard(cfg RedisConfig, ttl time.Duration, logger *zap.Logger) (*RedisUploadGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisUploadGuardWithClient(client, ttl, logger), nil
}

// NewRedisUploadGuardWithClient creates a guard with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisUploadGuardWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisUploadGuard {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisUploadGuard{
		client:    client,
		keyPrefix: "invoicing:upload:",
		ttl:       ttl,
		logger:    logger,
	}
}

// TryAcquire claims the contract for upload. Returns false when another
// upload of the same contract is already in flight. SETNX makes the
// check-and-claim atomic.
func (g *RedisUploadGuard) TryAcquire(ctx context.Context, tenantID, contractID uuid.UUID) (bool, error) {
	acquired, err := g.client.SetNX(ctx, g.key(tenantID, contractID), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim contract upload: %w", err)
	}
	return acquired, nil
}

// Release frees the claim. Best effort: an expired or missing key is not
// an error, and a Redis failure here only gets logged since the TTL will
// free the claim anyway.
func (g *RedisUploadGuard) Release(ctx context.Context, tenantID, contractID uuid.UUID) {
	if err := g.client.Del(ctx, g.key(tenantID, contractID)).Err(); err != nil {
		g.logger.Warn("failed to release upload claim",
			zap.String("contract_id", contractID.String()),
			zap.Error(err),
		)
	}
}

func (g *RedisUploadGuard) key(tenantID, contractID uuid.UUID) string {
	return g.keyPrefix + tenantID.String() + ":" + contractID.String()
}

var _ billing.UploadGuard = (*RedisUploadGuard)(nil)
