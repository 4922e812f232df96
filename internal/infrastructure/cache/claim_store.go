package cache

import (
	"context"
	"fmt"
	"time"

	"nft-analytics-pipeline/internal/domain/repository"
	"nft-analytics-pipeline/internal/infrastructure/logger"
)

// RedisClaimStore implements ClaimStore with SET NX + TTL. The conditional
// set is the claim transition: exactly one of two concurrent notification
// runs observing the same pending anomaly wins the key, so at most one
// delivery attempt sequence runs per anomaly. The TTL bounds the claim if
// a worker dies mid-send; the anomaly stays in processing and is surfaced
// by the stale-pending logs rather than silently re-fired.
type RedisClaimStore struct {
	rdb    *RedisClient
	ttl    time.Duration
	logger *logger.Logger
}

// NewRedisClaimStore creates a new claim store
func NewRedisClaimStore(rdb *RedisClient, ttl time.Duration, logger *logger.Logger) repository.ClaimStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisClaimStore{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.WithComponent("claim-store"),
	}
}

// Claim attempts to claim the anomaly; false means another run holds it.
func (s *RedisClaimStore) Claim(ctx context.Context, anomalyID string) (bool, error) {
	key := s.rdb.Key("claim", anomalyID)
	ok, err := s.rdb.SetNX(ctx, key, 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim anomaly %s: %w", anomalyID, err)
	}
	return ok, nil
}

// Release drops the claim early.
func (s *RedisClaimStore) Release(ctx context.Context, anomalyID string) error {
	if err := s.rdb.Del(ctx, s.rdb.Key("claim", anomalyID)).Err(); err != nil {
		return fmt.Errorf("failed to release claim for %s: %w", anomalyID, err)
	}
	return nil
}
