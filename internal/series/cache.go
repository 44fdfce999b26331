package series

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/hedgevol/internal/contracts"
	"github.com/wonny/hedgevol/pkg/logger"
	"github.com/wonny/hedgevol/pkg/redis"
)

// Cache is the key-value store behind CachedRepository.
// *redis.Cache satisfies it.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// CachedRepository puts a Redis read-through cache in front of another
// repository. Cache failures are logged and fall through to the source.
type CachedRepository struct {
	next   contracts.SeriesRepository
	cache  Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedRepository wraps next with cache
func NewCachedRepository(next contracts.SeriesRepository, cache Cache, ttl time.Duration, log *logger.Logger) *CachedRepository {
	return &CachedRepository{next: next, cache: cache, ttl: ttl, logger: log}
}

// Load implements contracts.SeriesRepository
func (r *CachedRepository) Load(ctx context.Context, symbol string, from, to time.Time) ([]contracts.Sample, error) {
	key := redis.SeriesKey(symbol, from.Format(DateLayout), to.Format(DateLayout))

	var cached []contracts.Sample
	found, err := r.cache.Get(ctx, key, &cached)
	if err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("series cache read failed")
	}
	if found {
		r.logger.WithField("key", key).Debug("series cache hit")
		return cached, nil
	}

	samples, err := r.next.Load(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, samples, r.ttl); err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("series cache write failed")
	}
	return samples, nil
}

// Evict drops every cached window of symbol so the next Load reads the source.
// Call it after the stored prices of symbol change.
func (r *CachedRepository) Evict(ctx context.Context, symbol string) error {
	n, err := r.cache.DeletePrefix(ctx, redis.SeriesPrefix(symbol))
	if err != nil {
		return fmt.Errorf("evict %s: %w", symbol, err)
	}
	r.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"keys":   n,
	}).Debug("series cache evicted")
	return nil
}
