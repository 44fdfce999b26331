package series

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/hedgevol/internal/contracts"
	"github.com/wonny/hedgevol/pkg/logger"
)

// memCache stores JSON like the Redis cache does
type memCache struct {
	data map[string][]byte
	err  error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	n := 0
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func TestCachedRepository_EvictServesFreshPrices(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{samples: []contracts.Sample{{Date: day0, Price: 1}}}
	cache := newMemCache()
	cached := NewCachedRepository(repo, cache, time.Hour, logger.Nop())

	got, err := cached.Load(ctx, "SPX", day0, time.Time{})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// new close lands in the database
	repo.samples = append(repo.samples, contracts.Sample{Date: day0.AddDate(0, 0, 1), Price: 2})

	got, err = cached.Load(ctx, "SPX", day0, time.Time{})
	require.NoError(t, err)
	assert.Len(t, got, 1, "served from cache until evicted")
	assert.Equal(t, 1, repo.calls)

	require.NoError(t, cached.Evict(ctx, "SPX"))

	got, err = cached.Load(ctx, "SPX", day0, time.Time{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, repo.calls)
}

func TestCachedRepository_EvictLeavesOtherSymbols(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{samples: []contracts.Sample{{Date: day0, Price: 1}}}
	cache := newMemCache()
	cached := NewCachedRepository(repo, cache, time.Hour, logger.Nop())

	for _, sym := range []string{"SPX", "SPXW", "NDX"} {
		_, err := cached.Load(ctx, sym, day0, time.Time{})
		require.NoError(t, err)
	}
	_, err := cached.Load(ctx, "SPX", day0, day0.AddDate(1, 0, 0))
	require.NoError(t, err)
	require.Len(t, cache.data, 4)

	require.NoError(t, cached.Evict(ctx, "SPX"))
	assert.Len(t, cache.data, 2)

	cache.err = errors.New("redis gone")
	assert.ErrorIs(t, cached.Evict(ctx, "NDX"), cache.err)
}
