package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/hedgevol/internal/contracts"
	"github.com/wonny/hedgevol/internal/portfolio"
	"github.com/wonny/hedgevol/internal/series"
	"github.com/wonny/hedgevol/pkg/logger"
)

func buildPortfolio(t *testing.T, n int) *portfolio.Portfolio {
	t.Helper()
	day0 := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	samples := make([]contracts.Sample, n)
	for i := range samples {
		samples[i] = contracts.Sample{Date: day0.AddDate(0, 0, i), Price: 50 + float64(i)}
	}
	s, err := series.New("refresh", samples)
	require.NoError(t, err)
	p, err := portfolio.New("served", s, 50, 0.01, 0)
	require.NoError(t, err)
	return p
}

func TestSeriesRefreshJob(t *testing.T) {
	store := portfolio.NewStore(buildPortfolio(t, 10))
	fresh := buildPortfolio(t, 25)

	job := NewSeriesRefreshJob("0 30 18 * * 1-5", func(context.Context) (*portfolio.Portfolio, error) {
		return fresh, nil
	}, store, logger.Nop())

	assert.Equal(t, "series_refresh", job.Name())
	assert.Equal(t, "0 30 18 * * 1-5", job.Schedule())

	require.NoError(t, job.Run(context.Background()))

	p, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, 25, p.Size())
}

func TestSeriesRefreshJob_FailureKeepsPrevious(t *testing.T) {
	store := portfolio.NewStore(buildPortfolio(t, 10))
	boom := errors.New("database down")

	job := NewSeriesRefreshJob("@daily", func(context.Context) (*portfolio.Portfolio, error) {
		return nil, boom
	}, store, logger.Nop())

	assert.ErrorIs(t, job.Run(context.Background()), boom)

	p, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, 10, p.Size())
}

func TestSeriesRefreshJob_EvictsBeforeReload(t *testing.T) {
	store := portfolio.NewStore(buildPortfolio(t, 10))
	fresh := buildPortfolio(t, 25)

	var calls []string
	job := NewSeriesRefreshJob("@daily", func(context.Context) (*portfolio.Portfolio, error) {
		calls = append(calls, "build")
		return fresh, nil
	}, store, logger.Nop()).WithEvict(func(context.Context) error {
		calls = append(calls, "evict")
		return nil
	})

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"evict", "build"}, calls)

	p, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, 25, p.Size())
}

func TestSeriesRefreshJob_EvictFailureKeepsPrevious(t *testing.T) {
	store := portfolio.NewStore(buildPortfolio(t, 10))
	boom := errors.New("redis down")
	built := false

	job := NewSeriesRefreshJob("@daily", func(context.Context) (*portfolio.Portfolio, error) {
		built = true
		return buildPortfolio(t, 25), nil
	}, store, logger.Nop()).WithEvict(func(context.Context) error {
		return boom
	})

	assert.ErrorIs(t, job.Run(context.Background()), boom)
	assert.False(t, built)

	p, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, 10, p.Size())
}
