package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/hedgevol/internal/portfolio"
	"github.com/wonny/hedgevol/pkg/logger"
)

// Builder loads a fresh portfolio, typically re-reading the price source
type Builder func(ctx context.Context) (*portfolio.Portfolio, error)

// SeriesRefreshJob reloads the served portfolio after the close
// ⭐ SSOT: 가격 시계열 갱신 스케줄은 이 Job에서만
type SeriesRefreshJob struct {
	schedule string
	build    Builder
	evict    func(ctx context.Context) error
	store    *portfolio.Store
	logger   *logger.Logger
}

// NewSeriesRefreshJob creates a new series refresh job
func NewSeriesRefreshJob(schedule string, build Builder, store *portfolio.Store, log *logger.Logger) *SeriesRefreshJob {
	return &SeriesRefreshJob{
		schedule: schedule,
		build:    build,
		store:    store,
		logger:   log,
	}
}

// WithEvict sets a hook that drops cached prices before every reload
func (j *SeriesRefreshJob) WithEvict(evict func(ctx context.Context) error) *SeriesRefreshJob {
	j.evict = evict
	return j
}

// Name returns the job name
func (j *SeriesRefreshJob) Name() string {
	return "series_refresh"
}

// Schedule returns the cron schedule (weekdays after the close by default)
func (j *SeriesRefreshJob) Schedule() string {
	return j.schedule
}

// Run reloads the portfolio and swaps it into the store.
// The store keeps serving the previous portfolio when the reload fails.
func (j *SeriesRefreshJob) Run(ctx context.Context) error {
	if j.evict != nil {
		if err := j.evict(ctx); err != nil {
			return fmt.Errorf("evict cached series: %w", err)
		}
	}

	p, err := j.build(ctx)
	if err != nil {
		return fmt.Errorf("reload series: %w", err)
	}

	j.store.Replace(p)

	j.logger.WithFields(map[string]interface{}{
		"portfolio": p.Name(),
		"samples":   p.Size(),
		"start":     p.Start(),
		"end":       p.End(),
	}).Info("Series refreshed")

	return nil
}
