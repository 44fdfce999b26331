package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/hedgevol/internal/api/handlers"
	"github.com/wonny/hedgevol/internal/contracts"
	"github.com/wonny/hedgevol/internal/portfolio"
	"github.com/wonny/hedgevol/internal/scheduler"
	"github.com/wonny/hedgevol/internal/scheduler/jobs"
	"github.com/wonny/hedgevol/internal/series"
	"github.com/wonny/hedgevol/internal/skew"
	"github.com/wonny/hedgevol/internal/volsolver"
	"github.com/wonny/hedgevol/pkg/logger"
)

type brokenJob struct{}

func (brokenJob) Name() string                  { return "broken" }
func (brokenJob) Schedule() string              { return "@daily" }
func (brokenJob) Run(ctx context.Context) error { return errors.New("feed offline") }

func newJobsRouter(t *testing.T, store *portfolio.Store) (http.Handler, *int) {
	t.Helper()

	day0 := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	samples := make([]contracts.Sample, 30)
	for i := range samples {
		samples[i] = contracts.Sample{Date: day0.AddDate(0, 0, i), Price: 100 + float64(i)}
	}
	s, err := series.New("SPX", samples)
	require.NoError(t, err)

	evictions := 0
	refresh := jobs.NewSeriesRefreshJob("0 30 18 * * 1-5", func(context.Context) (*portfolio.Portfolio, error) {
		return portfolio.New("refreshed", s, 100, 0, 0)
	}, store, logger.Nop()).WithEvict(func(context.Context) error {
		evictions++
		return nil
	})

	sched := scheduler.New(logger.Nop(), scheduler.WithRetry(0, time.Millisecond))
	require.NoError(t, sched.AddJob(refresh))
	require.NoError(t, sched.AddJob(brokenJob{}))

	h := handlers.NewHedgeHandler(store, skew.NewCalculator(2, logger.Nop()), volsolver.DefaultConfig(), logger.Nop())
	return NewRouter(h, handlers.NewJobsHandler(sched, logger.Nop()), 0, logger.Nop()), &evictions
}

func TestJobs_ListAndRun(t *testing.T) {
	store := newStore(t)
	router, evictions := newJobsRouter(t, store)

	rec, out := do(t, router, "GET", "/api/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"broken", "series_refresh"}, out["jobs"])

	rec, out = do(t, router, "POST", "/api/jobs/series_refresh/run", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["success"])
	assert.Equal(t, 1, *evictions)

	rec, out = do(t, router, "GET", "/api/portfolio", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "refreshed", out["info"].(map[string]interface{})["name"])

	rec, out = do(t, router, "POST", "/api/jobs/broken/run", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "feed offline", out["error"])

	rec, _ = do(t, router, "POST", "/api/jobs/missing/run", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, out = do(t, router, "GET", "/api/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := out["stats"].(map[string]interface{})
	refresh := stats["series_refresh"].(map[string]interface{})
	assert.Equal(t, 1.0, refresh["total_runs"])
	assert.Equal(t, 1.0, refresh["success_rate"])
	broken := stats["broken"].(map[string]interface{})
	assert.Equal(t, 1.0, broken["failure_count"])
}

func TestJobs_History(t *testing.T) {
	router, _ := newJobsRouter(t, newStore(t))

	for i := 0; i < 3; i++ {
		rec, _ := do(t, router, "POST", "/api/jobs/series_refresh/run", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, out := do(t, router, "GET", "/api/jobs/series_refresh/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "series_refresh", out["job"])
	assert.Len(t, out["results"], 3)
	assert.Equal(t, 0.0, out["failures"])

	rec, out = do(t, router, "GET", "/api/jobs/series_refresh/history?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["results"], 2)

	rec, _ = do(t, router, "GET", "/api/jobs/series_refresh/history?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, router, "GET", "/api/jobs/missing/history", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobs_Remove(t *testing.T) {
	router, _ := newJobsRouter(t, newStore(t))

	rec, _ := do(t, router, "POST", "/api/jobs/broken/run", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	rec, _ = do(t, router, "DELETE", "/api/jobs/broken", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = do(t, router, "DELETE", "/api/jobs/broken", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, out := do(t, router, "GET", "/api/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"series_refresh"}, out["jobs"])

	// history outlives the schedule
	rec, out = do(t, router, "GET", "/api/jobs/broken/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, out["failures"])
}

func TestJobs_NotMountedWithoutHandler(t *testing.T) {
	rec, _ := do(t, newTestRouter(t, newStore(t), 0), "GET", "/api/jobs", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
