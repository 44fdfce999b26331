package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/hedgevol/internal/api/handlers"
	"github.com/wonny/hedgevol/internal/contracts"
	"github.com/wonny/hedgevol/internal/portfolio"
	"github.com/wonny/hedgevol/internal/series"
	"github.com/wonny/hedgevol/internal/skew"
	"github.com/wonny/hedgevol/internal/volsolver"
	"github.com/wonny/hedgevol/pkg/config"
	"github.com/wonny/hedgevol/pkg/logger"
)

func newStore(t *testing.T) *portfolio.Store {
	t.Helper()
	day0 := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]contracts.Sample, 120)
	for i := range samples {
		samples[i] = contracts.Sample{Date: day0.AddDate(0, 0, i), Price: 100 + float64(i%2)}
	}
	s, err := series.New("zigzag", samples)
	require.NoError(t, err)

	p, err := portfolio.New("api", s, 100.5, 0, 0)
	require.NoError(t, err)
	require.NoError(t, p.SetRange(40, 101))
	return portfolio.NewStore(p)
}

func newTestRouter(t *testing.T, store *portfolio.Store, rps float64) http.Handler {
	t.Helper()
	solver := volsolver.DefaultConfig()
	solver.VLow = 0.01
	h := handlers.NewHedgeHandler(store, skew.NewCalculator(2, logger.Nop()), solver, logger.Nop())
	return NewRouter(h, nil, rps, logger.Nop())
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestHealth(t *testing.T) {
	rec, out := do(t, newTestRouter(t, newStore(t), 0), "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
}

func TestGetPortfolio(t *testing.T) {
	rec, out := do(t, newTestRouter(t, newStore(t), 0), "GET", "/api/portfolio", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	info := out["info"].(map[string]interface{})
	assert.Equal(t, "api", info["name"])
	assert.Equal(t, 40.0, info["start"])
	assert.Equal(t, 101.0, info["end"])
	assert.NotEmpty(t, out["run_id"])
}

func TestGetPortfolio_NotLoaded(t *testing.T) {
	rec, _ := do(t, newTestRouter(t, portfolio.NewStore(nil), 0), "GET", "/api/portfolio", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPnL(t *testing.T) {
	router := newTestRouter(t, newStore(t), 0)

	rec, out := do(t, router, "POST", "/api/pnl", map[string]interface{}{
		"mode": "delta", "kind": "call", "vol": 0.1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Greater(t, out["pnl"].(float64), 0.0)
	assert.NotEmpty(t, out["run_id"])
	assert.Nil(t, out["result"])

	rec, out = do(t, router, "POST", "/api/pnl", map[string]interface{}{
		"mode": "robust", "vol": 0.1, "trace": true, "start": 50, "end": 60,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := out["result"].(map[string]interface{})
	assert.Len(t, result["steps"], 10)

	rec, _ = do(t, router, "POST", "/api/pnl", map[string]interface{}{
		"mode": "auto", "start": 50, "end": 60, "vol": 0,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPnL_Errors(t *testing.T) {
	router := newTestRouter(t, newStore(t), 0)

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"bad mode", map[string]interface{}{"mode": "vanna", "vol": 0.2}, http.StatusBadRequest},
		{"bad kind", map[string]interface{}{"kind": "digital", "vol": 0.2}, http.StatusBadRequest},
		{"negative vol", map[string]interface{}{"vol": -0.2}, http.StatusBadRequest},
		{"bad range", map[string]interface{}{"start": 90, "end": 10, "vol": 0.2}, http.StatusBadRequest},
		{"bad strike", map[string]interface{}{"strike": -5, "vol": 0.2}, http.StatusBadRequest},
		{"bad body", "not an object", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := do(t, router, "POST", "/api/pnl", tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestImpliedVol(t *testing.T) {
	router := newTestRouter(t, newStore(t), 0)

	rec, out := do(t, router, "POST", "/api/ivol", map[string]interface{}{"mode": "auto", "kind": "call"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	vol := out["vol"].(map[string]interface{})["vol"].(float64)
	assert.Greater(t, vol, 0.05)
	assert.Less(t, vol, 0.5)

	// bracket entirely above realized vol
	rec, out = do(t, router, "POST", "/api/ivol", map[string]interface{}{
		"mode": "auto", "solver": map[string]interface{}{"v_low": 0.5},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotEmpty(t, out["run_id"])

	// robust P&L is flat at 0 for vol 0; the solve still finds the interior root
	rec, out = do(t, router, "POST", "/api/ivol", map[string]interface{}{
		"mode": "robust", "solver": map[string]interface{}{"v_low": 0},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	vol = out["vol"].(map[string]interface{})["vol"].(float64)
	assert.Greater(t, vol, 0.05)
	assert.Less(t, vol, 0.5)
}

func TestSkew(t *testing.T) {
	router := newTestRouter(t, newStore(t), 0)

	rec, out := do(t, router, "POST", "/api/skew", map[string]interface{}{
		"mode": "delta", "strikes_pct": []float64{100.25, 100.5, 100.75},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	points := out["points"].([]interface{})
	require.Len(t, points, 3)
	assert.Equal(t, 100.25, points[0].(map[string]interface{})["strike_pct"])
	assert.Equal(t, 100.75, points[2].(map[string]interface{})["strike_pct"])

	rec, _ = do(t, router, "POST", "/api/skew", map[string]interface{}{"mode": "delta"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	router := newTestRouter(t, newStore(t), 1)

	rec, _ := do(t, router, "GET", "/api/portfolio", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, router, "GET", "/api/portfolio", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// health is not limited
	rec, _ = do(t, router, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServerHandler(t *testing.T) {
	router := newTestRouter(t, newStore(t), 0)
	srv := New(&config.Config{Port: "0", Env: "test"}, logger.Nop(), router)
	assert.Equal(t, router, srv.Handler())
}
