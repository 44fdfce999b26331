package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/wonny/hedgevol/internal/hedge"
	"github.com/wonny/hedgevol/internal/portfolio"
	"github.com/wonny/hedgevol/internal/skew"
	"github.com/wonny/hedgevol/internal/volsolver"
	"github.com/wonny/hedgevol/pkg/logger"
)

// HedgeHandler serves P&L, implied vol and skew queries on the stored portfolio
// ⭐ SSOT: 헤지 API 핸들러는 이 구조체에서만
type HedgeHandler struct {
	store  *portfolio.Store
	calc   *skew.Calculator
	solver volsolver.Config
	logger *logger.Logger
}

// NewHedgeHandler creates a new hedge handler
func NewHedgeHandler(store *portfolio.Store, calc *skew.Calculator, solver volsolver.Config, log *logger.Logger) *HedgeHandler {
	return &HedgeHandler{
		store:  store,
		calc:   calc,
		solver: solver,
		logger: log,
	}
}

// PortfolioResponse is the served portfolio's parameters
type PortfolioResponse struct {
	RunID    string         `json:"run_id"`
	Info     portfolio.Info `json:"info"`
	LoadedAt string         `json:"loaded_at"`
}

// PnLResponse represents a P&L response
type PnLResponse struct {
	RunID  string        `json:"run_id"`
	PnL    float64       `json:"pnl"`
	Result *hedge.Result `json:"result,omitempty"`
}

// IVolResponse represents an implied vol response
type IVolResponse struct {
	RunID string           `json:"run_id"`
	Info  portfolio.Info   `json:"info"`
	Vol   volsolver.Result `json:"vol"`
}

// SkewResponse represents a skew response
type SkewResponse struct {
	RunID  string         `json:"run_id"`
	Info   portfolio.Info `json:"info"`
	Points []skew.Point   `json:"points"`
}

// GetPortfolio returns the served portfolio
// GET /api/portfolio
func (h *HedgeHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Current()
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, PortfolioResponse{
		RunID:    uuid.NewString(),
		Info:     p.Info(),
		LoadedAt: h.store.LoadedAt().Format("2006-01-02T15:04:05Z07:00"),
	})
}

// PnL evaluates one mode at one volatility
// POST /api/pnl
func (h *HedgeHandler) PnL(w http.ResponseWriter, r *http.Request) {
	var req PnLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, ok := h.prepare(w, req.EvalRequest)
	if !ok {
		return
	}
	mode, kind, _ := req.parse()
	runID := uuid.NewString()

	if req.Trace {
		res, err := p.Simulate(mode, req.Vol, kind)
		if err != nil {
			h.fail(w, runID, err)
			return
		}
		respondJSON(w, http.StatusOK, PnLResponse{RunID: runID, PnL: res.PnL, Result: res})
		return
	}

	v, err := p.PnL(mode, req.Vol, kind)
	if err != nil {
		h.fail(w, runID, err)
		return
	}
	respondJSON(w, http.StatusOK, PnLResponse{RunID: runID, PnL: v})
}

// ImpliedVol solves for the volatility at which the P&L hits the target
// POST /api/ivol
func (h *HedgeHandler) ImpliedVol(w http.ResponseWriter, r *http.Request) {
	var req IVolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, ok := h.prepare(w, req.EvalRequest)
	if !ok {
		return
	}
	mode, kind, _ := req.parse()
	runID := uuid.NewString()

	res, err := p.ImpliedVol(mode, kind, req.Solver.config(h.solver))
	if err != nil {
		h.fail(w, runID, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"mode":   string(mode),
		"strike": p.Strike(),
		"vol":    res.Vol,
	}).Info("Implied vol served")

	respondJSON(w, http.StatusOK, IVolResponse{RunID: runID, Info: p.Info(), Vol: res})
}

// Skew solves a list of strikes in parallel
// POST /api/skew
func (h *HedgeHandler) Skew(w http.ResponseWriter, r *http.Request) {
	var req SkewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, ok := h.prepare(w, req.EvalRequest)
	if !ok {
		return
	}
	mode, kind, _ := req.parse()
	runID := uuid.NewString()

	points, err := h.calc.Compute(r.Context(), p, skew.Request{
		Strikes: req.StrikesPct,
		Mode:    mode,
		Kind:    kind,
		Solver:  req.Solver.config(h.solver),
	})
	if err != nil {
		h.fail(w, runID, err)
		return
	}

	respondJSON(w, http.StatusOK, SkewResponse{RunID: runID, Info: p.Info(), Points: points})
}

// prepare validates the request and returns a configured private portfolio
func (h *HedgeHandler) prepare(w http.ResponseWriter, req EvalRequest) (*portfolio.Portfolio, bool) {
	if _, _, err := req.parse(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	p, err := h.store.Current()
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return nil, false
	}

	if err := req.apply(p); err != nil {
		respondError(w, statusFor(err), err.Error())
		return nil, false
	}
	return p, true
}

func (h *HedgeHandler) fail(w http.ResponseWriter, runID string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("run_id", runID).Error("Hedge request failed")
	}
	respondJSON(w, status, map[string]string{
		"run_id": runID,
		"error":  err.Error(),
	})
}
