// Package skew computes implied volatilities across a list of strikes.
package skew

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/hedgevol/internal/contracts"
	"github.com/wonny/hedgevol/internal/portfolio"
	"github.com/wonny/hedgevol/internal/volsolver"
	"github.com/wonny/hedgevol/pkg/logger"
)

// Request describes one skew computation
type Request struct {
	Strikes []float64            `json:"strikes"` // percent of the spot at start
	Mode    contracts.PnLMode    `json:"mode"`
	Kind    contracts.OptionType `json:"kind"`
	Solver  volsolver.Config     `json:"solver"`
}

// Point is the result for one strike. A failed strike carries its error
// and does not abort the others.
type Point struct {
	StrikePct  float64 `json:"strike_pct"`
	Strike     float64 `json:"strike"`
	Vol        float64 `json:"vol,omitempty"`
	Iterations int     `json:"iterations,omitempty"`
	Error      string  `json:"error,omitempty"`

	Err error `json:"-"`
}

// OK reports whether the strike was solved
func (p Point) OK() bool { return p.Err == nil }

// Calculator runs the strikes of a request on a bounded worker pool
// ⭐ SSOT: 행사가별 병렬 계산은 여기서만 (포트폴리오는 작업마다 Clone)
type Calculator struct {
	workers int
	logger  *logger.Logger
}

// NewCalculator creates a calculator with at most workers concurrent solves
func NewCalculator(workers int, log *logger.Logger) *Calculator {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Calculator{workers: workers, logger: log}
}

// Compute solves every strike of req against a clone of p.
// Results keep the order of req.Strikes. Only invalid requests and
// context cancellation fail the whole call.
func (c *Calculator) Compute(ctx context.Context, p *portfolio.Portfolio, req Request) ([]Point, error) {
	if err := req.Mode.Validate(); err != nil {
		return nil, err
	}
	if err := req.Kind.Validate(); err != nil {
		return nil, err
	}
	if err := req.Solver.Validate(); err != nil {
		return nil, err
	}
	if len(req.Strikes) == 0 {
		return nil, fmt.Errorf("%w: no strikes", contracts.ErrInvalidParameter)
	}

	points := make([]Point, len(req.Strikes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, pct := range req.Strikes {
		i, pct := i, pct
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			points[i] = c.solve(p.Clone(), pct, req)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	solved := 0
	for _, pt := range points {
		if pt.OK() {
			solved++
		}
	}
	c.logger.WithFields(map[string]interface{}{
		"portfolio": p.Name(),
		"mode":      string(req.Mode),
		"kind":      string(req.Kind),
		"strikes":   len(points),
		"solved":    solved,
	}).Info("Skew computed")

	return points, nil
}

func (c *Calculator) solve(p *portfolio.Portfolio, pct float64, req Request) Point {
	pt := Point{StrikePct: pct}

	if err := p.SetStrike(pct, true); err != nil {
		pt.Err = err
		pt.Error = err.Error()
		return pt
	}
	pt.Strike = p.Strike()

	res, err := p.ImpliedVol(req.Mode, req.Kind, req.Solver)
	if err != nil {
		pt.Err = err
		pt.Error = err.Error()
		return pt
	}

	pt.Vol = res.Vol
	pt.Iterations = res.Iterations
	return pt
}
