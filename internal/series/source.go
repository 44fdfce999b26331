package series

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/hedgevol/internal/contracts"
)

// Source names where a series comes from: a CSV file or a symbol in a repository
type Source struct {
	Path   string    `json:"path,omitempty" yaml:"path,omitempty"`
	Symbol string    `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	From   time.Time `json:"from,omitempty" yaml:"from,omitempty"`
	To     time.Time `json:"to,omitempty" yaml:"to,omitempty"`
}

// ErrNoRepository is returned when a symbol source is used without a repository
var ErrNoRepository = errors.New("symbol source requires a database repository")

// Open loads the series described by src, limited to [From, To] when set.
// repo may be nil for CSV sources.
func Open(ctx context.Context, src Source, repo contracts.SeriesRepository) (*Series, error) {
	switch {
	case src.Path != "":
		s, err := LoadCSV(src.Path)
		if err != nil {
			return nil, err
		}
		if src.From.IsZero() && src.To.IsZero() {
			return s, nil
		}
		s = s.Between(src.From, src.To)
		if s.Len() == 0 {
			return nil, fmt.Errorf("%w: no prices in %s within the requested dates", contracts.ErrRange, src.Path)
		}
		return s, nil
	case src.Symbol != "":
		if repo == nil {
			return nil, ErrNoRepository
		}
		samples, err := repo.Load(ctx, src.Symbol, src.From, src.To)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", src.Symbol, err)
		}
		if len(samples) == 0 {
			return nil, fmt.Errorf("%w: no prices for %s", contracts.ErrRange, src.Symbol)
		}
		return New(src.Symbol, samples)
	}
	return nil, fmt.Errorf("%w: source needs a path or a symbol", contracts.ErrInvalidParameter)
}
