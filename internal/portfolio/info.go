package portfolio

import (
	"fmt"
	"strings"
	"time"
)

// Info is a reporting view of the portfolio's current parameters
type Info struct {
	Name      string    `json:"name"`
	Series    string    `json:"series"`
	Size      int       `json:"size"`
	Spot      float64   `json:"spot"`
	Maturity  float64   `json:"maturity"`
	Strike    float64   `json:"strike"`
	Rate      float64   `json:"rate"`
	Dividend  float64   `json:"dividend"`
	Basis     float64   `json:"basis"`
	Start     int       `json:"start"`
	End       int       `json:"end"`
	StartDate time.Time `json:"start_date,omitempty"`
	EndDate   time.Time `json:"end_date,omitempty"` // date of the last sample in the window
}

// Info returns the current parameters and window
func (p *Portfolio) Info() Info {
	info := Info{
		Name:     p.name,
		Series:   p.series.Name(),
		Size:     p.series.Len(),
		Spot:     p.Spot(),
		Maturity: p.Maturity(),
		Strike:   p.strike,
		Rate:     p.rate,
		Dividend: p.dividend,
		Basis:    p.basis,
		Start:    p.start,
		End:      p.end,
	}
	if p.end > p.start {
		info.StartDate = p.series.Date(p.start)
		info.EndDate = p.series.Date(p.end - 1)
	}
	return info
}

func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Portfolio: %s (series %s, %d samples)\n", i.Name, i.Series, i.Size)
	fmt.Fprintf(&b, "  Spot:     %.4f\n", i.Spot)
	fmt.Fprintf(&b, "  Strike:   %.4f\n", i.Strike)
	fmt.Fprintf(&b, "  Maturity: %.4f years\n", i.Maturity)
	fmt.Fprintf(&b, "  Rate:     %.4f\n", i.Rate)
	fmt.Fprintf(&b, "  Dividend: %.4f\n", i.Dividend)
	fmt.Fprintf(&b, "  Range:    [%d, %d)", i.Start, i.End)
	if !i.StartDate.IsZero() {
		fmt.Fprintf(&b, " %s .. %s", i.StartDate.Format("2006-01-02"), i.EndDate.Format("2006-01-02"))
	}
	return b.String()
}
