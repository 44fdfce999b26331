// Package series holds the immutable, date-indexed price history a
// portfolio is evaluated against, plus the loaders that build it.
package series

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/hedgevol/internal/contracts"
)

// Series is an ordered sequence of (date, price) samples.
// It is never mutated after construction and may be shared freely.
type Series struct {
	name    string
	samples []contracts.Sample
}

// New validates the samples (strictly increasing dates, positive prices)
// and wraps them. The slice is copied.
func New(name string, samples []contracts.Sample) (*Series, error) {
	for i, s := range samples {
		if !(s.Price > 0) {
			return nil, fmt.Errorf("%w: sample %d (%s) has non-positive price %v",
				contracts.ErrInvalidParameter, i, s.Date.Format(DateLayout), s.Price)
		}
		if i > 0 && !s.Date.After(samples[i-1].Date) {
			return nil, fmt.Errorf("%w: sample %d (%s) is not after %s",
				contracts.ErrInvalidParameter, i, s.Date.Format(DateLayout), samples[i-1].Date.Format(DateLayout))
		}
	}

	cp := make([]contracts.Sample, len(samples))
	copy(cp, samples)
	return &Series{name: name, samples: cp}, nil
}

// Name returns the label the series was loaded under
func (s *Series) Name() string { return s.name }

// Len returns the number of samples
func (s *Series) Len() int { return len(s.samples) }

// Price returns the price at position i
func (s *Series) Price(i int) float64 { return s.samples[i].Price }

// Date returns the date at position i
func (s *Series) Date(i int) time.Time { return s.samples[i].Date }

// Prices returns the prices of positions [start, end).
// The returned slice is a fresh copy.
func (s *Series) Prices(start, end int) ([]float64, error) {
	if err := s.CheckRange(start, end); err != nil {
		return nil, err
	}

	out := make([]float64, end-start)
	for i := start; i < end; i++ {
		out[i-start] = s.samples[i].Price
	}
	return out, nil
}

// CheckRange validates 0 <= start <= end <= Len
func (s *Series) CheckRange(start, end int) error {
	if start < 0 || start > end || end > len(s.samples) {
		return fmt.Errorf("%w: [%d, %d) outside [0, %d]", contracts.ErrRange, start, end, len(s.samples))
	}
	return nil
}

// ShiftMonths maps position pos to the position `months` calendar months
// away. Negative months look back and return the earliest sample on or
// after the target date; positive months look forward and return the
// latest sample on or before it, so the span never exceeds |months|.
//
// pos may equal Len (one past the last sample); its date is taken as the
// date of the last sample.
func (s *Series) ShiftMonths(pos, months int) (int, error) {
	n := len(s.samples)
	if n == 0 || pos < 0 || pos > n {
		return 0, fmt.Errorf("%w: position %d outside [0, %d]", contracts.ErrRange, pos, n)
	}

	anchor := s.samples[min(pos, n-1)].Date
	target := anchor.AddDate(0, months, 0)

	if months <= 0 {
		// first sample with date >= target
		return sort.Search(n, func(i int) bool {
			return !s.samples[i].Date.Before(target)
		}), nil
	}

	// last sample with date <= target
	i := sort.Search(n, func(i int) bool {
		return s.samples[i].Date.After(target)
	})
	return max(i-1, 0), nil
}

// IndexOf returns the position of the first sample on or after date
func (s *Series) IndexOf(date time.Time) int {
	return sort.Search(len(s.samples), func(i int) bool {
		return !s.samples[i].Date.Before(date)
	})
}

// Between returns the samples dated within [from, to]. A zero to means no
// upper bound. The result shares nothing with s.
func (s *Series) Between(from, to time.Time) *Series {
	start := s.IndexOf(from)
	end := len(s.samples)
	if !to.IsZero() {
		end = s.IndexOf(to)
		if end < len(s.samples) && s.samples[end].Date.Equal(to) {
			end++
		}
	}
	end = max(end, start)

	cp := make([]contracts.Sample, end-start)
	copy(cp, s.samples[start:end])
	return &Series{name: s.name, samples: cp}
}
