package portfolio

import (
	"errors"
	"sync"
	"time"
)

// ErrNotLoaded is returned by Store.Current before the first Replace
var ErrNotLoaded = errors.New("portfolio not loaded")

// Store holds the portfolio served to concurrent readers.
// Readers get clones; the scheduler swaps in a freshly loaded portfolio.
type Store struct {
	mu       sync.RWMutex
	current  *Portfolio
	loadedAt time.Time
}

// NewStore creates a store, optionally seeded with p
func NewStore(p *Portfolio) *Store {
	s := &Store{}
	if p != nil {
		s.Replace(p)
	}
	return s
}

// Current returns a private copy of the held portfolio
func (s *Store) Current() (*Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, ErrNotLoaded
	}
	return s.current.Clone(), nil
}

// Replace swaps in p
func (s *Store) Replace(p *Portfolio) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = p.Clone()
	s.loadedAt = time.Now()
}

// LoadedAt is the time of the last Replace
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
