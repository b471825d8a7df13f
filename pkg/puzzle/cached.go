package puzzle

import (
	"context"
	"sync"
)

// CachedCatalog remembers RatingRange and Themes after their first
// successful lookup. Random is always delegated.
type CachedCatalog struct {
	Catalog

	mu       sync.Mutex
	hasRange bool
	min, max int
	themes   []string
}

func Cached(c Catalog) *CachedCatalog {
	return &CachedCatalog{Catalog: c}
}

func (c *CachedCatalog) RatingRange(ctx context.Context) (int, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasRange {
		return c.min, c.max, nil
	}
	lo, hi, err := c.Catalog.RatingRange(ctx)
	if err != nil {
		return 0, 0, err
	}
	c.min, c.max, c.hasRange = lo, hi, true
	return lo, hi, nil
}

func (c *CachedCatalog) Themes(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.themes == nil {
		themes, err := c.Catalog.Themes(ctx)
		if err != nil {
			return nil, err
		}
		c.themes = themes
	}
	return append([]string(nil), c.themes...), nil
}

// Invalidate drops cached values, e.g. after an import.
func (c *CachedCatalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasRange = false
	c.themes = nil
}

// Invalidating wraps s so that every successful insert also invalidates c.
func (c *CachedCatalog) Invalidating(s Sink) Sink {
	return invalidatingSink{sink: s, cache: c}
}

type invalidatingSink struct {
	sink  Sink
	cache *CachedCatalog
}

func (s invalidatingSink) InsertMany(ctx context.Context, puzzles []Puzzle) error {
	if err := s.sink.InsertMany(ctx, puzzles); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}
