package puzzle

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Memory is a Catalog over an in-process slice. It also satisfies Sink.
type Memory struct {
	mu      sync.Mutex
	rnd     *rand.Rand
	puzzles []Puzzle
}

// NewMemory builds a catalog. A nil rnd uses a time-seeded source.
func NewMemory(rnd *rand.Rand, puzzles ...Puzzle) *Memory {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Memory{rnd: rnd, puzzles: append([]Puzzle(nil), puzzles...)}
}

func (m *Memory) Add(puzzles ...Puzzle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puzzles = append(m.puzzles, puzzles...)
}

func (m *Memory) InsertMany(_ context.Context, puzzles []Puzzle) error {
	m.Add(puzzles...)
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.puzzles)
}

func (m *Memory) Random(ctx context.Context, f Filter) (Puzzle, error) {
	if err := ctx.Err(); err != nil {
		return Puzzle{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []int
	for i, p := range m.puzzles {
		if f.Matches(p) {
			matches = append(matches, i)
		}
	}
	if len(matches) == 0 {
		return Puzzle{}, ErrNotFound
	}
	return m.puzzles[matches[m.rnd.Intn(len(matches))]], nil
}

func (m *Memory) RatingRange(ctx context.Context) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.puzzles) == 0 {
		return 0, 0, ErrNotFound
	}
	lo, hi := m.puzzles[0].Rating, m.puzzles[0].Rating
	for _, p := range m.puzzles[1:] {
		if p.Rating < lo {
			lo = p.Rating
		}
		if p.Rating > hi {
			hi = p.Rating
		}
	}
	return lo, hi, nil
}

func (m *Memory) Themes(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	lists := make([]string, len(m.puzzles))
	for i, p := range m.puzzles {
		lists[i] = p.Themes
	}
	return SplitThemes(lists), nil
}

// SplitThemes turns theme strings into a sorted set of tags.
func SplitThemes(lists []string) []string {
	set := make(map[string]struct{})
	for _, l := range lists {
		for _, t := range strings.Fields(l) {
			set[t] = struct{}{}
		}
	}
	themes := maps.Keys(set)
	slices.Sort(themes)
	return themes
}
