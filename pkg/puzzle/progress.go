package puzzle

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// ProgressStore keeps per-user puzzle statistics.
type ProgressStore interface {
	// RecordAttempt counts one played puzzle for the user and for each
	// theme tag, and one solved puzzle when solvedCleanly is set.
	RecordAttempt(ctx context.Context, userID, themes string, solvedCleanly bool) error
	Stats(ctx context.Context, userID string) (Stats, error)
	// Reset zeroes the totals and forgets all theme counters.
	Reset(ctx context.Context, userID string) error
}

// Counts is a played/solved pair.
type Counts struct {
	Played int `bson:"played" json:"played"`
	Solved int `bson:"solved" json:"solved"`
}

// Rate is Solved/Played, zero when nothing was played.
func (c Counts) Rate() float64 {
	if c.Played == 0 {
		return 0
	}
	return float64(c.Solved) / float64(c.Played)
}

type ThemeStats struct {
	Theme  string  `json:"theme"`
	Played int     `json:"played"`
	Solved int     `json:"solved"`
	Rate   float64 `json:"rate"`
}

// Stats is the statistics view of one user. The theme lists hold at most
// three entries each.
type Stats struct {
	User       string       `json:"user"`
	Played     int          `json:"played"`
	Solved     int          `json:"solved"`
	SolveRate  float64      `json:"solve_rate"`
	MostPlayed []ThemeStats `json:"most_played"`
	BestRate   []ThemeStats `json:"best_rate"`
	WorstRate  []ThemeStats `json:"worst_rate"`
}

const topThemes = 3

// Summarize builds Stats from raw counters. Ties are broken by theme name.
func Summarize(user string, overall Counts, themes map[string]Counts) Stats {
	all := make([]ThemeStats, 0, len(themes))
	for t, c := range themes {
		if c.Played == 0 {
			continue
		}
		all = append(all, ThemeStats{Theme: t, Played: c.Played, Solved: c.Solved, Rate: c.Rate()})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Theme < all[j].Theme })

	top := func(less func(a, b ThemeStats) bool) []ThemeStats {
		out := append([]ThemeStats(nil), all...)
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
		if len(out) > topThemes {
			out = out[:topThemes]
		}
		return out
	}

	return Stats{
		User:       user,
		Played:     overall.Played,
		Solved:     overall.Solved,
		SolveRate:  overall.Rate(),
		MostPlayed: top(func(a, b ThemeStats) bool { return a.Played > b.Played }),
		BestRate:   top(func(a, b ThemeStats) bool { return a.Rate > b.Rate }),
		WorstRate:  top(func(a, b ThemeStats) bool { return a.Rate < b.Rate }),
	}
}

type userProgress struct {
	total  Counts
	themes map[string]Counts
}

// MemoryProgress is a ProgressStore kept in process memory.
type MemoryProgress struct {
	mu    sync.Mutex
	users map[string]*userProgress
}

func NewMemoryProgress() *MemoryProgress {
	return &MemoryProgress{users: make(map[string]*userProgress)}
}

func (m *MemoryProgress) RecordAttempt(ctx context.Context, userID, themes string, solvedCleanly bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		u = &userProgress{themes: make(map[string]Counts)}
		m.users[userID] = u
	}
	solved := 0
	if solvedCleanly {
		solved = 1
	}
	u.total.Played++
	u.total.Solved += solved
	for _, t := range strings.Fields(themes) {
		c := u.themes[t]
		c.Played++
		c.Solved += solved
		u.themes[t] = c
	}
	return nil
}

func (m *MemoryProgress) Stats(ctx context.Context, userID string) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return Summarize(userID, Counts{}, nil), nil
	}
	return Summarize(userID, u.total, u.themes), nil
}

func (m *MemoryProgress) Reset(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
	return nil
}
