package puzzle

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gmkornilov/chess-puzzle-trainer/pkg/fen"
)

func samplePuzzles() []Puzzle {
	return []Puzzle{
		{ID: "a", Rating: 1100, Themes: "fork middlegame"},
		{ID: "b", Rating: 1200, Themes: "fork short"},
		{ID: "c", Rating: 1300, Themes: "pin endgame"},
		{ID: "d", Rating: 1400, Themes: "fork crushing"},
		{ID: "e", Rating: 1401, Themes: "fork"},
		{ID: "f", Rating: 1350, Themes: "mateIn2 forkingAttack"},
	}
}

func TestFilterMatches(t *testing.T) {
	p := Puzzle{Rating: 1500, Themes: "mate mateIn2 short"}
	tests := []struct {
		name string
		f    Filter
		want bool
	}{
		{"empty", Filter{}, true},
		{"inclusive min", Filter{MinRating: Bound(1500)}, true},
		{"inclusive max", Filter{MaxRating: Bound(1500)}, true},
		{"below min", Filter{MinRating: Bound(1501)}, false},
		{"above max", Filter{MaxRating: Bound(1499)}, false},
		{"only max bound", Filter{MaxRating: Bound(2000)}, true},
		{"theme substring", Filter{Theme: "mateIn"}, true},
		{"theme missing", Filter{Theme: "fork"}, false},
		{"all", Filter{MinRating: Bound(1000), MaxRating: Bound(2000), Theme: "short"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Matches(p); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMemoryRandomRespectsFilter(t *testing.T) {
	m := NewMemory(rand.New(rand.NewSource(1)), samplePuzzles()...)
	f := Filter{MinRating: Bound(1200), MaxRating: Bound(1400), Theme: "fork"}

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		p, err := m.Random(context.Background(), f)
		if err != nil {
			t.Fatal(err)
		}
		if p.Rating < 1200 || p.Rating > 1400 || !strings.Contains(p.Themes, "fork") {
			t.Fatalf("Random() = %+v outside the filter", p)
		}
		seen[p.ID] = true
	}
	want := map[string]bool{"b": true, "d": true, "f": true}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("picked puzzles mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryRandomNotFound(t *testing.T) {
	m := NewMemory(nil, samplePuzzles()...)
	_, err := m.Random(context.Background(), Filter{Theme: "zugzwang"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Random() error = %v, want ErrNotFound", err)
	}
	if _, _, err := NewMemory(nil).RatingRange(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("RatingRange() on empty catalog error = %v, want ErrNotFound", err)
	}
}

func TestMemoryRatingRangeAndThemes(t *testing.T) {
	m := NewMemory(nil, samplePuzzles()...)
	lo, hi, err := m.RatingRange(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if lo != 1100 || hi != 1401 {
		t.Errorf("RatingRange() = %d, %d, want 1100, 1401", lo, hi)
	}

	themes, err := m.Themes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"crushing", "endgame", "fork", "forkingAttack", "mateIn2", "middlegame", "pin", "short"}
	if diff := cmp.Diff(want, themes); diff != "" {
		t.Errorf("Themes() mismatch (-want +got):\n%s", diff)
	}
}

type countingCatalog struct {
	Catalog
	ranges, themes int
}

func (c *countingCatalog) RatingRange(ctx context.Context) (int, int, error) {
	c.ranges++
	return c.Catalog.RatingRange(ctx)
}

func (c *countingCatalog) Themes(ctx context.Context) ([]string, error) {
	c.themes++
	return c.Catalog.Themes(ctx)
}

func TestCachedCatalog(t *testing.T) {
	mem := NewMemory(nil, samplePuzzles()...)
	inner := &countingCatalog{Catalog: mem}
	c := Cached(inner)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := c.RatingRange(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := c.Themes(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if inner.ranges != 1 || inner.themes != 1 {
		t.Errorf("inner calls = %d ranges, %d themes, want 1 each", inner.ranges, inner.themes)
	}

	mem.Add(Puzzle{ID: "g", Rating: 2500, Themes: "zugzwang"})
	if _, hi, _ := c.RatingRange(ctx); hi != 1401 {
		t.Errorf("cached max = %d, want 1401 before invalidation", hi)
	}
	c.Invalidate()
	if _, hi, _ := c.RatingRange(ctx); hi != 2500 {
		t.Errorf("max after invalidation = %d, want 2500", hi)
	}

	sink := c.Invalidating(mem)
	if err := sink.InsertMany(ctx, []Puzzle{{ID: "h", Rating: 2700, Themes: "zugzwang"}}); err != nil {
		t.Fatal(err)
	}
	if _, hi, _ := c.RatingRange(ctx); hi != 2700 {
		t.Errorf("max after insert = %d, want 2700", hi)
	}
}

func TestSummarize(t *testing.T) {
	themes := map[string]Counts{
		"fork":      {Played: 10, Solved: 5},
		"pin":       {Played: 4, Solved: 4},
		"mate":      {Played: 8, Solved: 2},
		"endgame":   {Played: 2, Solved: 1},
		"skewer":    {Played: 1, Solved: 0},
		"untouched": {},
	}
	got := Summarize("ann", Counts{Played: 12, Solved: 6}, themes)

	want := Stats{
		User:      "ann",
		Played:    12,
		Solved:    6,
		SolveRate: 0.5,
		MostPlayed: []ThemeStats{
			{Theme: "fork", Played: 10, Solved: 5, Rate: 0.5},
			{Theme: "mate", Played: 8, Solved: 2, Rate: 0.25},
			{Theme: "pin", Played: 4, Solved: 4, Rate: 1},
		},
		BestRate: []ThemeStats{
			{Theme: "pin", Played: 4, Solved: 4, Rate: 1},
			{Theme: "endgame", Played: 2, Solved: 1, Rate: 0.5},
			{Theme: "fork", Played: 10, Solved: 5, Rate: 0.5},
		},
		WorstRate: []ThemeStats{
			{Theme: "skewer", Played: 1, Solved: 0, Rate: 0},
			{Theme: "mate", Played: 8, Solved: 2, Rate: 0.25},
			{Theme: "endgame", Played: 2, Solved: 1, Rate: 0.5},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryProgress(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProgress()

	attempts := []struct {
		themes string
		solved bool
	}{
		{"fork short", true},
		{"fork long", false},
		{"pin", true},
	}
	for _, a := range attempts {
		if err := p.RecordAttempt(ctx, "bob", a.themes, a.solved); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.RecordAttempt(ctx, "eve", "fork", true); err != nil {
		t.Fatal(err)
	}

	st, err := p.Stats(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if st.Played != 3 || st.Solved != 2 {
		t.Errorf("bob totals = %d/%d, want 3 played 2 solved", st.Played, st.Solved)
	}
	if diff := cmp.Diff(ThemeStats{Theme: "fork", Played: 2, Solved: 1, Rate: 0.5}, st.MostPlayed[0]); diff != "" {
		t.Errorf("most played mismatch (-want +got):\n%s", diff)
	}

	if err := p.Reset(ctx, "bob"); err != nil {
		t.Fatal(err)
	}
	st, _ = p.Stats(ctx, "bob")
	if st.Played != 0 || len(st.MostPlayed) != 0 {
		t.Errorf("stats after reset = %+v", st)
	}
	other, _ := p.Stats(ctx, "eve")
	if other.Played != 1 {
		t.Errorf("reset touched another user: %+v", other)
	}
}

const lichessSample = `PuzzleId,FEN,Moves,Rating,RatingDeviation,Popularity,NbPlays,Themes,GameUrl,OpeningTags
00008,r6k/pp2r2p/4Rp1Q/3p4/8/1N1P2R1/PqP2bPP/7K b - - 0 24,f2g3 e6e7 b2b1 b3c1 b1c1 h6c1,1913,75,94,6230,crushing hangingPiece long middlegame,https://lichess.org/787zsVup/black#47,
0000D,5rk1/1p3ppp/pq3b2/8/8/1P1Q1N2/P4PPP/3R2K1 w - - 2 27,d3d6 f8d8 d6d8 f6d8,1517,73,97,23426,advantage endgame short,https://lichess.org/F8M8OS71#53,
`

func TestReadLichessCSV(t *testing.T) {
	var got []Puzzle
	err := ReadLichessCSV(strings.NewReader(lichessSample), func(p Puzzle) error {
		got = append(got, p)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []Puzzle{
		{
			ID:              "00008",
			FEN:             "r6k/pp2r2p/4Rp1Q/3p4/8/1N1P2R1/PqP2bPP/7K b - - 0 24",
			Moves:           []string{"f2g3", "e6e7", "b2b1", "b3c1", "b1c1", "h6c1"},
			Rating:          1913,
			RatingDeviation: 75,
			Popularity:      94,
			NbPlays:         6230,
			Themes:          "crushing hangingPiece long middlegame",
			GameURL:         "https://lichess.org/787zsVup/black#47",
		},
		{
			ID:              "0000D",
			FEN:             "5rk1/1p3ppp/pq3b2/8/8/1P1Q1N2/P4PPP/3R2K1 w - - 2 27",
			Moves:           []string{"d3d6", "f8d8", "d6d8", "f6d8"},
			Rating:          1517,
			RatingDeviation: 73,
			Popularity:      97,
			NbPlays:         23426,
			Themes:          "advantage endgame short",
			GameURL:         "https://lichess.org/F8M8OS71#53",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadLichessCSV() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadLichessCSVErrors(t *testing.T) {
	header := "PuzzleId,FEN,Moves,Rating,RatingDeviation,Popularity,NbPlays,Themes,GameUrl\n"
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"bad header", "Id,Fen\nx,y\n", ErrBadRecord},
		{"bad fen", header + "x,not a fen,e2e4 e7e5,1500,70,90,10,fork,\n", fen.ErrMalformed},
		{"short rank", header + "x,8/8/8/8/8/8/8/K5k w - - 0 1,a1a2 h1h2,1500,70,90,10,fork,\n", fen.ErrMalformed},
		{"missing king", header + "x,8/8/8/8/8/8/8/K7 w - - 0 1,a1a2 a2a3,1500,70,90,10,fork,\n", fen.ErrMalformed},
		{"setup move from empty square", header + "x,8/8/8/8/8/8/8/K6k w - - 0 1,b1b2 h1h2,1500,70,90,10,fork,\n", ErrBadRecord},
		{"one move", header + "x,8/8/8/8/8/8/8/K6k w - - 0 1,a1a2,1500,70,90,10,fork,\n", ErrBadRecord},
		{"bad rating", header + "x,8/8/8/8/8/8/8/K6k w - - 0 1,a1a2 h1h2,high,70,90,10,fork,\n", ErrBadRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ReadLichessCSV(strings.NewReader(tt.input), func(Puzzle) error { return nil })
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ReadLichessCSV() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	stop := errors.New("stop")
	err := ReadLichessCSV(strings.NewReader(lichessSample), func(Puzzle) error { return stop })
	if !errors.Is(err, stop) {
		t.Errorf("callback error not returned: %v", err)
	}
}
