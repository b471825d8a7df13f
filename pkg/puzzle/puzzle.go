// Package puzzle holds puzzle records and the two storage ports the trainer
// depends on: a Catalog to draw puzzles from and a ProgressStore for
// per-user statistics.
package puzzle

import (
	"context"
	"errors"
	"strings"

	"github.com/gmkornilov/chess-puzzle-trainer/pkg/session"
)

// ErrNotFound is returned by a Catalog when nothing matches the filter.
var ErrNotFound = errors.New("no puzzle matches the filter")

// Puzzle is one catalog entry. Moves are in UCI notation; the first one is
// the opponent's setup move. Themes is a space separated tag list.
type Puzzle struct {
	ID              string   `bson:"_id" json:"id"`
	FEN             string   `bson:"fen" json:"fen"`
	Moves           []string `bson:"moves" json:"moves"`
	Rating          int      `bson:"rating" json:"rating"`
	RatingDeviation int      `bson:"rating_deviation" json:"rating_deviation"`
	Popularity      int      `bson:"popularity" json:"popularity"`
	NbPlays         int      `bson:"nb_plays" json:"nb_plays"`
	Themes          string   `bson:"themes" json:"themes"`
	GameURL         string   `bson:"game_url,omitempty" json:"game_url,omitempty"`
}

// ThemeList splits Themes into its tags.
func (p Puzzle) ThemeList() []string {
	return strings.Fields(p.Themes)
}

func (p Puzzle) Solution() *session.Solution {
	return &session.Solution{FEN: p.FEN, Moves: append([]string(nil), p.Moves...)}
}

// Filter narrows a random pick. Nil bounds are open; an empty Theme
// matches everything.
type Filter struct {
	MinRating *int   `json:"min_rating,omitempty"`
	MaxRating *int   `json:"max_rating,omitempty"`
	Theme     string `json:"theme,omitempty"`
}

// Bound returns a pointer to v for use in a Filter.
func Bound(v int) *int {
	return &v
}

// Matches applies the filter: inclusive rating bounds and substring
// containment of Theme in the puzzle's theme list.
func (f Filter) Matches(p Puzzle) bool {
	if f.MinRating != nil && p.Rating < *f.MinRating {
		return false
	}
	if f.MaxRating != nil && p.Rating > *f.MaxRating {
		return false
	}
	return f.Theme == "" || strings.Contains(p.Themes, f.Theme)
}

func (f Filter) IsZero() bool {
	return f.MinRating == nil && f.MaxRating == nil && f.Theme == ""
}

// Catalog is a read-only source of puzzles.
type Catalog interface {
	// Random returns a uniformly chosen puzzle matching f, or ErrNotFound.
	Random(ctx context.Context, f Filter) (Puzzle, error)

	// RatingRange returns the lowest and highest rating in the catalog.
	RatingRange(ctx context.Context) (min, max int, err error)

	// Themes returns the distinct theme tags, sorted.
	Themes(ctx context.Context) ([]string, error)
}

// Sink receives puzzles produced by importers and generators.
type Sink interface {
	InsertMany(ctx context.Context, puzzles []Puzzle) error
}
