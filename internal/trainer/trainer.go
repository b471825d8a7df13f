// Package trainer drives puzzle practice for one user: it draws puzzles
// from a catalog, runs them through a session and records the outcome in a
// progress store.
package trainer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gmkornilov/chess-puzzle-trainer/pkg/puzzle"
	"github.com/gmkornilov/chess-puzzle-trainer/pkg/rules"
	"github.com/gmkornilov/chess-puzzle-trainer/pkg/session"
)

var ErrNotConfigured = errors.New("trainer: catalog or progress store not configured")

type Option func(*Trainer)

func WithLogger(l *zap.Logger) Option {
	return func(t *Trainer) { t.logger = l }
}

// WithReplayDelay is passed on to the session.
func WithReplayDelay(d time.Duration) Option {
	return func(t *Trainer) { t.delay = d }
}

// WithObserver forwards session events.
func WithObserver(fn session.Observer) Option {
	return func(t *Trainer) { t.observers = append(t.observers, fn) }
}

// Trainer is safe for concurrent use.
type Trainer struct {
	catalog   puzzle.Catalog
	progress  puzzle.ProgressStore
	user      string
	logger    *zap.Logger
	delay     time.Duration
	observers []session.Observer

	session *session.Session

	mu       sync.Mutex
	filter   puzzle.Filter
	current  *puzzle.Puzzle
	recorded bool
}

func New(catalog puzzle.Catalog, progress puzzle.ProgressStore, user string, opts ...Option) (*Trainer, error) {
	if catalog == nil || progress == nil {
		return nil, ErrNotConfigured
	}
	t := &Trainer{
		catalog:  catalog,
		progress: progress,
		user:     user,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With(zap.String("user", user))

	sessOpts := []session.Option{
		session.WithReplayDelay(t.delay),
		session.WithLogger(t.logger),
		session.WithObserver(t.onEvent),
	}
	for _, fn := range t.observers {
		sessOpts = append(sessOpts, session.WithObserver(fn))
	}
	t.session = session.New(sessOpts...)
	return t, nil
}

func (t *Trainer) User() string {
	return t.user
}

// Session exposes the running session for read access.
func (t *Trainer) Session() *session.Session {
	return t.session
}

// SetFilters stores the filter for later puzzles. Rating bounds that span
// exactly the whole catalog are dropped.
func (t *Trainer) SetFilters(ctx context.Context, f puzzle.Filter) error {
	if f.MinRating != nil && f.MaxRating != nil {
		lo, hi, err := t.catalog.RatingRange(ctx)
		if err != nil && !errors.Is(err, puzzle.ErrNotFound) {
			return err
		}
		if err == nil && *f.MinRating == lo && *f.MaxRating == hi {
			f.MinRating, f.MaxRating = nil, nil
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filter = f
	return nil
}

func (t *Trainer) ClearFilters() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filter = puzzle.Filter{}
}

func (t *Trainer) Filter() puzzle.Filter {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filter
}

// Next draws a puzzle matching the filter and loads it. When the catalog
// has nothing to offer NoPuzzleAvailable is returned and the running puzzle
// is kept, as it is when the drawn puzzle cannot be played. Otherwise a
// started but unsolved puzzle is recorded as played.
func (t *Trainer) Next(ctx context.Context) (session.Status, error) {
	p, err := t.catalog.Random(ctx, t.Filter())
	if errors.Is(err, puzzle.ErrNotFound) {
		t.logger.Info("no puzzle matches the filter")
		return t.session.Load(nil)
	}
	if err != nil {
		return session.Ignored, err
	}

	sol := p.Solution()
	if err := session.Check(*sol); err != nil {
		t.logger.Error("puzzle cannot be played", zap.String("puzzle", p.ID), zap.Error(err))
		return session.Ignored, err
	}

	if err := t.Abandon(ctx); err != nil {
		t.logger.Error("recording abandoned puzzle", zap.Error(err))
	}

	st, err := t.session.Load(sol)
	t.mu.Lock()
	if err == nil {
		t.current = &p
	} else {
		t.current = nil
	}
	t.recorded = false
	t.mu.Unlock()
	if err != nil {
		t.logger.Error("puzzle cannot be played", zap.String("puzzle", p.ID), zap.Error(err))
		return st, err
	}
	t.logger.Debug("puzzle started", zap.String("puzzle", p.ID), zap.Int("rating", p.Rating))
	return st, nil
}

// Abandon stops the running puzzle. A puzzle the user touched but did not
// solve counts as played and unsolved.
func (t *Trainer) Abandon(ctx context.Context) error {
	attempted := t.session.Attempted()
	wasActive := t.session.Active()
	t.session.Abandon()
	if !attempted || !wasActive {
		return nil
	}
	themes, ok := t.claimRecord()
	if !ok {
		return nil
	}
	return t.progress.RecordAttempt(ctx, t.user, themes, false)
}

func (t *Trainer) Submit(move string) (session.Status, error) {
	return t.session.SubmitUCI(move)
}

func (t *Trainer) SubmitMove(from, to rules.Square, promotion rules.Kind) (session.Status, error) {
	return t.session.Submit(from, to, promotion)
}

func (t *Trainer) Hint() (string, bool) {
	return t.session.RequestHint()
}

func (t *Trainer) Destinations(origin rules.Square) []rules.Square {
	return t.session.LegalDestinations(origin)
}

// Current returns the puzzle being played, if any.
func (t *Trainer) Current() (puzzle.Puzzle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return puzzle.Puzzle{}, false
	}
	return *t.current, true
}

func (t *Trainer) Stats(ctx context.Context) (puzzle.Stats, error) {
	return t.progress.Stats(ctx, t.user)
}

func (t *Trainer) ResetProgress(ctx context.Context) error {
	return t.progress.Reset(ctx, t.user)
}

// claimRecord marks the current puzzle as recorded and returns its themes.
// It reports false when there is nothing left to record.
func (t *Trainer) claimRecord() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil || t.recorded {
		return "", false
	}
	t.recorded = true
	return t.current.Themes, true
}

func (t *Trainer) onEvent(e session.Event) {
	if e.Status != session.SolvedFirstTry && e.Status != session.SolvedWithHelp {
		return
	}
	themes, ok := t.claimRecord()
	if !ok {
		return
	}
	clean := e.Status == session.SolvedFirstTry
	if err := t.progress.RecordAttempt(context.Background(), t.user, themes, clean); err != nil {
		t.logger.Error("recording solved puzzle", zap.Error(err))
		return
	}
	t.logger.Debug("puzzle solved", zap.Bool("first_try", clean))
}
