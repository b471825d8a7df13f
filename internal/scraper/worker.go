package scraper

import (
	"context"

	"github.com/gmkornilov/chess-puzzle-trainer/pkg/puzgen"
	"github.com/gmkornilov/chess-puzzle-trainer/pkg/puzzle"
)

// Worker is a background puzzle generation job.
type Worker interface {
	StartWork(ctx context.Context)
	Result() []puzzle.Puzzle
	Progress() float64
	Done() bool
	Error() error
}

// EngineFactory starts an analysis engine for one job. The returned func
// releases it.
type EngineFactory func() (puzgen.Analyzer, func(), error)

// StockfishFactory starts a UCI engine binary per job.
func StockfishFactory(path string, args ...string) EngineFactory {
	return func() (puzgen.Analyzer, func(), error) {
		e, err := puzgen.NewEngine(path, args...)
		if err != nil {
			return nil, nil, err
		}
		return e, e.Close, nil
	}
}
