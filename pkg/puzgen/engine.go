package puzgen

import (
	"github.com/freeeve/uci"
)

const (
	defaultDepth = 10
	multiPV      = 3
)

// Analyzer evaluates a position given as FEN and returns the engine's
// principal variations, best first.
type Analyzer interface {
	Analyze(fen string, depth int) ([]uci.ScoreResult, error)
}

// Engine is an Analyzer backed by a UCI engine process such as Stockfish.
type Engine struct {
	e *uci.Engine
}

// NewEngine starts the engine binary at path.
func NewEngine(path string, arg ...string) (*Engine, error) {
	e, err := uci.NewEngine(path, arg...)
	if err != nil {
		return nil, err
	}

	err = e.SetOptions(uci.Options{
		MultiPV: multiPV,
		Hash:    128,
		Ponder:  false,
		OwnBook: false,
	})
	if err != nil {
		e.Close()
		return nil, err
	}
	return &Engine{e: e}, nil
}

func (e *Engine) Analyze(fen string, depth int) ([]uci.ScoreResult, error) {
	if err := e.e.SetFEN(fen); err != nil {
		return nil, err
	}
	res, err := e.e.GoDepth(depth)
	if err != nil {
		return nil, err
	}
	return res.Results, nil
}

func (e *Engine) Close() {
	e.e.Close()
}
