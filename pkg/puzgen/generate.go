// Package puzgen finds mate puzzles in played games with the help of a UCI
// engine.
package puzgen

import (
	"bufio"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/gmkornilov/chess-puzzle-trainer/pkg/puzzle"
)

// ErrUnplayable marks a move that cannot be replayed on the given position.
var ErrUnplayable = errors.New("move cannot be replayed")

type Option func(*Generator)

// WithDepth sets the engine search depth.
func WithDepth(depth int) Option {
	return func(g *Generator) {
		if depth > 0 {
			g.depth = depth
		}
	}
}

// WithMaxMate limits puzzles to mates in at most n moves.
func WithMaxMate(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxMate = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// Generator turns game positions into puzzles. It is not safe for
// concurrent use; the analyzer holds a single engine.
type Generator struct {
	analyzer Analyzer
	depth    int
	maxMate  int
	logger   *zap.Logger

	watchedPositions map[string]bool
}

func NewGenerator(a Analyzer, opts ...Option) *Generator {
	g := &Generator{
		analyzer:         a,
		depth:            defaultDepth,
		maxMate:          4,
		logger:           zap.NewNop(),
		watchedPositions: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

const maxPGNLine = 1 << 20

// ReadGames parses every game in a PGN stream. A game ends where the next
// tag section starts or at the end of the stream, so the last game needs
// no trailing blank line.
func ReadGames(r io.Reader) ([]*chess.Game, error) {
	texts, err := splitGames(r)
	if err != nil {
		return nil, err
	}
	games := make([]*chess.Game, 0, len(texts))
	for i, text := range texts {
		opt, err := chess.PGN(strings.NewReader(text))
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", i+1, err)
		}
		games = append(games, chess.NewGame(opt))
	}
	return games, nil
}

func splitGames(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxPGNLine)

	var (
		texts   []string
		cur     strings.Builder
		inMoves bool
		comment int
	)
	flush := func() {
		if strings.TrimSpace(cur.String()) != "" {
			texts = append(texts, cur.String())
		}
		cur.Reset()
		inMoves = false
		comment = 0
	}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case comment == 0 && strings.HasPrefix(line, "["):
			if inMoves {
				flush()
			}
			cur.WriteString(line)
			cur.WriteString("\n")
		default:
			comment += strings.Count(line, "{") - strings.Count(line, "}")
			if !inMoves && cur.Len() > 0 {
				cur.WriteString("\n")
			}
			inMoves = true
			// Movetext is kept on one line so that comments spanning
			// several lines are stripped whole by the decoder.
			cur.WriteString(line)
			cur.WriteString(" ")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return texts, nil
}

func (g *Generator) FromGames(games []*chess.Game) ([]puzzle.Puzzle, error) {
	res := make([]puzzle.Puzzle, 0)
	for _, game := range games {
		puzzles, err := g.FromGame(game)
		if err != nil {
			return nil, err
		}
		res = append(res, puzzles...)
	}
	return res, nil
}

// FromGame checks every move of the game. When the move hands the opponent
// a forced mate, the position before it becomes a puzzle whose setup move
// is the blunder.
func (g *Generator) FromGame(game *chess.Game) ([]puzzle.Puzzle, error) {
	positions := game.Positions()
	moves := game.Moves()
	site := tagValue(game, "Site")

	res := make([]puzzle.Puzzle, 0)
	for i, move := range moves {
		before := positions[i]
		solver := "WhiteElo"
		if before.Turn() == chess.White {
			solver = "BlackElo"
		}
		elo, _ := strconv.Atoi(tagValue(game, solver))

		p, ok, err := g.FromMove(before.String(), chess.UCINotation{}.Encode(before, move), elo)
		if err != nil {
			return nil, err
		}
		if ok {
			p.GameURL = site
			res = append(res, p)
		}
	}
	return res, nil
}

// FromMove plays move on the position beforeFEN and asks the engine about
// the result. It reports false when the side to move has no unique forced
// mate short enough to become a puzzle. playerElo is the rating of the side
// that would solve it, zero when unknown.
func (g *Generator) FromMove(beforeFEN, move string, playerElo int) (puzzle.Puzzle, bool, error) {
	fenOpt, err := chess.FEN(beforeFEN)
	if err != nil {
		return puzzle.Puzzle{}, false, fmt.Errorf("%s: %v: %w", beforeFEN, err, ErrUnplayable)
	}
	game := chess.NewGame(fenOpt)
	m, err := chess.UCINotation{}.Decode(game.Position(), move)
	if err != nil {
		return puzzle.Puzzle{}, false, fmt.Errorf("move %s in %s: %v: %w", move, beforeFEN, err, ErrUnplayable)
	}
	if err := game.Move(m); err != nil {
		return puzzle.Puzzle{}, false, fmt.Errorf("move %s in %s: %v: %w", move, beforeFEN, err, ErrUnplayable)
	}

	after := game.FEN()
	if g.watchedPositions[after] {
		return puzzle.Puzzle{}, false, nil
	}
	g.watchedPositions[after] = true

	results, err := g.analyzer.Analyze(after, g.depth)
	if err != nil {
		return puzzle.Puzzle{}, false, err
	}
	mateIn, line, ok := forcedMate(results, g.maxMate)
	if !ok {
		return puzzle.Puzzle{}, false, nil
	}
	if err := checkMateLine(game, line); err != nil {
		g.logger.Debug("engine line rejected", zap.String("fen", after), zap.Error(err))
		return puzzle.Puzzle{}, false, nil
	}

	moves := append([]string{move}, line...)
	p := puzzle.Puzzle{
		ID:     puzzleID(beforeFEN, moves),
		FEN:    beforeFEN,
		Moves:  moves,
		Rating: EstimateRating(mateIn, playerElo),
		Themes: fmt.Sprintf("mate mateIn%d %s", mateIn, lengthTheme(mateIn)),
	}
	g.logger.Debug("puzzle found",
		zap.String("id", p.ID),
		zap.String("fen", p.FEN),
		zap.Int("mate_in", mateIn))
	return p, true, nil
}

func puzzleID(fen string, moves []string) string {
	sum := md5.Sum([]byte(fen + " " + strings.Join(moves, " ")))
	return fmt.Sprintf("g%x", sum[:5])
}

func tagValue(game *chess.Game, key string) string {
	if tp := game.GetTagPair(key); tp != nil {
		return tp.Value
	}
	return ""
}
