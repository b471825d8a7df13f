// Package session runs a single puzzle attempt: it owns the board, walks
// the expected move list, judges player moves against it and plays the
// scripted opponent replies.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gmkornilov/chess-puzzle-trainer/pkg/fen"
	"github.com/gmkornilov/chess-puzzle-trainer/pkg/rules"
)

// ErrCorruptSolution marks puzzle data that cannot be played: unparsable
// moves, a too short sequence, or a scripted move that does not fit the
// board. The session is abandoned when this happens mid-game.
var ErrCorruptSolution = errors.New("corrupt puzzle solution")

// Solution is a puzzle's starting position and the full move sequence in
// UCI notation. The first move is the opponent's setup move.
type Solution struct {
	FEN   string
	Moves []string
}

// Option configures a Session.
type Option func(*Session)

// WithReplayDelay delays the scripted reply that follows a correct player
// move. Zero plays it synchronously.
func WithReplayDelay(d time.Duration) Option {
	return func(s *Session) { s.delay = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithObserver registers fn for status events.
func WithObserver(fn Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, fn) }
}

// Session is one puzzle attempt. All methods are safe to call from the
// goroutine that owns the session and from a pending replay timer.
type Session struct {
	mu        sync.Mutex
	logger    *zap.Logger
	delay     time.Duration
	observers []Observer
	events    []Event

	pos      *rules.Position
	solution Solution
	moves    []rules.Move
	cursor   int
	state    State
	player   rules.Color
	lastMove string

	active    bool
	mistake   bool
	hintUsed  bool
	attempted bool

	// pieces mirrors the board for front ends that track individual
	// pieces; captured lists what was removed from it.
	pieces   map[rules.Square]rules.Piece
	captured []rules.Piece

	timer *time.Timer
	gen   uint64
}

func New(opts ...Option) *Session {
	s := &Session{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Observe registers an additional observer.
func (s *Session) Observe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Load starts a new attempt. A nil solution means the catalog had nothing
// to offer: NoPuzzleAvailable is emitted and the current board is left as
// it is. A malformed FEN, move list or setup move returns an error and
// leaves the session untouched.
//
// On success the opponent's setup move is played at once and Ready is
// returned with the player to move.
func (s *Session) Load(sol *Solution) (Status, error) {
	s.mu.Lock()
	st, err := s.load(sol)
	events := s.drain()
	s.mu.Unlock()
	s.notify(events)
	return st, err
}

func (s *Session) load(sol *Solution) (Status, error) {
	if sol == nil {
		if s.state == Uninitialized {
			s.state = NoPuzzle
		}
		s.emit(NoPuzzleAvailable, "")
		return NoPuzzleAvailable, nil
	}

	pos, moves, err := prepare(*sol)
	if err != nil {
		return Ignored, err
	}

	s.cancelReplay()
	s.pos = pos
	s.solution = Solution{FEN: sol.FEN, Moves: append([]string(nil), sol.Moves...)}
	s.moves = moves
	s.cursor = 0
	s.player = pos.Turn.Opposite()
	s.lastMove = ""
	s.active = true
	s.mistake = false
	s.hintUsed = false
	s.attempted = false
	s.captured = nil
	s.pieces = make(map[rules.Square]rules.Piece)
	for sq := rules.Square(0); sq < 64; sq++ {
		if p := pos.Board[sq]; !p.IsZero() {
			s.pieces[sq] = p
		}
	}
	s.state = AwaitingReplay
	s.logger.Debug("puzzle loaded",
		zap.String("fen", sol.FEN),
		zap.Int("moves", len(moves)),
		zap.Stringer("player", s.player))

	if _, err := s.autoPlayNext(); err != nil {
		return Ignored, err
	}
	s.emit(Ready, "")
	return Ready, nil
}

// Check reports whether sol can be loaded. It fails the way Load would:
// fen.ErrMalformed for a bad position, ErrCorruptSolution for a bad move
// list or a setup move that does not fit the board.
func Check(sol Solution) error {
	_, _, err := prepare(sol)
	return err
}

func prepare(sol Solution) (*rules.Position, []rules.Move, error) {
	parsed, err := fen.Parse(sol.FEN)
	if err != nil {
		return nil, nil, err
	}
	pos, err := rules.Setup(parsed)
	if err != nil {
		return nil, nil, err
	}
	if len(sol.Moves) < 2 {
		return nil, nil, fmt.Errorf("%d moves, need a setup move and a reply: %w", len(sol.Moves), ErrCorruptSolution)
	}
	moves := make([]rules.Move, len(sol.Moves))
	for i, text := range sol.Moves {
		m, err := rules.ParseUCI(text)
		if err != nil {
			return nil, nil, fmt.Errorf("move %d: %v: %w", i, err, ErrCorruptSolution)
		}
		moves[i] = m
	}
	if err := rules.ApplyChecked(pos.Copy(), moves[0]); err != nil {
		return nil, nil, fmt.Errorf("setup move %s: %v: %w", moves[0].UCI(), err, ErrCorruptSolution)
	}
	return pos, moves, nil
}

// Abandon stops the attempt. A pending replay is cancelled and will not
// touch the session when its timer fires.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelReplay()
	if s.active {
		s.active = false
		s.state = Abandoned
		s.logger.Debug("puzzle abandoned", zap.Int("cursor", s.cursor))
	}
}

func (s *Session) cancelReplay() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) emit(st Status, move string) {
	s.events = append(s.events, Event{Status: st, Move: move})
}

func (s *Session) drain() []Event {
	if len(s.events) == 0 {
		return nil
	}
	events := s.events
	s.events = nil
	if len(s.observers) == 0 {
		return nil
	}
	return events
}

func (s *Session) notify(events []Event) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()
	for _, e := range events {
		for _, fn := range observers {
			fn(e)
		}
	}
}

// View is a read-only snapshot of a session.
type View struct {
	State       State  `json:"state"`
	FEN         string `json:"fen"`
	PlayerColor string `json:"player_color"`
	LastMove    string `json:"last_move,omitempty"`
	Cursor      int    `json:"cursor"`
	Total       int    `json:"total"`
	MistakeMade bool   `json:"mistake_made"`
	HintUsed    bool   `json:"hint_used"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		State:       s.state,
		LastMove:    s.lastMove,
		Cursor:      s.cursor,
		Total:       len(s.moves),
		MistakeMade: s.mistake,
		HintUsed:    s.hintUsed,
	}
	if s.pos != nil {
		v.FEN = s.pos.FEN()
		v.PlayerColor = s.player.String()
	}
	return v
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether the session still accepts moves.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Attempted reports whether the player submitted a move or asked for a
// hint during the current attempt.
func (s *Session) Attempted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempted || s.hintUsed
}

// PlayerColor is the side the human plays: the side not on move in the
// puzzle FEN.
func (s *Session) PlayerColor() rules.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

// Position returns a copy of the current board, or nil before a load.
func (s *Session) Position() *rules.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos == nil {
		return nil
	}
	return s.pos.Copy()
}

// Pieces returns a copy of the piece index.
func (s *Session) Pieces() map[rules.Square]rules.Piece {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[rules.Square]rules.Piece, len(s.pieces))
	for sq, p := range s.pieces {
		out[sq] = p
	}
	return out
}

// Captured lists pieces removed from the board, in capture order.
func (s *Session) Captured() []rules.Piece {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]rules.Piece(nil), s.captured...)
}

// Solution returns the loaded solution.
func (s *Session) Solution() Solution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Solution{FEN: s.solution.FEN, Moves: append([]string(nil), s.solution.Moves...)}
}
