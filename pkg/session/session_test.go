package session

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gmkornilov/chess-puzzle-trainer/pkg/fen"
	"github.com/gmkornilov/chess-puzzle-trainer/pkg/rules"
)

// After 1.e4 e5 2.f3 Black replies Qh4+, White must block with g3 and the
// queen takes on g3.
var queenCheck = Solution{
	FEN:   "rnbqkbnr/pppp1ppp/8/4p3/4P3/5P2/PPPP2PP/RNBQKBNR b KQkq - 0 2",
	Moves: []string{"d8h4", "g2g3", "h4g3"},
}

type recorder struct {
	events []Event
}

func (r *recorder) observe(e Event) { r.events = append(r.events, e) }

func (r *recorder) statuses() []Status {
	out := make([]Status, len(r.events))
	for i, e := range r.events {
		out[i] = e.Status
	}
	return out
}

func sq(t *testing.T, s string) rules.Square {
	t.Helper()
	square, err := rules.ParseSquare(s)
	if err != nil {
		t.Fatal(err)
	}
	return square
}

func load(t *testing.T, sol Solution, opts ...Option) *Session {
	t.Helper()
	s := New(opts...)
	st, err := s.Load(&sol)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st != Ready {
		t.Fatalf("Load() = %v, want ready", st)
	}
	return s
}

func submit(t *testing.T, s *Session, move string) Status {
	t.Helper()
	st, err := s.SubmitUCI(move)
	if err != nil {
		t.Fatalf("SubmitUCI(%s) error = %v", move, err)
	}
	return st
}

func TestLoadPlaysSetupMove(t *testing.T) {
	s := load(t, queenCheck)

	v := s.View()
	want := View{
		State:       AwaitingPlayerMove,
		FEN:         "rnb1kbnr/pppp1ppp/8/4p3/4P2q/5P2/PPPP2PP/RNBQKBNR w KQkq - 1 3",
		PlayerColor: "white",
		LastMove:    "d8h4",
		Cursor:      1,
		Total:       3,
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("View() mismatch (-want +got):\n%s", diff)
	}
	if s.PlayerColor() != rules.White {
		t.Errorf("PlayerColor() = %v, want white", s.PlayerColor())
	}
}

func TestSolvedFirstTry(t *testing.T) {
	rec := &recorder{}
	s := load(t, queenCheck, WithObserver(rec.observe))

	if st := submit(t, s, "g2g3"); st != CorrectMove {
		t.Fatalf("SubmitUCI() = %v, want correct_move", st)
	}

	want := []Status{Ready, CorrectMove, SolvedFirstTry}
	if diff := cmp.Diff(want, rec.statuses()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if s.State() != Solved {
		t.Errorf("State() = %v, want solved", s.State())
	}
	if s.Active() {
		t.Errorf("session still active after solve")
	}
	if st := submit(t, s, "a2a3"); st != Ignored {
		t.Errorf("SubmitUCI() after solve = %v, want ignored", st)
	}
}

func TestSolvedWithHelpAfterMistake(t *testing.T) {
	rec := &recorder{}
	s := load(t, queenCheck, WithObserver(rec.observe))

	if st := submit(t, s, "g2g4"); st != IncorrectMove {
		t.Fatalf("SubmitUCI(g2g4) = %v, want incorrect_move", st)
	}
	if st := submit(t, s, "g2g3"); st != CorrectMove {
		t.Fatalf("SubmitUCI(g2g3) = %v, want correct_move", st)
	}

	want := []Status{Ready, IncorrectMove, CorrectMove, SolvedWithHelp}
	if diff := cmp.Diff(want, rec.statuses()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if s.State() != FailedThenSolved {
		t.Errorf("State() = %v, want failed_then_solved", s.State())
	}
}

func TestHintCountsAsHelp(t *testing.T) {
	rec := &recorder{}
	s := load(t, queenCheck, WithObserver(rec.observe))

	hint, ok := s.RequestHint()
	if !ok || hint != "g2g3" {
		t.Fatalf("RequestHint() = %q, %v, want g2g3", hint, ok)
	}
	submit(t, s, hint)

	if got := rec.statuses(); got[len(got)-1] != SolvedWithHelp {
		t.Errorf("last status = %v, want solved_with_help", got[len(got)-1])
	}
	if _, ok := s.RequestHint(); ok {
		t.Errorf("RequestHint() after solve returned a move")
	}
}

func TestRejectionIsIdempotent(t *testing.T) {
	s := load(t, queenCheck)

	submit(t, s, "b1c3")
	once := s.View()
	submit(t, s, "b1c3")
	twice := s.View()

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second rejection changed the session (-once +twice):\n%s", diff)
	}
	if !twice.MistakeMade || twice.Cursor != 1 {
		t.Errorf("View() = %+v, want mistake at cursor 1", twice)
	}
	if twice.FEN != "rnb1kbnr/pppp1ppp/8/4p3/4P2q/5P2/PPPP2PP/RNBQKBNR w KQkq - 1 3" {
		t.Errorf("board changed by rejected move: %s", twice.FEN)
	}
}

func TestChessLegalButWrongMoveIsRejected(t *testing.T) {
	s := load(t, queenCheck)
	// Ke2 is legal but is not the puzzle move.
	if !rules.IsLegal(s.Position(), rules.Move{From: sq(t, "e1"), To: sq(t, "e2")}) {
		t.Fatalf("e1e2 expected to be legal")
	}
	if st := submit(t, s, "e1e2"); st != IncorrectMove {
		t.Errorf("SubmitUCI(e1e2) = %v, want incorrect_move", st)
	}
}

func TestLoadNoPuzzle(t *testing.T) {
	rec := &recorder{}
	s := New(WithObserver(rec.observe))

	st, err := s.Load(nil)
	if err != nil || st != NoPuzzleAvailable {
		t.Fatalf("Load(nil) = %v, %v, want no_puzzle_available", st, err)
	}
	if s.State() != NoPuzzle {
		t.Errorf("State() = %v, want no_puzzle_available", s.State())
	}
	if s.Position() != nil {
		t.Errorf("Position() = %v, want nil", s.Position())
	}

	sol := queenCheck
	if _, err := s.Load(&sol); err != nil {
		t.Fatal(err)
	}
	before := s.View()
	if st, _ := s.Load(nil); st != NoPuzzleAvailable {
		t.Fatalf("Load(nil) = %v, want no_puzzle_available", st)
	}
	if diff := cmp.Diff(before, s.View()); diff != "" {
		t.Errorf("empty load changed the running puzzle (-before +after):\n%s", diff)
	}
	want := []Status{NoPuzzleAvailable, Ready, NoPuzzleAvailable}
	if diff := cmp.Diff(want, rec.statuses()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMalformedFEN(t *testing.T) {
	s := New()
	_, err := s.Load(&Solution{FEN: "not a fen", Moves: []string{"e2e4", "e7e5"}})
	if !errors.Is(err, fen.ErrMalformed) {
		t.Fatalf("Load() error = %v, want ErrMalformed", err)
	}
	if s.State() != Uninitialized || s.Position() != nil {
		t.Errorf("failed load left state %v", s.State())
	}
}

func TestLoadCorruptSolution(t *testing.T) {
	tests := []struct {
		name  string
		moves []string
		state State
	}{
		{"too short", []string{"d8h4"}, Uninitialized},
		{"unparsable", []string{"d8h4", "g2-g3"}, Uninitialized},
		{"setup move from empty square", []string{"d6h2", "g2g3"}, Uninitialized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			_, err := s.Load(&Solution{FEN: queenCheck.FEN, Moves: tt.moves})
			if !errors.Is(err, ErrCorruptSolution) {
				t.Fatalf("Load() error = %v, want ErrCorruptSolution", err)
			}
			if s.State() != tt.state {
				t.Errorf("State() = %v, want %v", s.State(), tt.state)
			}
			if err := Check(Solution{FEN: queenCheck.FEN, Moves: tt.moves}); !errors.Is(err, ErrCorruptSolution) {
				t.Errorf("Check() error = %v, want ErrCorruptSolution", err)
			}
		})
	}
}

func TestCorruptScriptedReplyAbandons(t *testing.T) {
	s := load(t, Solution{FEN: queenCheck.FEN, Moves: []string{"d8h4", "g2g3", "h5g3"}})
	st, err := s.SubmitUCI("g2g3")
	if st != CorrectMove {
		t.Errorf("SubmitUCI() = %v, want correct_move", st)
	}
	if !errors.Is(err, ErrCorruptSolution) {
		t.Fatalf("SubmitUCI() error = %v, want ErrCorruptSolution", err)
	}
	if s.State() != Abandoned {
		t.Errorf("State() = %v, want abandoned", s.State())
	}
}

func TestPromotionChoice(t *testing.T) {
	sol := Solution{
		FEN:   "7k/4P3/8/8/8/8/r7/K7 b - - 0 1",
		Moves: []string{"a2b2", "e7e8q", "h8h7"},
	}
	rec := &recorder{}
	s := load(t, sol, WithObserver(rec.observe))

	if !s.NeedsPromotion(sq(t, "e7"), sq(t, "e8")) {
		t.Fatalf("NeedsPromotion(e7, e8) = false")
	}
	tests := []struct {
		kind rules.Kind
		want Status
	}{
		{rules.NoKind, IncorrectMove},
		{rules.Rook, IncorrectMove},
		{rules.Queen, CorrectMove},
	}
	for _, tt := range tests {
		st, err := s.Submit(sq(t, "e7"), sq(t, "e8"), tt.kind)
		if err != nil {
			t.Fatal(err)
		}
		if st != tt.want {
			t.Errorf("Submit(e7e8 %v) = %v, want %v", tt.kind, st, tt.want)
		}
	}

	pieces := s.Pieces()
	if got := pieces[sq(t, "e8")]; got != (rules.Piece{Kind: rules.Queen, Color: rules.White}) {
		t.Errorf("piece index e8 = %v, want white queen", got)
	}
	if _, ok := pieces[sq(t, "e7")]; ok {
		t.Errorf("piece index still has e7")
	}
	if s.State() != FailedThenSolved {
		t.Errorf("State() = %v, want failed_then_solved", s.State())
	}
}

func TestCastlingBookkeeping(t *testing.T) {
	sol := Solution{
		FEN:   "r3k2r/pppq1ppp/8/8/8/8/PPPQ1PPP/R3K2R b KQkq - 0 1",
		Moves: []string{"d7e6", "e1g1", "e8c8"},
	}
	s := load(t, sol)
	submit(t, s, "e1g1")

	pieces := s.Pieces()
	want := map[string]rules.Piece{
		"g1": {Kind: rules.King, Color: rules.White},
		"f1": {Kind: rules.Rook, Color: rules.White},
		"c8": {Kind: rules.King, Color: rules.Black},
		"d8": {Kind: rules.Rook, Color: rules.Black},
	}
	for name, p := range want {
		if got := pieces[sq(t, name)]; got != p {
			t.Errorf("piece index %s = %v, want %v", name, got, p)
		}
	}
	for _, name := range []string{"e1", "h1", "e8", "a8"} {
		if _, ok := pieces[sq(t, name)]; ok {
			t.Errorf("piece index still has %s", name)
		}
	}
	if got := s.Position().FEN(); got != "2kr3r/ppp2ppp/4q3/8/8/8/PPPQ1PPP/R4RK1 w - - 3 3" {
		t.Errorf("FEN = %s", got)
	}
}

func TestEnPassantCaptureIndex(t *testing.T) {
	sol := Solution{
		FEN:   "4k3/5p2/8/4P3/8/8/8/4K3 b - - 0 1",
		Moves: []string{"f7f5", "e5f6", "e8f8"},
	}
	s := load(t, sol)
	submit(t, s, "e5f6")

	want := []rules.Piece{{Kind: rules.Pawn, Color: rules.Black}}
	if diff := cmp.Diff(want, s.Captured()); diff != "" {
		t.Errorf("Captured() mismatch (-want +got):\n%s", diff)
	}
	pieces := s.Pieces()
	if _, ok := pieces[sq(t, "f5")]; ok {
		t.Errorf("piece index still has the captured pawn on f5")
	}
	if len(pieces) != 3 {
		t.Errorf("piece index has %d pieces, want 3", len(pieces))
	}
}

func TestLegalDestinations(t *testing.T) {
	s := load(t, queenCheck)
	got := s.LegalDestinations(sq(t, "g2"))
	if diff := cmp.Diff([]rules.Square{sq(t, "g3")}, got); diff != "" {
		t.Errorf("LegalDestinations(g2) mismatch (-want +got):\n%s", diff)
	}
	if got := s.LegalDestinations(sq(t, "d5")); len(got) != 0 {
		t.Errorf("LegalDestinations(empty square) = %v", got)
	}
}

func TestSubmitBeforeLoadIsIgnored(t *testing.T) {
	s := New()
	if st := submit(t, s, "e2e4"); st != Ignored {
		t.Errorf("SubmitUCI() = %v, want ignored", st)
	}
	if _, ok := s.RequestHint(); ok {
		t.Errorf("RequestHint() before load returned a move")
	}
}

func TestDelayedReplay(t *testing.T) {
	done := make(chan Status, 4)
	s := load(t, queenCheck,
		WithReplayDelay(20*time.Millisecond),
		WithObserver(func(e Event) {
			if e.Status == SolvedFirstTry || e.Status == SolvedWithHelp {
				done <- e.Status
			}
		}))

	submit(t, s, "g2g3")
	if s.State() != AwaitingReplay {
		t.Fatalf("State() = %v, want awaiting_replay", s.State())
	}
	if st := submit(t, s, "h2h3"); st != Ignored {
		t.Errorf("SubmitUCI() during replay = %v, want ignored", st)
	}

	select {
	case st := <-done:
		if st != SolvedFirstTry {
			t.Errorf("completion = %v, want solved_first_try", st)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scripted reply never played")
	}
	if s.View().LastMove != "h4g3" {
		t.Errorf("LastMove = %s, want h4g3", s.View().LastMove)
	}
}

func TestAbandonCancelsReplay(t *testing.T) {
	s := load(t, queenCheck, WithReplayDelay(30*time.Millisecond))
	submit(t, s, "g2g3")
	s.Abandon()

	time.Sleep(100 * time.Millisecond)

	v := s.View()
	if v.State != Abandoned {
		t.Errorf("State = %v, want abandoned", v.State)
	}
	if v.LastMove != "g2g3" || v.Cursor != 2 {
		t.Errorf("cancelled reply touched the board: %+v", v)
	}
}

func TestAutoPlayNextSkipsDelay(t *testing.T) {
	s := load(t, queenCheck, WithReplayDelay(time.Hour))
	submit(t, s, "g2g3")

	st, err := s.AutoPlayNext()
	if err != nil {
		t.Fatal(err)
	}
	if st != SolvedFirstTry {
		t.Errorf("AutoPlayNext() = %v, want solved_first_try", st)
	}
	if st, _ := s.AutoPlayNext(); st != Ignored {
		t.Errorf("AutoPlayNext() after solve = %v, want ignored", st)
	}
}

func TestReloadResetsFlags(t *testing.T) {
	s := load(t, queenCheck)
	submit(t, s, "a2a3")
	s.RequestHint()

	sol := queenCheck
	if _, err := s.Load(&sol); err != nil {
		t.Fatal(err)
	}
	v := s.View()
	if v.MistakeMade || v.HintUsed || v.Cursor != 1 {
		t.Errorf("reload kept old attempt state: %+v", v)
	}
	if s.Attempted() {
		t.Errorf("Attempted() = true after reload")
	}
}
