package session

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gmkornilov/chess-puzzle-trainer/pkg/rules"
)

// Submit judges a player move against the expected solution move.
//
// A pawn reaching the last rank needs promotion; when it is missing the
// attempt counts as incorrect. Otherwise promotion is ignored. On a match
// the move is applied, CorrectMove is returned and the opponent's scripted
// reply is played, right away or after the replay delay. On a mismatch the
// board and cursor stay as they are and IncorrectMove is returned.
func (s *Session) Submit(from, to rules.Square, promotion rules.Kind) (Status, error) {
	s.mu.Lock()
	st, err := s.submit(from, to, promotion)
	events := s.drain()
	s.mu.Unlock()
	s.notify(events)
	return st, err
}

// SubmitUCI is Submit for a move given as "e2e4" or "e7e8q".
func (s *Session) SubmitUCI(text string) (Status, error) {
	m, err := rules.ParseUCI(text)
	if err != nil {
		return Ignored, err
	}
	return s.Submit(m.From, m.To, m.Promotion)
}

func (s *Session) submit(from, to rules.Square, promotion rules.Kind) (Status, error) {
	if !s.active || s.state != AwaitingPlayerMove {
		return Ignored, nil
	}
	s.attempted = true

	candidate := rules.Move{From: from, To: to}
	if rules.NeedsPromotion(s.pos, from, to) {
		if promotion == rules.NoKind {
			return s.reject(candidate.UCI()), nil
		}
		candidate.Promotion = promotion
	}

	expected := s.moves[s.cursor]
	if candidate.UCI() != expected.UCI() {
		return s.reject(candidate.UCI()), nil
	}

	if err := s.play(expected); err != nil {
		return Ignored, err
	}
	s.emit(CorrectMove, expected.UCI())
	s.state = AwaitingReplay
	if err := s.scheduleReplay(); err != nil {
		return CorrectMove, err
	}
	return CorrectMove, nil
}

func (s *Session) reject(move string) Status {
	s.mistake = true
	s.logger.Debug("incorrect move", zap.String("move", move), zap.Int("cursor", s.cursor))
	s.emit(IncorrectMove, move)
	return IncorrectMove
}

func (s *Session) scheduleReplay() error {
	if s.delay <= 0 {
		_, err := s.autoPlayNext()
		return err
	}
	s.cancelReplay()
	gen := s.gen
	s.timer = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		if s.gen != gen || s.state != AwaitingReplay {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		if _, err := s.autoPlayNext(); err != nil {
			s.logger.Error("scripted reply failed", zap.Error(err))
		}
		events := s.drain()
		s.mu.Unlock()
		s.notify(events)
	})
	return nil
}

// AutoPlayNext plays the pending scripted reply now, skipping any delay.
// When the move list is exhausted the attempt completes instead and
// SolvedFirstTry or SolvedWithHelp is returned. It is a no-op unless a
// reply is pending.
func (s *Session) AutoPlayNext() (Status, error) {
	s.mu.Lock()
	var (
		st  = Ignored
		err error
	)
	if s.active && s.state == AwaitingReplay {
		s.cancelReplay()
		st, err = s.autoPlayNext()
	}
	events := s.drain()
	s.mu.Unlock()
	s.notify(events)
	return st, err
}

func (s *Session) autoPlayNext() (Status, error) {
	if s.cursor >= len(s.moves) {
		return s.complete(), nil
	}
	m := s.moves[s.cursor]
	if err := s.play(m); err != nil {
		s.active = false
		s.state = Abandoned
		s.logger.Error("scripted move does not fit the board",
			zap.String("move", m.UCI()), zap.Int("cursor", s.cursor), zap.Error(err))
		return Ignored, fmt.Errorf("move %d %s: %v: %w", s.cursor, m.UCI(), err, ErrCorruptSolution)
	}
	if s.cursor >= len(s.moves) {
		// The sequence ended on a scripted move; nothing is left for the player.
		return s.complete(), nil
	}
	s.state = AwaitingPlayerMove
	return Ignored, nil
}

func (s *Session) complete() Status {
	s.active = false
	st := SolvedFirstTry
	s.state = Solved
	if s.mistake || s.hintUsed {
		st = SolvedWithHelp
		s.state = FailedThenSolved
	}
	s.logger.Debug("puzzle complete", zap.Stringer("status", st))
	s.emit(st, "")
	return st
}

// play applies m to the board and keeps the piece index in step with it.
// The cursor advances on success.
func (s *Session) play(m rules.Move) error {
	m = rules.Classify(s.pos, m)
	mover := s.pos.PieceAt(m.From)
	if err := rules.ApplyChecked(s.pos, m); err != nil {
		return err
	}

	victim := m.To
	if m.EnPassant {
		victim = rules.EnPassantVictim(m)
	}
	if p, ok := s.pieces[victim]; ok && p.Color != mover.Color {
		delete(s.pieces, victim)
		s.captured = append(s.captured, p)
	}

	delete(s.pieces, m.From)
	s.pieces[m.To] = s.pos.PieceAt(m.To)
	if m.Castle != rules.NoCastle {
		rookFrom, rookTo := rules.CastleRookSquares(m)
		if rook, ok := s.pieces[rookFrom]; ok {
			delete(s.pieces, rookFrom)
			s.pieces[rookTo] = rook
		}
	}

	s.cursor++
	s.lastMove = m.UCI()
	s.logger.Debug("move applied",
		zap.String("move", s.lastMove),
		zap.Stringer("side", mover.Color),
		zap.Int("cursor", s.cursor))
	return nil
}

// RequestHint returns the expected next player move, unparsed, and marks
// the attempt as helped. It returns false when no player move is pending.
func (s *Session) RequestHint() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.state != AwaitingPlayerMove {
		return "", false
	}
	s.hintUsed = true
	return s.solution.Moves[s.cursor], true
}

// LegalDestinations lists the squares the piece on origin may legally move
// to. It is meant for move highlighting and plays no part in judging.
func (s *Session) LegalDestinations(origin rules.Square) []rules.Square {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos == nil {
		return nil
	}
	var out []rules.Square
	seen := make(map[rules.Square]bool)
	for _, m := range rules.MovesFrom(s.pos, origin) {
		if !seen[m.To] {
			seen[m.To] = true
			out = append(out, m.To)
		}
	}
	return out
}

// NeedsPromotion reports whether moving from origin to target is a pawn
// reaching the last rank, so the caller must supply a promotion kind.
func (s *Session) NeedsPromotion(origin, target rules.Square) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos == nil {
		return false
	}
	return rules.NeedsPromotion(s.pos, origin, target)
}
