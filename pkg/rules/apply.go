package rules

import "fmt"

// Apply plays m on pos in place. The move is assumed to be valid for the
// position; flags on m are re-derived with Classify, so callers only need
// origin, target and promotion. A pawn reaching the last rank without a
// promotion kind becomes a queen.
func Apply(pos *Position, m Move) {
	m = Classify(pos, m)
	us := pos.Turn
	mover := pos.Board[m.From]
	dir := pawnDirection(us)

	pos.Board[m.From] = Piece{}
	switch {
	case m.EnPassant:
		pos.Board[EnPassantVictim(m)] = Piece{}
	case m.Castle != NoCastle:
		rookFrom, rookTo := CastleRookSquares(m)
		pos.Board[rookTo] = pos.Board[rookFrom]
		pos.Board[rookFrom] = Piece{}
	}

	placed := mover
	if mover.Kind == Pawn && IsPromotionSquare(mover.Color, m.To) {
		promo := m.Promotion
		if promo == NoKind {
			promo = Queen
		}
		placed = Piece{Kind: promo, Color: mover.Color}
	}
	pos.Board[m.To] = placed

	if mover.Kind == King {
		pos.Castling.revoke(us)
	}
	pos.Castling.revokeCorner(m.From)
	pos.Castling.revokeCorner(m.To)

	pos.EnPassant = NoSquare
	if mover.Kind == Pawn {
		if dr := m.To.Rank() - m.From.Rank(); dr == 2 || dr == -2 {
			pos.EnPassant = m.From.Offset(0, dir)
		}
	}

	if mover.Kind == Pawn || m.Capture {
		pos.HalfmoveClock = 0
	} else {
		pos.HalfmoveClock++
	}
	if us == Black {
		pos.FullmoveNumber++
	}
	pos.Turn = us.Opposite()
}

// ApplyChecked applies m after a structural sanity check: the origin must
// hold a piece of the side to move and the target must not hold one of its
// own pieces or a king. It does not test full legality.
func ApplyChecked(pos *Position, m Move) error {
	mover := pos.PieceAt(m.From)
	if mover.IsZero() || mover.Color != pos.Turn {
		return fmt.Errorf("%s: no %s piece on %s: %w", m.UCI(), pos.Turn, m.From, ErrIllegalScriptedMove)
	}
	target := pos.PieceAt(m.To)
	if !target.IsZero() && (target.Color == pos.Turn || target.Kind == King) {
		return fmt.Errorf("%s: cannot capture %s on %s: %w", m.UCI(), target, m.To, ErrIllegalScriptedMove)
	}
	if m.Promotion != NoKind && !NeedsPromotion(pos, m.From, m.To) {
		return fmt.Errorf("%s: promotion without a pawn reaching the last rank: %w", m.UCI(), ErrIllegalScriptedMove)
	}
	Apply(pos, m)
	return nil
}
