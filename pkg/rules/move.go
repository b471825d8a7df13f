package rules

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidMove indicates move text that is not UCI notation.
	ErrInvalidMove = errors.New("invalid move notation")

	// ErrIllegalScriptedMove indicates a move that cannot be applied to the
	// position at all, such as one starting from an empty square.
	ErrIllegalScriptedMove = errors.New("move not applicable to position")
)

// Move is a chess move. From, To and Promotion fully determine it; the
// remaining flags are derived from the position by Classify.
type Move struct {
	From      Square
	To        Square
	Promotion Kind

	Capture   bool
	EnPassant bool
	Castle    CastleSide
}

// ParseUCI decodes "e2e4" or "e7e8q". The promotion letter may be given in
// either case.
func ParseUCI(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("%q: %w", s, ErrInvalidMove)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return Move{}, fmt.Errorf("%q: %v: %w", s, err, ErrInvalidMove)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("%q: %v: %w", s, err, ErrInvalidMove)
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		k, ok := KindFromLetter(s[4])
		if !ok || k == Pawn || k == King {
			return Move{}, fmt.Errorf("%q: bad promotion piece: %w", s, ErrInvalidMove)
		}
		m.Promotion = k
	}
	return m, nil
}

// UCI encodes the move with a lowercase promotion letter.
func (m Move) UCI() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoKind {
		s += string(m.Promotion.Letter())
	}
	return s
}

func (m Move) String() string {
	return m.UCI()
}

// SameAs compares moves by origin, target and promotion only.
func (m Move) SameAs(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

// Classify fills in the capture, castle and en-passant flags of m from the
// position it is about to be played in. Castling is recognized as a king
// moving two files along its rank; en passant as a pawn moving diagonally
// onto the en-passant target.
func Classify(pos *Position, m Move) Move {
	m.Capture, m.EnPassant, m.Castle = false, false, NoCastle

	mover := pos.PieceAt(m.From)
	target := pos.PieceAt(m.To)
	if !target.IsZero() && target.Color != mover.Color {
		m.Capture = true
	}

	switch mover.Kind {
	case King:
		df := m.To.File() - m.From.File()
		if m.From.Rank() == m.To.Rank() && (df == 2 || df == -2) {
			if df > 0 {
				m.Castle = Kingside
			} else {
				m.Castle = Queenside
			}
		}
	case Pawn:
		if m.To == pos.EnPassant && m.To.File() != m.From.File() && target.IsZero() {
			m.EnPassant = true
			m.Capture = true
		}
	}
	return m
}

// EnPassantVictim is the square of the pawn taken by an en-passant capture:
// beside the origin, one rank behind the target.
func EnPassantVictim(m Move) Square {
	return NewSquare(m.To.File(), m.From.Rank())
}

// CastleRookSquares returns where the rook starts and lands for a castling
// move of the king.
func CastleRookSquares(m Move) (from, to Square) {
	if m.To.File() > m.From.File() {
		return NewSquare(7, m.From.Rank()), NewSquare(5, m.From.Rank())
	}
	return NewSquare(0, m.From.Rank()), NewSquare(3, m.From.Rank())
}

// IsPromotionSquare reports whether a pawn of color c arriving on sq must
// promote.
func IsPromotionSquare(c Color, sq Square) bool {
	if c == White {
		return sq.Rank() == 7
	}
	return sq.Rank() == 0
}

// NeedsPromotion reports whether moving the piece on from to to is a pawn
// reaching the last rank.
func NeedsPromotion(pos *Position, from, to Square) bool {
	p := pos.PieceAt(from)
	return p.Kind == Pawn && IsPromotionSquare(p.Color, to)
}

// FormatMoves renders moves as space separated UCI text.
func FormatMoves(moves []Move) string {
	parts := make([]string, len(moves))
	for i, m := range moves {
		parts[i] = m.UCI()
	}
	return strings.Join(parts, " ")
}
