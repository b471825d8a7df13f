package rules

import (
	"fmt"
	"strings"

	"github.com/gmkornilov/chess-puzzle-trainer/pkg/fen"
)

// Position is the full board state: placement, side to move, castling
// rights, en-passant target and the two clocks.
type Position struct {
	Board          [64]Piece
	Turn           Color
	Castling       CastlingRights
	EnPassant      Square
	HalfmoveClock  int
	FullmoveNumber int
}

// Setup decodes a tokenized FEN into a position. Ranks are read from rank 8
// down to rank 1. Any placement that cannot be decoded, or that lacks
// exactly one king per color, is reported as fen.ErrMalformed.
func Setup(p fen.Parsed) (*Position, error) {
	pos := &Position{
		EnPassant:      NoSquare,
		HalfmoveClock:  p.HalfmoveClock,
		FullmoveNumber: p.FullmoveNumber,
	}

	ranks := p.Ranks()
	if len(ranks) != 8 {
		return nil, fmt.Errorf("placement has %d ranks: %w", len(ranks), fen.ErrMalformed)
	}
	kings := [2]int{}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			piece, ok := PieceFromLetter(c)
			if !ok {
				return nil, fmt.Errorf("invalid piece character %q: %w", c, fen.ErrMalformed)
			}
			if file > 7 {
				return nil, fmt.Errorf("rank %d overflows: %w", rank+1, fen.ErrMalformed)
			}
			if piece.Kind == King {
				kings[piece.Color]++
			}
			pos.Board[NewSquare(file, rank)] = piece
			file++
		}
		if file != 8 {
			return nil, fmt.Errorf("rank %d has %d files: %w", rank+1, file, fen.ErrMalformed)
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return nil, fmt.Errorf("need one king per side, got %d white and %d black: %w",
			kings[White], kings[Black], fen.ErrMalformed)
	}

	if p.ActiveColor == "b" {
		pos.Turn = Black
	}

	pos.Castling = CastlingRights{
		WhiteKingside:  strings.ContainsRune(p.Castling, 'K'),
		WhiteQueenside: strings.ContainsRune(p.Castling, 'Q'),
		BlackKingside:  strings.ContainsRune(p.Castling, 'k'),
		BlackQueenside: strings.ContainsRune(p.Castling, 'q'),
	}

	if p.EnPassant != "-" {
		sq, err := ParseSquare(p.EnPassant)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, fen.ErrMalformed)
		}
		pos.EnPassant = sq
	}
	return pos, nil
}

// FromFEN parses and sets up a position in one step.
func FromFEN(s string) (*Position, error) {
	p, err := fen.Parse(s)
	if err != nil {
		return nil, err
	}
	return Setup(p)
}

// Copy returns an independent copy of the position.
func (pos *Position) Copy() *Position {
	c := *pos
	return &c
}

// PieceAt returns the piece on sq, or the zero Piece when empty.
func (pos *Position) PieceAt(sq Square) Piece {
	if !sq.Valid() {
		return Piece{}
	}
	return pos.Board[sq]
}

// KingSquare finds the king of color c.
func (pos *Position) KingSquare(c Color) Square {
	king := Piece{Kind: King, Color: c}
	for sq := Square(0); sq < 64; sq++ {
		if pos.Board[sq] == king {
			return sq
		}
	}
	return NoSquare
}

// Placement encodes the piece placement field.
func (pos *Position) Placement() string {
	var b strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			p := pos.Board[NewSquare(file, rank)]
			if p.IsZero() {
				empty++
				continue
			}
			if empty > 0 {
				b.WriteByte(byte('0' + empty))
				empty = 0
			}
			b.WriteByte(p.Letter())
		}
		if empty > 0 {
			b.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			b.WriteByte('/')
		}
	}
	return b.String()
}

// Fields returns the position as tokenized FEN fields.
func (pos *Position) Fields() fen.Parsed {
	return fen.Parsed{
		Placement:      pos.Placement(),
		ActiveColor:    pos.Turn.Letter(),
		Castling:       pos.Castling.String(),
		EnPassant:      pos.EnPassant.String(),
		HalfmoveClock:  pos.HalfmoveClock,
		FullmoveNumber: pos.FullmoveNumber,
	}
}

// FEN serializes the position.
func (pos *Position) FEN() string {
	return pos.Fields().String()
}
