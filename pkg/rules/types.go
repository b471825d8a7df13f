// Package rules holds the authoritative board state of a puzzle and
// implements chess legality: move generation, check detection and move
// application including castling, en passant and promotion.
package rules

import "fmt"

// Color is the side a piece belongs to.
type Color int8

const (
	White Color = iota
	Black
)

// Opposite returns the other color.
func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Letter returns the FEN active-color letter.
func (c Color) Letter() string {
	if c == White {
		return "w"
	}
	return "b"
}

// Kind is a piece type. The zero Kind marks an empty square.
type Kind int8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindLetters = [...]byte{NoKind: ' ', Pawn: 'p', Knight: 'n', Bishop: 'b', Rook: 'r', Queen: 'q', King: 'k'}

var kindNames = [...]string{NoKind: "none", Pawn: "pawn", Knight: "knight", Bishop: "bishop", Rook: "rook", Queen: "queen", King: "king"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Letter returns the lowercase letter of the kind.
func (k Kind) Letter() byte {
	if int(k) < len(kindLetters) {
		return kindLetters[k]
	}
	return '?'
}

// KindFromLetter maps a piece letter of either case to its kind.
func KindFromLetter(c byte) (Kind, bool) {
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	for k := Pawn; k <= King; k++ {
		if kindLetters[k] == c {
			return k, true
		}
	}
	return NoKind, false
}

// PromotionKinds lists the kinds a pawn may promote to.
var PromotionKinds = [...]Kind{Queen, Rook, Bishop, Knight}

// Piece is an immutable (kind, color) value. The zero Piece is an empty square.
type Piece struct {
	Kind  Kind
	Color Color
}

// IsZero reports whether the piece denotes an empty square.
func (p Piece) IsZero() bool {
	return p.Kind == NoKind
}

// Letter returns the FEN letter: uppercase for White, lowercase for Black.
func (p Piece) Letter() byte {
	l := p.Kind.Letter()
	if p.Color == White {
		return l - ('a' - 'A')
	}
	return l
}

func (p Piece) String() string {
	if p.IsZero() {
		return "empty"
	}
	return p.Color.String() + " " + p.Kind.String()
}

// PieceFromLetter decodes a FEN piece letter.
func PieceFromLetter(c byte) (Piece, bool) {
	k, ok := KindFromLetter(c)
	if !ok {
		return Piece{}, false
	}
	color := Black
	if c >= 'A' && c <= 'Z' {
		color = White
	}
	return Piece{Kind: k, Color: color}, true
}

// Square indexes the board in White's frame: a1 = 0, h1 = 7, h8 = 63.
type Square int8

// NoSquare marks an absent square, such as a missing en-passant target.
const NoSquare Square = -1

// Corner and king home squares.
const (
	A1 Square = 0
	E1 Square = 4
	H1 Square = 7
	A8 Square = 56
	E8 Square = 60
	H8 Square = 63
)

// NewSquare builds a square from 0-based file and rank.
func NewSquare(file, rank int) Square {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare
	}
	return Square(rank*8 + file)
}

func (s Square) File() int { return int(s) % 8 }

func (s Square) Rank() int { return int(s) / 8 }

// Valid reports whether s is on the board.
func (s Square) Valid() bool {
	return s >= 0 && s < 64
}

// Offset returns the square df files and dr ranks away, or NoSquare when
// that leaves the board.
func (s Square) Offset(df, dr int) Square {
	return NewSquare(s.File()+df, s.Rank()+dr)
}

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// ParseSquare decodes algebraic coordinates such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return NoSquare, fmt.Errorf("invalid square %q", s)
	}
	return NewSquare(int(s[0]-'a'), int(s[1]-'1')), nil
}

// CastleSide tells which side a castling move goes to.
type CastleSide int8

const (
	NoCastle CastleSide = iota
	Kingside
	Queenside
)

func (c CastleSide) String() string {
	switch c {
	case Kingside:
		return "kingside"
	case Queenside:
		return "queenside"
	}
	return "none"
}

// CastlingRights holds the four independent castling flags.
type CastlingRights struct {
	WhiteKingside  bool
	WhiteQueenside bool
	BlackKingside  bool
	BlackQueenside bool
}

// Has reports whether color may still castle to side.
func (r CastlingRights) Has(c Color, side CastleSide) bool {
	switch {
	case c == White && side == Kingside:
		return r.WhiteKingside
	case c == White && side == Queenside:
		return r.WhiteQueenside
	case c == Black && side == Kingside:
		return r.BlackKingside
	case c == Black && side == Queenside:
		return r.BlackQueenside
	}
	return false
}

func (r *CastlingRights) revoke(c Color) {
	if c == White {
		r.WhiteKingside, r.WhiteQueenside = false, false
	} else {
		r.BlackKingside, r.BlackQueenside = false, false
	}
}

// revokeCorner drops the right tied to the rook home square sq, if any.
func (r *CastlingRights) revokeCorner(sq Square) {
	switch sq {
	case A1:
		r.WhiteQueenside = false
	case H1:
		r.WhiteKingside = false
	case A8:
		r.BlackQueenside = false
	case H8:
		r.BlackKingside = false
	}
}

func (r CastlingRights) String() string {
	s := ""
	if r.WhiteKingside {
		s += "K"
	}
	if r.WhiteQueenside {
		s += "Q"
	}
	if r.BlackKingside {
		s += "k"
	}
	if r.BlackQueenside {
		s += "q"
	}
	if s == "" {
		return "-"
	}
	return s
}
