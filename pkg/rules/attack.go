package rules

type offset [2]int

var (
	knightOffsets   = []offset{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	diagonalOffsets = []offset{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	straightOffsets = []offset{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	royalOffsets    = append(append([]offset{}, diagonalOffsets...), straightOffsets...)
)

// capability describes how a non-pawn kind moves: a set of offsets that are
// either stepped once or slid along until blocked.
type capability struct {
	offsets []offset
	slides  bool
}

var capabilities = [...]capability{
	Knight: {offsets: knightOffsets},
	Bishop: {offsets: diagonalOffsets, slides: true},
	Rook:   {offsets: straightOffsets, slides: true},
	Queen:  {offsets: royalOffsets, slides: true},
	King:   {offsets: royalOffsets},
}

// pawnDirection is the rank delta of a pawn advance.
func pawnDirection(c Color) int {
	if c == White {
		return 1
	}
	return -1
}

// IsAttacked reports whether sq is attacked by any piece of color by.
func IsAttacked(pos *Position, sq Square, by Color) bool {
	// Pawns attack diagonally forward, so look one rank behind sq from by's side.
	pawn := Piece{Kind: Pawn, Color: by}
	dir := pawnDirection(by)
	for _, df := range []int{-1, 1} {
		if pos.PieceAt(sq.Offset(df, -dir)) == pawn {
			return true
		}
	}

	for _, kind := range []Kind{Knight, King} {
		attacker := Piece{Kind: kind, Color: by}
		for _, o := range capabilities[kind].offsets {
			if pos.PieceAt(sq.Offset(o[0], o[1])) == attacker {
				return true
			}
		}
	}

	if slidingAttack(pos, sq, by, diagonalOffsets, Bishop) {
		return true
	}
	return slidingAttack(pos, sq, by, straightOffsets, Rook)
}

// slidingAttack walks each ray from sq and reports whether the first piece
// met is a queen or the given slider of color by.
func slidingAttack(pos *Position, sq Square, by Color, rays []offset, slider Kind) bool {
	for _, o := range rays {
		for cur := sq.Offset(o[0], o[1]); cur.Valid(); cur = cur.Offset(o[0], o[1]) {
			p := pos.Board[cur]
			if p.IsZero() {
				continue
			}
			if p.Color == by && (p.Kind == slider || p.Kind == Queen) {
				return true
			}
			break
		}
	}
	return false
}

// InCheck reports whether the king of color c is attacked.
func InCheck(pos *Position, c Color) bool {
	king := pos.KingSquare(c)
	if king == NoSquare {
		return false
	}
	return IsAttacked(pos, king, c.Opposite())
}
