package rules

// LegalMoves returns every legal move for the side to move. The order of
// the result carries no meaning.
func LegalMoves(pos *Position) []Move {
	pseudo := pseudoMoves(pos)
	legal := pseudo[:0]
	for _, m := range pseudo {
		if leavesKingSafe(pos, m) {
			legal = append(legal, m)
		}
	}
	return legal
}

// MovesFrom returns the legal moves starting on sq.
func MovesFrom(pos *Position, sq Square) []Move {
	var out []Move
	for _, m := range LegalMoves(pos) {
		if m.From == sq {
			out = append(out, m)
		}
	}
	return out
}

// IsLegal reports whether m, compared by origin, target and promotion, is
// among the legal moves.
func IsLegal(pos *Position, m Move) bool {
	for _, lm := range MovesFrom(pos, m.From) {
		if lm.SameAs(m) {
			return true
		}
	}
	return false
}

// leavesKingSafe plays m on a copy and checks the mover's king.
func leavesKingSafe(pos *Position, m Move) bool {
	c := pos.Copy()
	Apply(c, m)
	return !InCheck(c, pos.Turn)
}

func pseudoMoves(pos *Position) []Move {
	moves := make([]Move, 0, 48)
	us := pos.Turn
	for sq := Square(0); sq < 64; sq++ {
		p := pos.Board[sq]
		if p.IsZero() || p.Color != us {
			continue
		}
		switch p.Kind {
		case Pawn:
			moves = pawnMoves(pos, sq, moves)
		case King:
			moves = pieceMoves(pos, sq, capabilities[King], moves)
			moves = castleMoves(pos, sq, moves)
		default:
			moves = pieceMoves(pos, sq, capabilities[p.Kind], moves)
		}
	}
	return moves
}

func pieceMoves(pos *Position, from Square, cp capability, moves []Move) []Move {
	us := pos.Turn
	for _, o := range cp.offsets {
		for to := from.Offset(o[0], o[1]); to.Valid(); to = to.Offset(o[0], o[1]) {
			target := pos.Board[to]
			if target.IsZero() {
				moves = append(moves, Move{From: from, To: to})
			} else {
				if target.Color != us {
					moves = append(moves, Move{From: from, To: to, Capture: true})
				}
				break
			}
			if !cp.slides {
				break
			}
		}
	}
	return moves
}

func pawnMoves(pos *Position, from Square, moves []Move) []Move {
	us := pos.Turn
	dir := pawnDirection(us)
	startRank := 1
	if us == Black {
		startRank = 6
	}

	one := from.Offset(0, dir)
	if one.Valid() && pos.Board[one].IsZero() {
		moves = appendPawnMove(moves, Move{From: from, To: one}, us)
		two := one.Offset(0, dir)
		if from.Rank() == startRank && two.Valid() && pos.Board[two].IsZero() {
			moves = append(moves, Move{From: from, To: two})
		}
	}

	for _, df := range []int{-1, 1} {
		to := from.Offset(df, dir)
		if !to.Valid() {
			continue
		}
		target := pos.Board[to]
		switch {
		case !target.IsZero() && target.Color != us:
			moves = appendPawnMove(moves, Move{From: from, To: to, Capture: true}, us)
		case target.IsZero() && to == pos.EnPassant:
			// The captured pawn sits beside the mover, one rank behind the target.
			victim := to.Offset(0, -dir)
			if pos.PieceAt(victim) == (Piece{Kind: Pawn, Color: us.Opposite()}) {
				moves = append(moves, Move{From: from, To: to, Capture: true, EnPassant: true})
			}
		}
	}
	return moves
}

// appendPawnMove expands a move onto the last rank into the four
// promotions; a bare push or capture onto that rank is never produced.
func appendPawnMove(moves []Move, m Move, us Color) []Move {
	if !IsPromotionSquare(us, m.To) {
		return append(moves, m)
	}
	for _, k := range PromotionKinds {
		pm := m
		pm.Promotion = k
		moves = append(moves, pm)
	}
	return moves
}

func castleMoves(pos *Position, from Square, moves []Move) []Move {
	us := pos.Turn
	home := E1
	if us == Black {
		home = E8
	}
	if from != home || InCheck(pos, us) {
		return moves
	}
	rook := Piece{Kind: Rook, Color: us}
	them := us.Opposite()

	if pos.Castling.Has(us, Kingside) && pos.PieceAt(home.Offset(3, 0)) == rook {
		f, g := home.Offset(1, 0), home.Offset(2, 0)
		if pos.Board[f].IsZero() && pos.Board[g].IsZero() &&
			!IsAttacked(pos, f, them) && !IsAttacked(pos, g, them) {
			moves = append(moves, Move{From: home, To: g, Castle: Kingside})
		}
	}
	if pos.Castling.Has(us, Queenside) && pos.PieceAt(home.Offset(-4, 0)) == rook {
		d, c, b := home.Offset(-1, 0), home.Offset(-2, 0), home.Offset(-3, 0)
		if pos.Board[d].IsZero() && pos.Board[c].IsZero() && pos.Board[b].IsZero() &&
			!IsAttacked(pos, d, them) && !IsAttacked(pos, c, them) {
			moves = append(moves, Move{From: home, To: c, Castle: Queenside})
		}
	}
	return moves
}
