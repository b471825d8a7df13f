package rules

// Outcome is the game-theoretic state of a position.
type Outcome int

const (
	Ongoing Outcome = iota
	Checkmate
	Stalemate
)

func (o Outcome) String() string {
	switch o {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	}
	return "ongoing"
}

// OutcomeOf reports whether the side to move is mated or stalemated.
func OutcomeOf(pos *Position) Outcome {
	if len(LegalMoves(pos)) > 0 {
		return Ongoing
	}
	if InCheck(pos, pos.Turn) {
		return Checkmate
	}
	return Stalemate
}

// Perft counts the leaf nodes of the legal move tree to the given depth.
func Perft(pos *Position, depth int) int {
	if depth == 0 {
		return 1
	}
	moves := LegalMoves(pos)
	if depth == 1 {
		return len(moves)
	}
	nodes := 0
	for _, m := range moves {
		c := pos.Copy()
		Apply(c, m)
		nodes += Perft(c, depth-1)
	}
	return nodes
}
