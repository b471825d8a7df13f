package puzgen

const (
	defaultElo = 1500
	minRating  = 400
)

func eloCoeff(elo int) int {
	if elo >= 2400 {
		return 10
	}
	if elo >= 2000 {
		return 20
	}
	return 40
}

// EstimateRating places a mate-in-n puzzle relative to the player who had
// it on the board. A mate in two sits at their rating; each extra move adds
// five K-factors of their strength band, a mate in one takes five away.
func EstimateRating(mateIn, playerElo int) int {
	if playerElo <= 0 {
		playerElo = defaultElo
	}
	r := playerElo + 5*eloCoeff(playerElo)*(mateIn-2)
	if r < minRating {
		return minRating
	}
	return r
}

// lengthTheme is the Lichess length tag for a mate in n.
func lengthTheme(n int) string {
	switch {
	case n == 1:
		return "oneMove"
	case n == 2:
		return "short"
	case n <= 4:
		return "long"
	default:
		return "veryLong"
	}
}
