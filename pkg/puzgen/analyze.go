package puzgen

import (
	"fmt"

	"github.com/freeeve/uci"
	"github.com/notnil/chess"
)

// sameMate reports whether cmpRes mates as fast as the mating line baseRes.
func sameMate(baseRes uci.ScoreResult, cmpRes uci.ScoreResult) bool {
	return cmpRes.Mate && baseRes.Score == cmpRes.Score
}

// filterResults keeps the lines that mate as fast as the first one, which
// must be a mate.
func filterResults(results []uci.ScoreResult) []uci.ScoreResult {
	baseRes := results[0]
	filteredResults := make([]uci.ScoreResult, 0)
	for _, item := range results {
		if sameMate(baseRes, item) {
			filteredResults = append(filteredResults, item)
		}
	}
	return filteredResults
}

// forcedMate returns the mating line of the best result when it is a
// unique mate in at most maxMate moves for the side to move.
func forcedMate(results []uci.ScoreResult, maxMate int) (int, []string, bool) {
	if len(results) == 0 {
		return 0, nil, false
	}
	best := results[0]
	if !best.Mate || best.Score < 1 || best.Score > maxMate {
		return 0, nil, false
	}
	if len(filterResults(results)) > 1 {
		// Several first moves mate equally fast.
		return 0, nil, false
	}
	plies := 2*best.Score - 1
	if len(best.BestMoves) < plies {
		return 0, nil, false
	}
	return best.Score, best.BestMoves[:plies], true
}

// checkMateLine plays line on game and reports an error unless it is legal
// and ends in checkmate.
func checkMateLine(game *chess.Game, line []string) error {
	for _, text := range line {
		m, err := chess.UCINotation{}.Decode(game.Position(), text)
		if err != nil {
			return err
		}
		if err := game.Move(m); err != nil {
			return err
		}
	}
	if game.Method() != chess.Checkmate {
		return fmt.Errorf("line %v does not end in mate", line)
	}
	return nil
}
