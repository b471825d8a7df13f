// Package notation renders UCI moves as standard algebraic notation.
package notation

import (
	"fmt"

	"github.com/notnil/chess"
)

// SAN converts a UCI move played from the position fen, e.g. "g1f3" to
// "Nf3".
func SAN(fen, uciMove string) (string, error) {
	fenOpt, err := chess.FEN(fen)
	if err != nil {
		return "", err
	}
	pos := chess.NewGame(fenOpt).Position()
	m, err := decode(pos, uciMove)
	if err != nil {
		return "", err
	}
	return chess.AlgebraicNotation{}.Encode(pos, m), nil
}

// decode returns the legal move of pos matching text, which carries the
// check and capture tags SAN needs.
func decode(pos *chess.Position, text string) (*chess.Move, error) {
	m, err := chess.UCINotation{}.Decode(pos, text)
	if err != nil {
		return nil, err
	}
	for _, valid := range pos.ValidMoves() {
		if valid.S1() == m.S1() && valid.S2() == m.S2() && valid.Promo() == m.Promo() {
			return valid, nil
		}
	}
	return nil, fmt.Errorf("illegal move %s", text)
}

// Line converts a sequence of UCI moves starting at fen. Conversion stops
// at the first move that does not fit the board.
func Line(fen string, uciMoves []string) ([]string, error) {
	fenOpt, err := chess.FEN(fen)
	if err != nil {
		return nil, err
	}
	game := chess.NewGame(fenOpt)
	out := make([]string, 0, len(uciMoves))
	for _, text := range uciMoves {
		pos := game.Position()
		m, err := decode(pos, text)
		if err != nil {
			return out, err
		}
		out = append(out, chess.AlgebraicNotation{}.Encode(pos, m))
		if err := game.Move(m); err != nil {
			return out[:len(out)-1], err
		}
	}
	return out, nil
}
