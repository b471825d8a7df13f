// Package fen tokenizes Forsyth-Edwards board descriptions.
//
// The codec only splits and checks the six fields. Decoding the piece
// placement into squares is left to the rules package.
package fen

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// StartPos is the standard initial position.
const StartPos = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var ErrMalformed = errors.New("malformed FEN")

var fenPattern = regexp.MustCompile(
	`^([pnbrqkPNBRQK1-8/]+) ([wb]) (-|K?Q?k?q?) (-|[a-h][36]) (\d+) (\d+)$`,
)

// Parsed holds the six FEN fields.
type Parsed struct {
	Placement      string
	ActiveColor    string
	Castling       string
	EnPassant      string
	HalfmoveClock  int
	FullmoveNumber int
}

// Parse splits a FEN string into its fields. No partial result is returned
// on failure.
func Parse(s string) (Parsed, error) {
	m := fenPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Parsed{}, fmt.Errorf("%q: %w", s, ErrMalformed)
	}
	if m[3] == "" {
		return Parsed{}, fmt.Errorf("%q: empty castling field: %w", s, ErrMalformed)
	}

	halfmove, err := strconv.Atoi(m[5])
	if err != nil {
		return Parsed{}, fmt.Errorf("%q: halfmove clock: %w", s, ErrMalformed)
	}
	fullmove, err := strconv.Atoi(m[6])
	if err != nil || fullmove < 1 {
		return Parsed{}, fmt.Errorf("%q: fullmove number must be positive: %w", s, ErrMalformed)
	}

	return Parsed{
		Placement:      m[1],
		ActiveColor:    m[2],
		Castling:       m[3],
		EnPassant:      m[4],
		HalfmoveClock:  halfmove,
		FullmoveNumber: fullmove,
	}, nil
}

// Ranks returns the placement field split into rank strings, rank 8 first.
func (p Parsed) Ranks() []string {
	return strings.Split(p.Placement, "/")
}

func (p Parsed) String() string {
	return fmt.Sprintf("%s %s %s %s %d %d",
		p.Placement, p.ActiveColor, p.Castling, p.EnPassant, p.HalfmoveClock, p.FullmoveNumber)
}
