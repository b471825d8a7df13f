package puzzle

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gmkornilov/chess-puzzle-trainer/pkg/session"
)

// ErrBadRecord marks a CSV row that cannot be turned into a Puzzle.
var ErrBadRecord = errors.New("bad puzzle record")

var lichessColumns = []string{
	"PuzzleId", "FEN", "Moves", "Rating", "RatingDeviation",
	"Popularity", "NbPlays", "Themes", "GameUrl",
}

// ReadLichessCSV streams the Lichess puzzle database export, calling fn for
// every row. A header row is required; extra trailing columns such as
// OpeningTags are ignored. Reading stops at the first error, including one
// returned by fn.
func ReadLichessCSV(r io.Reader, fn func(Puzzle) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	for i, name := range lichessColumns {
		if i >= len(header) || !strings.EqualFold(strings.TrimSpace(header[i]), name) {
			return fmt.Errorf("header column %d: want %s: %w", i, name, ErrBadRecord)
		}
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		p, err := parseLichessRecord(rec)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(p); err != nil {
			return err
		}
	}
}

func parseLichessRecord(rec []string) (Puzzle, error) {
	if len(rec) < len(lichessColumns)-1 {
		return Puzzle{}, fmt.Errorf("%d columns: %w", len(rec), ErrBadRecord)
	}
	moves := strings.Fields(rec[2])
	if len(moves) < 2 {
		return Puzzle{}, fmt.Errorf("puzzle %s: %d moves: %w", rec[0], len(moves), ErrBadRecord)
	}
	// The board and the setup move must be playable, not just well formed.
	if err := session.Check(session.Solution{FEN: rec[1], Moves: moves}); err != nil {
		return Puzzle{}, fmt.Errorf("puzzle %s: %w: %w", rec[0], err, ErrBadRecord)
	}

	ints := make([]int, 4)
	for i := range ints {
		v, err := strconv.Atoi(rec[3+i])
		if err != nil {
			return Puzzle{}, fmt.Errorf("puzzle %s: column %s: %v: %w", rec[0], lichessColumns[3+i], err, ErrBadRecord)
		}
		ints[i] = v
	}

	p := Puzzle{
		ID:              rec[0],
		FEN:             rec[1],
		Moves:           moves,
		Rating:          ints[0],
		RatingDeviation: ints[1],
		Popularity:      ints[2],
		NbPlays:         ints[3],
		Themes:          rec[7],
	}
	if len(rec) > 8 {
		p.GameURL = rec[8]
	}
	return p, nil
}
