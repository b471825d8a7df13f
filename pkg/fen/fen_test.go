package fen

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want Parsed
	}{
		{
			name: "initial position",
			fen:  StartPos,
			want: Parsed{
				Placement:      "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR",
				ActiveColor:    "w",
				Castling:       "KQkq",
				EnPassant:      "-",
				HalfmoveClock:  0,
				FullmoveNumber: 1,
			},
		},
		{
			name: "after 1.e4",
			fen:  "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
			want: Parsed{
				Placement:      "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR",
				ActiveColor:    "b",
				Castling:       "KQkq",
				EnPassant:      "e3",
				HalfmoveClock:  0,
				FullmoveNumber: 1,
			},
		},
		{
			name: "partial castling and clocks",
			fen:  "r3k2r/8/8/8/8/8/8/R3K2R b Kq - 12 40",
			want: Parsed{
				Placement:      "r3k2r/8/8/8/8/8/8/R3K2R",
				ActiveColor:    "b",
				Castling:       "Kq",
				EnPassant:      "-",
				HalfmoveClock:  12,
				FullmoveNumber: 40,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.fen)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
			if got.String() != tt.fen {
				t.Errorf("String() = %q, want %q", got.String(), tt.fen)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		fen  string
	}{
		{"empty", ""},
		{"missing fields", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq"},
		{"bad color", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1"},
		{"bad castling", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KX - 0 1"},
		{"castling out of order", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w qK - 0 1"},
		{"bad en passant rank", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e4 0 1"},
		{"negative halfmove", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - -1 1"},
		{"zero fullmove", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 0"},
		{"bad piece letter", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNX w KQkq - 0 1"},
		{"trailing field", StartPos + " extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.fen)
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("Parse() error = %v, want ErrMalformed", err)
			}
			if diff := cmp.Diff(Parsed{}, got); diff != "" {
				t.Errorf("Parse() returned partial result:\n%s", diff)
			}
		})
	}
}

func TestRanks(t *testing.T) {
	p, err := Parse(StartPos)
	if err != nil {
		t.Fatal(err)
	}
	ranks := p.Ranks()
	if len(ranks) != 8 {
		t.Fatalf("Ranks() len = %d, want 8", len(ranks))
	}
	if ranks[0] != "rnbqkbnr" || ranks[7] != "RNBQKBNR" {
		t.Errorf("Ranks() = %v", ranks)
	}
}
