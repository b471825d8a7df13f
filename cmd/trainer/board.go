package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gmkornilov/chess-puzzle-trainer/pkg/rules"
)

type boardStyles struct {
	light   lipgloss.Style
	dark    lipgloss.Style
	white   lipgloss.Style
	black   lipgloss.Style
	label   lipgloss.Style
	message lipgloss.Style
	failure lipgloss.Style
}

func newBoardStyles(r *lipgloss.Renderer) boardStyles {
	square := r.NewStyle().Padding(0, 1)
	return boardStyles{
		light:   square.Copy().Background(lipgloss.Color("#EEEED2")),
		dark:    square.Copy().Background(lipgloss.Color("#769656")),
		white:   r.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true),
		black:   r.NewStyle().Foreground(lipgloss.Color("#000000")).Bold(true),
		label:   r.NewStyle().Foreground(lipgloss.Color("#888888")),
		message: r.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		failure: r.NewStyle().Foreground(lipgloss.Color("#FF0000")),
	}
}

// renderBoard draws pos from the given side's point of view, rank labels on
// the left and file labels underneath.
func renderBoard(st boardStyles, pos *rules.Position, side rules.Color) string {
	rows := make([]string, 0, 9)
	for i := 0; i < 8; i++ {
		rank := 7 - i
		if side == rules.Black {
			rank = i
		}
		cells := []string{st.label.Render(string(rune('1'+rank)) + " ")}
		for j := 0; j < 8; j++ {
			file := j
			if side == rules.Black {
				file = 7 - j
			}
			cells = append(cells, renderSquare(st, pos, rules.NewSquare(file, rank)))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	files := make([]string, 8)
	for j := range files {
		file := j
		if side == rules.Black {
			file = 7 - j
		}
		files[j] = " " + string(rune('a'+file)) + " "
	}
	rows = append(rows, st.label.Render("  "+strings.Join(files, "")))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderSquare(st boardStyles, pos *rules.Position, sq rules.Square) string {
	bg := st.dark
	if (sq.File()+sq.Rank())%2 == 1 {
		bg = st.light
	}
	p := pos.PieceAt(sq)
	if p.IsZero() {
		return bg.Render(".")
	}
	fg := st.white
	if p.Color == rules.Black {
		fg = st.black
	}
	return bg.Render(fg.Render(string(p.Letter())))
}
