// Command trainer plays puzzles from a Lichess puzzle CSV in the terminal.
//
// Type moves in UCI notation (e2e4, e7e8q). Other commands: hint, next,
// stats, filter <min> <max> [theme], quit.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/gmkornilov/chess-puzzle-trainer/internal/logging"
	"github.com/gmkornilov/chess-puzzle-trainer/internal/notation"
	"github.com/gmkornilov/chess-puzzle-trainer/internal/trainer"
	"github.com/gmkornilov/chess-puzzle-trainer/pkg/puzzle"
	"github.com/gmkornilov/chess-puzzle-trainer/pkg/session"
)

func main() {
	csvPath := flag.String("csv", "", "Lichess puzzle database CSV")
	user := flag.String("user", "local", "name to keep statistics under")
	logLevel := flag.String("log", "warn", "log level")
	flag.Parse()
	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := logging.New(*logLevel, false)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	catalog := puzzle.NewMemory(nil)
	f, err := os.Open(*csvPath)
	if err != nil {
		logger.Fatal("opening puzzles", zap.Error(err))
	}
	err = puzzle.ReadLichessCSV(f, func(p puzzle.Puzzle) error {
		catalog.Add(p)
		return nil
	})
	f.Close()
	if err != nil {
		logger.Fatal("reading puzzles", zap.Error(err))
	}

	t, err := trainer.New(catalog, puzzle.NewMemoryProgress(), *user, trainer.WithLogger(logger))
	if err != nil {
		logger.Fatal("starting trainer", zap.Error(err))
	}

	c := &console{
		t:      t,
		styles: newBoardStyles(lipgloss.DefaultRenderer()),
		out:    os.Stdout,
	}
	fmt.Fprintf(c.out, "%d puzzles loaded\n", catalog.Len())
	c.run(context.Background(), os.Stdin)
}

type console struct {
	t      *trainer.Trainer
	styles boardStyles
	out    io.Writer
}

func (c *console) run(ctx context.Context, in io.Reader) {
	c.next(ctx)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "exit":
			if err := c.t.Abandon(ctx); err != nil {
				c.fail(err)
			}
			return
		case "next":
			c.next(ctx)
		case "hint":
			c.hint()
		case "stats":
			c.stats(ctx)
		case "filter":
			c.filter(ctx, fields[1:])
		default:
			c.move(fields[0])
		}
	}
}

func (c *console) next(ctx context.Context) {
	st, err := c.t.Next(ctx)
	if err != nil {
		c.fail(err)
		return
	}
	if st == session.NoPuzzleAvailable {
		c.say("no puzzle matches the current filter")
		return
	}
	if p, ok := c.t.Current(); ok {
		c.say(fmt.Sprintf("puzzle %s, rating %d, %s to move", p.ID, p.Rating, c.t.Session().PlayerColor()))
	}
	c.board()
}

func (c *console) move(text string) {
	st, err := c.t.Submit(text)
	if err != nil {
		c.fail(err)
		return
	}
	switch st {
	case session.Ignored:
		c.say("no move expected, type next")
		return
	case session.IncorrectMove:
		c.fail(fmt.Errorf("%s is not the move", text))
		return
	case session.CorrectMove:
		c.say("correct")
	}
	c.board()
	switch c.t.Session().State() {
	case session.Solved:
		c.say("solved")
	case session.FailedThenSolved:
		c.say("solved with help")
	}
}

func (c *console) hint() {
	move, ok := c.t.Hint()
	if !ok {
		c.say("no move expected")
		return
	}
	if san, err := notation.SAN(c.t.Session().View().FEN, move); err == nil {
		move = san
	}
	c.say("try " + move)
}

func (c *console) stats(ctx context.Context) {
	s, err := c.t.Stats(ctx)
	if err != nil {
		c.fail(err)
		return
	}
	c.say(fmt.Sprintf("%d played, %d solved cleanly (%.0f%%)", s.Played, s.Solved, 100*s.SolveRate))
	for _, ts := range s.MostPlayed {
		fmt.Fprintf(c.out, "  %-16s %d/%d\n", ts.Theme, ts.Solved, ts.Played)
	}
}

func (c *console) filter(ctx context.Context, args []string) {
	if len(args) == 0 {
		c.t.ClearFilters()
		c.say("filter cleared")
		return
	}
	if len(args) < 2 {
		c.fail(fmt.Errorf("usage: filter <min> <max> [theme]"))
		return
	}
	lo, err := strconv.Atoi(args[0])
	if err != nil {
		c.fail(err)
		return
	}
	hi, err := strconv.Atoi(args[1])
	if err != nil {
		c.fail(err)
		return
	}
	f := puzzle.Filter{MinRating: puzzle.Bound(lo), MaxRating: puzzle.Bound(hi)}
	if len(args) > 2 {
		f.Theme = args[2]
	}
	if err := c.t.SetFilters(ctx, f); err != nil {
		c.fail(err)
		return
	}
	c.say("filter set")
}

func (c *console) board() {
	pos := c.t.Session().Position()
	if pos == nil {
		return
	}
	fmt.Fprintln(c.out, renderBoard(c.styles, pos, c.t.Session().PlayerColor()))
}

func (c *console) say(msg string) {
	fmt.Fprintln(c.out, c.styles.message.Render(msg))
}

func (c *console) fail(err error) {
	fmt.Fprintln(c.out, c.styles.failure.Render(err.Error()))
}
