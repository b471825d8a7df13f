package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/gmkornilov/chess-puzzle-trainer/pkg/puzgen"
	"github.com/gmkornilov/chess-puzzle-trainer/pkg/puzzle"
)

// LiveLichessScraper follows the lichess TV feed and stores a puzzle
// whenever a featured player blunders into a forced mate.
type LiveLichessScraper struct {
	generator *puzgen.Generator
	sink      puzzle.Sink
	client    *http.Client
	feedURL   string
	logger    *zap.Logger

	gameID   string
	elo      map[string]int
	prevFEN  string
	inserted int
}

func NewLiveLichessScraper(gen *puzgen.Generator, sink puzzle.Sink, logger *zap.Logger) *LiveLichessScraper {
	return &LiveLichessScraper{
		generator: gen,
		sink:      sink,
		client:    http.DefaultClient,
		feedURL:   lichessURL + "/api/tv/feed",
		logger:    logger,
	}
}

// Inserted counts puzzles stored so far.
func (l *LiveLichessScraper) Inserted() int {
	return l.inserted
}

// Main reads the feed until ctx is cancelled, reconnecting whenever
// lichess closes the stream.
func (l *LiveLichessScraper) Main(ctx context.Context) error {
	for {
		err := l.follow(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return err
		}
		l.logger.Info("feed closed, reconnecting")
	}
}

func (l *LiveLichessScraper) follow(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.feedURL, nil)
	if err != nil {
		return err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feed answered %s", resp.Status)
	}
	return l.consume(ctx, resp.Body)
}

func (l *LiveLichessScraper) consume(ctx context.Context, r io.Reader) error {
	d := json.NewDecoder(r)
	for d.More() {
		var cur feedMessage
		if err := d.Decode(&cur); err != nil {
			return fmt.Errorf("decode feed message: %w", err)
		}
		if err := l.handle(ctx, cur); err != nil {
			return err
		}
	}
	return nil
}

func (l *LiveLichessScraper) handle(ctx context.Context, msg feedMessage) error {
	switch msg.Type {
	case "featured":
		var game featuredGame
		if err := json.Unmarshal(msg.Data, &game); err != nil {
			return fmt.Errorf("featured message: %w", err)
		}
		l.gameID = game.ID
		l.elo = make(map[string]int, 2)
		for _, p := range game.Players {
			l.elo[p.Color] = p.Rating
		}
		l.prevFEN = fullFEN(game.FEN)
		l.logger.Info("new featured game", zap.String("game", game.ID), zap.String("fen", game.FEN))

	case "fen":
		var update moveUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			return fmt.Errorf("fen message: %w", err)
		}
		next := fullFEN(update.FEN)
		prev := l.prevFEN
		l.prevFEN = next
		if prev == "" || update.LastMove == "" {
			return nil
		}

		solver := "white"
		if strings.HasSuffix(update.FEN, " b") {
			solver = "black"
		}
		p, ok, err := l.generator.FromMove(prev, update.LastMove, l.elo[solver])
		if errors.Is(err, puzgen.ErrUnplayable) {
			// Positions rebuilt from the feed lack castling rights, so some
			// moves cannot be replayed.
			l.logger.Debug("position skipped", zap.String("fen", prev), zap.Error(err))
			return nil
		}
		if err != nil {
			return fmt.Errorf("analyzing %s: %w", update.LastMove, err)
		}
		if !ok {
			return nil
		}
		if l.gameID != "" {
			p.GameURL = lichessURL + "/" + l.gameID
		}
		if err := l.sink.InsertMany(ctx, []puzzle.Puzzle{p}); err != nil {
			return fmt.Errorf("saving puzzle: %w", err)
		}
		l.inserted++
		l.logger.Info("generated puzzle", zap.String("puzzle", p.ID), zap.String("themes", p.Themes))

	default:
		l.logger.Warn("unknown feed message type", zap.String("type", msg.Type))
	}
	return nil
}

// fullFEN pads the feed's placement and side to move into a complete FEN.
func fullFEN(feed string) string {
	if strings.Count(feed, " ") >= 5 {
		return feed
	}
	if !strings.Contains(feed, " ") {
		feed += " w"
	}
	return feed + " - - 0 1"
}
