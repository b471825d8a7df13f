package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/gmkornilov/chess-puzzle-trainer/pkg/puzgen"
	"github.com/gmkornilov/chess-puzzle-trainer/pkg/puzzle"
)

const lichessURL = "https://lichess.org"

type LichessGameScraperFactory struct {
	NewEngine EngineFactory
	Sink      puzzle.Sink
	Depth     int
	BaseURL   string
	Client    *http.Client
	Logger    *zap.Logger
}

func NewLichessGameScraperFactory(newEngine EngineFactory, sink puzzle.Sink, depth int, logger *zap.Logger) *LichessGameScraperFactory {
	return &LichessGameScraperFactory{
		NewEngine: newEngine,
		Sink:      sink,
		Depth:     depth,
		BaseURL:   lichessURL,
		Client:    http.DefaultClient,
		Logger:    logger,
	}
}

// CreateLichessScraper prepares a job over the user's last games.
func (f *LichessGameScraperFactory) CreateLichessScraper(nickname string, last int) *LichessGameScraper {
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LichessGameScraper{
		nickname:  nickname,
		last:      last,
		newEngine: f.NewEngine,
		sink:      f.Sink,
		depth:     f.Depth,
		baseURL:   f.BaseURL,
		client:    f.Client,
		logger:    logger.With(zap.String("lichess_user", nickname)),
	}
}

// LichessGameScraper downloads a user's games from lichess and stores the
// mate puzzles found in them.
type LichessGameScraper struct {
	mu       sync.Mutex
	puzzles  []puzzle.Puzzle
	err      error
	done     bool
	analyzed int
	total    int

	nickname  string
	last      int
	newEngine EngineFactory
	sink      puzzle.Sink
	depth     int
	baseURL   string
	client    *http.Client
	logger    *zap.Logger
}

func (l *LichessGameScraper) Done() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

func (l *LichessGameScraper) StartWork(ctx context.Context) {
	go l.Scrap(ctx)
}

func (l *LichessGameScraper) Result() []puzzle.Puzzle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.puzzles
}

func (l *LichessGameScraper) Error() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Progress is the share of downloaded games already analyzed.
func (l *LichessGameScraper) Progress() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return 1
	}
	if l.total == 0 {
		return 0
	}
	return float64(l.analyzed) / float64(l.total)
}

func (l *LichessGameScraper) finish(puzzles []puzzle.Puzzle, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.puzzles = puzzles
	l.err = err
	l.done = true
	if err != nil {
		l.logger.Warn("scrape failed", zap.Error(err))
	} else {
		l.logger.Info("scrape finished", zap.Int("puzzles", len(puzzles)))
	}
}

func (l *LichessGameScraper) gamesURL() string {
	q := url.Values{}
	q.Set("max", strconv.Itoa(l.last))
	q.Set("moves", "true")
	q.Set("tags", "true")
	return fmt.Sprintf("%s/api/games/user/%s?%s", l.baseURL, url.PathEscape(l.nickname), q.Encode())
}

// Scrap runs the job to completion.
func (l *LichessGameScraper) Scrap(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.gamesURL(), nil)
	if err != nil {
		l.finish(nil, err)
		return
	}
	req.Header.Set("Accept", "application/x-chess-pgn")
	resp, err := l.client.Do(req)
	if err != nil {
		l.finish(nil, fmt.Errorf("error fetching %s games: %w", l.nickname, err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		l.finish(nil, fmt.Errorf("user %s doesn't exist on lichess", l.nickname))
		return
	}
	if resp.StatusCode != http.StatusOK {
		l.finish(nil, fmt.Errorf("lichess answered %s", resp.Status))
		return
	}

	games, err := puzgen.ReadGames(resp.Body)
	if err != nil {
		l.finish(nil, fmt.Errorf("error reading %s games: %w", l.nickname, err))
		return
	}
	l.mu.Lock()
	l.total = len(games)
	l.mu.Unlock()

	analyzer, release, err := l.newEngine()
	if err != nil {
		l.finish(nil, fmt.Errorf("starting engine: %w", err))
		return
	}
	defer release()
	gen := puzgen.NewGenerator(analyzer, puzgen.WithDepth(l.depth), puzgen.WithLogger(l.logger))

	res := make([]puzzle.Puzzle, 0)
	for _, game := range games {
		if err := ctx.Err(); err != nil {
			l.finish(nil, err)
			return
		}
		found, err := gen.FromGame(game)
		if err != nil {
			l.finish(nil, fmt.Errorf("error generating puzzles: %w", err))
			return
		}
		res = append(res, found...)
		l.mu.Lock()
		l.analyzed++
		l.mu.Unlock()
	}

	if err := l.sink.InsertMany(ctx, res); err != nil {
		l.finish(nil, fmt.Errorf("error saving puzzles: %w", err))
		return
	}
	l.finish(res, nil)
}
