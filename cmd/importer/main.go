// Command importer fills the puzzle collection from the Lichess puzzle
// database export, from PGN games analyzed with Stockfish, from a lichess
// user's recent games or by following the lichess TV feed.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/gmkornilov/chess-puzzle-trainer/internal/config"
	"github.com/gmkornilov/chess-puzzle-trainer/internal/dao"
	"github.com/gmkornilov/chess-puzzle-trainer/internal/db"
	"github.com/gmkornilov/chess-puzzle-trainer/internal/logging"
	"github.com/gmkornilov/chess-puzzle-trainer/internal/scraper"
	"github.com/gmkornilov/chess-puzzle-trainer/pkg/puzgen"
	"github.com/gmkornilov/chess-puzzle-trainer/pkg/puzzle"
)

const batchSize = 1000

func main() {
	csvPath := flag.String("csv", "", "Lichess puzzle database CSV to import")
	pgnPath := flag.String("pgn", "", "PGN file to mine for mate puzzles")
	live := flag.Bool("live", false, "follow the lichess TV feed")
	user := flag.String("user", "", "lichess user whose recent games to mine")
	last := flag.Int("last", 20, "number of games to fetch with -user")
	flag.Parse()

	cfg, err := config.InitConfig()
	if err != nil {
		panic(err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.NewDbClient(ctx, cfg)
	if err != nil {
		logger.Fatal("connecting to mongo", zap.Error(err))
	}
	defer dbClient.Close(context.Background())
	repo := dao.NewPuzzleRepository(dbClient, cfg.Database.Timeout)

	switch {
	case *csvPath != "":
		err = importCSV(ctx, *csvPath, repo, logger)
	case *pgnPath != "":
		err = importPGN(ctx, cfg, *pgnPath, repo, logger)
	case *live:
		err = followLive(ctx, cfg, repo, logger)
	case *user != "":
		err = importUser(ctx, cfg, *user, *last, repo, logger)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil && ctx.Err() == nil {
		logger.Fatal("import failed", zap.Error(err))
	}
	if err := repo.EnsureIndexes(context.Background()); err != nil {
		logger.Warn("creating indexes", zap.Error(err))
	}
}

func importCSV(ctx context.Context, path string, sink puzzle.Sink, logger *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	batch := make([]puzzle.Puzzle, 0, batchSize)
	total := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := sink.InsertMany(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		logger.Info("imported", zap.Int("puzzles", total))
		batch = batch[:0]
		return nil
	}

	err = puzzle.ReadLichessCSV(f, func(p puzzle.Puzzle) error {
		batch = append(batch, p)
		if len(batch) == batchSize {
			return flush()
		}
		return ctx.Err()
	})
	if err != nil {
		return err
	}
	return flush()
}

func importPGN(ctx context.Context, cfg *config.Configuration, path string, sink puzzle.Sink, logger *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	engine, err := puzgen.NewEngine(cfg.Stockfish.Path, cfg.Stockfish.Args...)
	if err != nil {
		return err
	}
	defer engine.Close()
	gen := puzgen.NewGenerator(engine, puzgen.WithDepth(cfg.Stockfish.Depth), puzgen.WithLogger(logger))

	games, err := puzgen.ReadGames(f)
	if err != nil {
		return err
	}
	for i, game := range games {
		if err := ctx.Err(); err != nil {
			return err
		}
		puzzles, err := gen.FromGame(game)
		if err != nil {
			return err
		}
		if err := sink.InsertMany(ctx, puzzles); err != nil {
			return err
		}
		logger.Info("game analyzed", zap.Int("game", i+1), zap.Int("puzzles", len(puzzles)))
	}
	return nil
}

func followLive(ctx context.Context, cfg *config.Configuration, sink puzzle.Sink, logger *zap.Logger) error {
	engine, err := puzgen.NewEngine(cfg.Stockfish.Path, cfg.Stockfish.Args...)
	if err != nil {
		return err
	}
	defer engine.Close()
	gen := puzgen.NewGenerator(engine, puzgen.WithDepth(cfg.Stockfish.Depth), puzgen.WithLogger(logger))
	return scraper.NewLiveLichessScraper(gen, sink, logger).Main(ctx)
}

func importUser(ctx context.Context, cfg *config.Configuration, user string, last int, sink puzzle.Sink, logger *zap.Logger) error {
	engines := scraper.StockfishFactory(cfg.Stockfish.Path, cfg.Stockfish.Args...)
	job := scraper.NewLichessGameScraperFactory(engines, sink, cfg.Stockfish.Depth, logger).
		CreateLichessScraper(user, last)
	job.Scrap(ctx)
	if err := job.Error(); err != nil {
		return err
	}
	logger.Info("user games analyzed", zap.String("user", user), zap.Int("puzzles", len(job.Result())))
	return nil
}
