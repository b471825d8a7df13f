package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gmkornilov/chess-puzzle-trainer/internal/api"
	"github.com/gmkornilov/chess-puzzle-trainer/internal/config"
	"github.com/gmkornilov/chess-puzzle-trainer/internal/dao"
	"github.com/gmkornilov/chess-puzzle-trainer/internal/db"
	"github.com/gmkornilov/chess-puzzle-trainer/internal/logging"
	"github.com/gmkornilov/chess-puzzle-trainer/internal/scraper"
	"github.com/gmkornilov/chess-puzzle-trainer/internal/trainer"
	"github.com/gmkornilov/chess-puzzle-trainer/pkg/puzzle"
)

func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.NewDbClient(ctx, cfg)
	if err != nil {
		logger.Fatal("connecting to mongo", zap.Error(err))
	}
	defer dbClient.Close(context.Background())

	puzzleRepo := dao.NewPuzzleRepository(dbClient, cfg.Database.Timeout)
	if err := puzzleRepo.EnsureIndexes(ctx); err != nil {
		logger.Warn("creating indexes", zap.Error(err))
	}
	progressRepo := dao.NewProgressRepository(dbClient, cfg.Database.Timeout)
	catalog := puzzle.Cached(puzzleRepo)

	sessions := api.NewSessionApi(func(user string) (*trainer.Trainer, error) {
		return trainer.New(catalog, progressRepo, user,
			trainer.WithLogger(logger),
			trainer.WithReplayDelay(cfg.Trainer.ReplayDelay))
	}, logger)

	engines := scraper.StockfishFactory(cfg.Stockfish.Path, cfg.Stockfish.Args...)
	factory := scraper.NewLichessGameScraperFactory(engines, catalog.Invalidating(puzzleRepo), cfg.Stockfish.Depth, logger)
	jobs := api.NewJobApi(ctx, factory)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: api.NewRouter(logger, sessions, api.NewCatalogApi(catalog, progressRepo), jobs),
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	sessions.AbandonAll(shutdownCtx)
}
