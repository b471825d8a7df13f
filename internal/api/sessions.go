package api

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gmkornilov/chess-puzzle-trainer/internal/notation"
	"github.com/gmkornilov/chess-puzzle-trainer/internal/trainer"
	"github.com/gmkornilov/chess-puzzle-trainer/pkg/puzzle"
	"github.com/gmkornilov/chess-puzzle-trainer/pkg/rules"
	"github.com/gmkornilov/chess-puzzle-trainer/pkg/session"
)

var ErrSessionNotFound = errors.New("session not found")

// TrainerFactory builds a trainer for a user.
type TrainerFactory func(user string) (*trainer.Trainer, error)

// SessionApi keeps running puzzle sessions keyed by a random id.
type SessionApi struct {
	newTrainer TrainerFactory
	logger     *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*trainer.Trainer
}

func NewSessionApi(newTrainer TrainerFactory, logger *zap.Logger) *SessionApi {
	return &SessionApi{
		newTrainer: newTrainer,
		logger:     logger,
		sessions:   make(map[string]*trainer.Trainer),
	}
}

func (s *SessionApi) Register(r gin.IRouter) {
	r.POST("/sessions", s.Create)
	r.GET("/sessions/:id", s.Get)
	r.DELETE("/sessions/:id", s.Delete)
	r.POST("/sessions/:id/moves", s.Move)
	r.POST("/sessions/:id/next", s.Next)
	r.POST("/sessions/:id/hint", s.Hint)
	r.GET("/sessions/:id/destinations/:square", s.Destinations)
}

type createRequest struct {
	User      string `json:"user" binding:"required"`
	MinRating *int   `json:"min_rating"`
	MaxRating *int   `json:"max_rating"`
	Theme     string `json:"theme"`
}

type moveRequest struct {
	Move string `json:"move" binding:"required"`
}

type sessionResponse struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
	session.View
	PuzzleID string `json:"puzzle_id,omitempty"`
	Rating   int    `json:"rating,omitempty"`
	Themes   string `json:"themes,omitempty"`
}

func (s *SessionApi) lookup(id string) (*trainer.Trainer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return t, nil
}

func (s *SessionApi) respond(ctx *gin.Context, code int, id string, t *trainer.Trainer, st string) {
	res := sessionResponse{ID: id, Status: st, View: t.Session().View()}
	if p, ok := t.Current(); ok {
		res.PuzzleID = p.ID
		res.Rating = p.Rating
		res.Themes = p.Themes
	}
	ctx.JSON(code, res)
}

func (s *SessionApi) trainerFor(ctx *gin.Context) (string, *trainer.Trainer, bool) {
	id := ctx.Param("id")
	t, err := s.lookup(id)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return "", nil, false
	}
	return id, t, true
}

// Create starts a session for a user with optional filters and loads the
// first puzzle.
func (s *SessionApi) Create(ctx *gin.Context) {
	var req createRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := s.newTrainer(req.User)
	if err != nil {
		ctx.Error(err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	f := puzzle.Filter{MinRating: req.MinRating, MaxRating: req.MaxRating, Theme: req.Theme}
	if err := t.SetFilters(ctx.Request.Context(), f); err != nil {
		ctx.Error(err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	st, err := t.Next(ctx.Request.Context())
	if err != nil {
		ctx.Error(err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if st == session.NoPuzzleAvailable {
		ctx.JSON(http.StatusNotFound, gin.H{"status": st, "error": puzzle.ErrNotFound.Error()})
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = t
	s.mu.Unlock()
	s.logger.Info("session created", zap.String("session", id), zap.String("user", req.User))
	s.respond(ctx, http.StatusCreated, id, t, st.String())
}

func (s *SessionApi) Get(ctx *gin.Context) {
	id, t, ok := s.trainerFor(ctx)
	if !ok {
		return
	}
	s.respond(ctx, http.StatusOK, id, t, "")
}

// Delete abandons the puzzle and forgets the session.
func (s *SessionApi) Delete(ctx *gin.Context) {
	id, t, ok := s.trainerFor(ctx)
	if !ok {
		return
	}
	if err := t.Abandon(ctx.Request.Context()); err != nil {
		ctx.Error(err)
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	ctx.Status(http.StatusNoContent)
}

func (s *SessionApi) Move(ctx *gin.Context) {
	id, t, ok := s.trainerFor(ctx)
	if !ok {
		return
	}
	var req moveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := t.Submit(req.Move)
	switch {
	case errors.Is(err, rules.ErrInvalidMove):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, session.ErrCorruptSolution):
		ctx.Error(err)
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"status": st, "error": err.Error()})
		return
	case err != nil:
		ctx.Error(err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.respond(ctx, http.StatusOK, id, t, st.String())
}

// Next loads another puzzle into an existing session.
func (s *SessionApi) Next(ctx *gin.Context) {
	id, t, ok := s.trainerFor(ctx)
	if !ok {
		return
	}
	st, err := t.Next(ctx.Request.Context())
	if err != nil {
		ctx.Error(err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.respond(ctx, http.StatusOK, id, t, st.String())
}

func (s *SessionApi) Hint(ctx *gin.Context) {
	_, t, ok := s.trainerFor(ctx)
	if !ok {
		return
	}
	fen := t.Session().View().FEN
	move, ok := t.Hint()
	if !ok {
		ctx.JSON(http.StatusConflict, gin.H{"error": "no move expected from the player"})
		return
	}
	res := gin.H{"move": move}
	if san, err := notation.SAN(fen, move); err == nil {
		res["san"] = san
	}
	ctx.JSON(http.StatusOK, res)
}

func (s *SessionApi) Destinations(ctx *gin.Context) {
	_, t, ok := s.trainerFor(ctx)
	if !ok {
		return
	}
	origin, err := rules.ParseSquare(ctx.Param("square"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	squares := make([]string, 0)
	for _, sq := range t.Destinations(origin) {
		squares = append(squares, sq.String())
	}
	ctx.JSON(http.StatusOK, gin.H{"squares": squares})
}

// AbandonAll stops every session, recording attempted puzzles. Used on
// shutdown.
func (s *SessionApi) AbandonAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.sessions {
		if err := t.Abandon(ctx); err != nil {
			s.logger.Warn("abandon on shutdown", zap.String("session", id), zap.Error(err))
		}
		delete(s.sessions, id)
	}
}
