// Package api exposes the trainer over HTTP.
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gmkornilov/chess-puzzle-trainer/internal/logging"
)

// Registrar adds its routes to a router.
type Registrar interface {
	Register(r gin.IRouter)
}

// NewRouter builds the gin engine with request logging and panic recovery.
// A nil registrar is skipped.
func NewRouter(logger *zap.Logger, apis ...Registrar) *gin.Engine {
	r := gin.New()
	r.Use(logging.Middleware(logger), gin.Recovery())
	for _, a := range apis {
		if a != nil {
			a.Register(r)
		}
	}
	return r
}
