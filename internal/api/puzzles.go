package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gmkornilov/chess-puzzle-trainer/pkg/puzzle"
)

// CatalogApi serves catalog metadata and user statistics.
type CatalogApi struct {
	Catalog  puzzle.Catalog
	Progress puzzle.ProgressStore
}

func NewCatalogApi(catalog puzzle.Catalog, progress puzzle.ProgressStore) *CatalogApi {
	return &CatalogApi{Catalog: catalog, Progress: progress}
}

func (c *CatalogApi) Register(r gin.IRouter) {
	r.GET("/puzzles/themes", c.Themes)
	r.GET("/puzzles/rating-range", c.RatingRange)
	r.GET("/users/:user/stats", c.Stats)
	r.DELETE("/users/:user/stats", c.ResetStats)
}

func (c *CatalogApi) Themes(ctx *gin.Context) {
	themes, err := c.Catalog.Themes(ctx.Request.Context())
	if err != nil {
		ctx.Error(err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"themes": themes})
}

func (c *CatalogApi) RatingRange(ctx *gin.Context) {
	lo, hi, err := c.Catalog.RatingRange(ctx.Request.Context())
	if errors.Is(err, puzzle.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "catalog is empty"})
		return
	}
	if err != nil {
		ctx.Error(err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"min": lo, "max": hi})
}

func (c *CatalogApi) Stats(ctx *gin.Context) {
	stats, err := c.Progress.Stats(ctx.Request.Context(), ctx.Param("user"))
	if err != nil {
		ctx.Error(err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, stats)
}

func (c *CatalogApi) ResetStats(ctx *gin.Context) {
	if err := c.Progress.Reset(ctx.Request.Context(), ctx.Param("user")); err != nil {
		ctx.Error(err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}
