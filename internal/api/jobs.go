package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gmkornilov/chess-puzzle-trainer/internal/scraper"
)

// JobApi starts puzzle generation jobs over lichess games and reports
// their status.
type JobApi struct {
	WorkerFactory *scraper.LichessGameScraperFactory
	ctx           context.Context
	activeJobs    map[string]scraper.Worker
	mu            sync.RWMutex
}

// NewJobApi creates the API. Jobs run under ctx and stop when it is
// cancelled.
func NewJobApi(ctx context.Context, factory *scraper.LichessGameScraperFactory) *JobApi {
	return &JobApi{
		WorkerFactory: factory,
		ctx:           ctx,
		activeJobs:    make(map[string]scraper.Worker),
	}
}

func (j *JobApi) Register(r gin.IRouter) {
	r.POST("/scrape/:username", j.StartTask)
	r.GET("/jobs/:job_id", j.GetJobStatus)
}

func (j *JobApi) StartTask(ctx *gin.Context) {
	name := ctx.Param("username")
	lastStr := ctx.DefaultQuery("last", "20")
	last, err := strconv.Atoi(lastStr)
	if err != nil || last <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "last should be positive integer",
		})
		return
	}

	worker := j.WorkerFactory.CreateLichessScraper(name, last)
	id := uuid.NewString()

	j.mu.Lock()
	j.activeJobs[id] = worker
	j.mu.Unlock()

	worker.StartWork(j.ctx)
	ctx.JSON(http.StatusAccepted, gin.H{
		"job_id": id,
	})
}

func (j *JobApi) GetJobStatus(ctx *gin.Context) {
	id := ctx.Param("job_id")
	j.mu.RLock()
	worker, ok := j.activeJobs[id]
	j.mu.RUnlock()
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	done := worker.Done()
	if !done {
		ctx.JSON(http.StatusOK, gin.H{
			"done":     false,
			"progress": worker.Progress(),
		})
		return
	}

	j.mu.Lock()
	delete(j.activeJobs, id)
	j.mu.Unlock()
	if err := worker.Error(); err != nil {
		ctx.JSON(http.StatusOK, gin.H{
			"done":  true,
			"error": err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"done":   true,
		"result": worker.Result(),
	})
}
