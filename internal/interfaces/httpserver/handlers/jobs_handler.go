package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/janhq/jan-imagegen/internal/infrastructure/imageapi"
	"github.com/janhq/jan-imagegen/internal/interfaces/httpserver/responses"
)

const queueStatsKey = "queue_stats"

// JobsHandler serves backend queue statistics, cached for a short TTL.
type JobsHandler struct {
	backend Backend
	cache   *cache.Cache
	log     zerolog.Logger
}

func NewJobsHandler(backend Backend, ttl time.Duration, log zerolog.Logger) *JobsHandler {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	// Expired entries are dropped on read; no janitor goroutine.
	return &JobsHandler{backend: backend, cache: cache.New(ttl, cache.NoExpiration), log: log}
}

// Stats returns cached queue stats, refreshing them when expired.
func (h *JobsHandler) Stats(ctx context.Context) (*imageapi.QueueStats, error) {
	if v, ok := h.cache.Get(queueStatsKey); ok {
		return v.(*imageapi.QueueStats), nil
	}
	stats, err := h.backend.QueueStats(ctx)
	if err != nil {
		return nil, err
	}
	h.cache.SetDefault(queueStatsKey, stats)
	return stats, nil
}

// Get handles GET /api/v1/jobs.
func (h *JobsHandler) Get(c *gin.Context) {
	stats, err := h.Stats(c.Request.Context())
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, stats)
}
