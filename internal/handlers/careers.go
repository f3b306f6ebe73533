package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/site-edge-go/internal/ats"
	"github.com/serroba/site-edge-go/internal/cache"
	"go.uber.org/zap"
)

// JobSource fetches open positions from the job board.
type JobSource interface {
	ListJobs(ctx context.Context) ([]ats.Job, error)
}

// jobsCacheOptions trades up to thirty minutes of staleness for never
// blocking careers-page renders on the job-board API.
var jobsCacheOptions = cache.Options{
	TTL:                  5 * time.Minute,
	StaleWhileRevalidate: 30 * time.Minute,
}

// CareersHandler serves the careers page data.
type CareersHandler struct {
	source JobSource
	cache  *cache.Service
	logger *zap.Logger
}

// NewCareersHandler creates a careers handler.
func NewCareersHandler(source JobSource, cacheService *cache.Service, logger *zap.Logger) *CareersHandler {
	return &CareersHandler{
		source: source,
		cache:  cacheService,
		logger: logger,
	}
}

// ListJobs returns the open positions, served stale-while-revalidate from
// the cache so the job board's latency and downtime stay off the hot path.
func (h *CareersHandler) ListJobs(ctx context.Context, _ *struct{}) (*JobsResponse, error) {
	key := cache.Key(cache.NamespaceIntegrations, "jobs")

	jobs, err := cache.GetOrFetchStale(ctx, h.cache, key, h.source.ListJobs, jobsCacheOptions)
	if err != nil {
		h.logger.Error("job listings unavailable", zap.Error(err))

		return nil, huma.Error502BadGateway("job listings are temporarily unavailable")
	}

	resp := &JobsResponse{}
	resp.Body.Jobs = jobs

	return resp, nil
}
