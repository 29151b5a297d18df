package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/incroft/staffdir/internal/jobs"
	"github.com/incroft/staffdir/internal/platform/cache"
	"github.com/incroft/staffdir/internal/users"
)

// CacheWarmup refills the directory listing cache after invalidations so the
// first reader of the day does not pay the database round trip.
type CacheWarmup struct {
	repo    users.Repository
	cache   *cache.Cache
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewCacheWarmup constructs the warmup job. Metrics may be nil.
func NewCacheWarmup(repo users.Repository, c *cache.Cache, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheWarmup {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheWarmup{repo: repo, cache: c, logger: logger, metrics: metrics}
}

// HandleTask processes TaskTypeCacheWarmup tasks.
func (c *CacheWarmup) HandleTask(ctx context.Context, t *asynq.Task) error {
	tracker := c.metrics.Track(TaskTypeCacheWarmup)
	var payload CacheWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	if !payload.Force {
		var existing []users.User
		if c.cache.Get(ctx, "users:all", &existing) {
			return tracker.End(nil)
		}
	}

	list, err := c.repo.ListAll(ctx)
	if err != nil {
		return tracker.End(err)
	}
	c.cache.Set(ctx, "users:all", list)
	c.logger.Info("directory cache warmed", slog.Int("users", len(list)))
	return tracker.End(nil)
}
