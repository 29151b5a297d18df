package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAuditDigest summarises recent invalid-token audit records.
	TaskTypeAuditDigest = "token:audit_digest"
	// TaskTypeCacheWarmup pre-populates the directory listing cache.
	TaskTypeCacheWarmup = "directory:cache_warmup"
)

// AuditDigestPayload selects which environment's audit records to digest.
type AuditDigestPayload struct {
	Env string `json:"env"`
}

// NewAuditDigestTask constructs an audit digest task.
func NewAuditDigestTask(env string) (*asynq.Task, error) {
	data, err := json.Marshal(AuditDigestPayload{Env: env})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditDigest, data, asynq.Queue(QueueDefault)), nil
}

// CacheWarmupPayload contains options for the warmup job.
type CacheWarmupPayload struct {
	Force bool `json:"force"`
}

// NewCacheWarmupTask builds a cache warmup task.
func NewCacheWarmupTask(force bool) (*asynq.Task, error) {
	data, err := json.Marshal(CacheWarmupPayload{Force: force})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeCacheWarmup, data, asynq.Queue(QueueDefault)), nil
}
