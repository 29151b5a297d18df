package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	jobmetrics "github.com/incroft/staffdir/internal/jobs"
	"github.com/incroft/staffdir/internal/shared"
)

// AuditDigest periodically summarises the invalid-token audit records the
// verifier wrote to Redis, so operators see failure trends without scraping
// raw keys.
type AuditDigest struct {
	client  *redis.Client
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewAuditDigest constructs the digest job. Metrics may be nil.
func NewAuditDigest(client *redis.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditDigest {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditDigest{client: client, logger: logger, metrics: metrics}
}

// DigestSummary aggregates audit records by failure kind.
type DigestSummary struct {
	Env     string
	Total   int
	Expired int
	Invalid int
}

type auditEntry struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

// Summarise scans every audit record for the environment and counts failures
// by kind.
func (d *AuditDigest) Summarise(ctx context.Context, env string) (*DigestSummary, error) {
	summary := &DigestSummary{Env: env}
	iter := d.client.Scan(ctx, 0, "invalid-token:"+env+":*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := d.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			// Entries expire mid-scan; skip them.
			continue
		}
		var entry auditEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		summary.Total++
		if strings.Contains(entry.Error, "expired") {
			summary.Expired++
		} else {
			summary.Invalid++
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("jobs: audit digest scan: %w", err)
	}
	return summary, nil
}

// HandleTask processes TaskTypeAuditDigest tasks.
func (d *AuditDigest) HandleTask(ctx context.Context, t *asynq.Task) error {
	tracker := d.metrics.Track(TaskTypeAuditDigest)
	var payload AuditDigestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	summary, err := d.Summarise(ctx, payload.Env)
	if err != nil {
		return tracker.End(err)
	}
	d.metrics.AddAuditEntries(shared.CodeTokenExpired, summary.Expired)
	d.metrics.AddAuditEntries(shared.CodeUnauthorized, summary.Invalid)
	d.logger.Info("invalid token digest",
		slog.String("env", summary.Env),
		slog.Int("total", summary.Total),
		slog.Int("expired", summary.Expired),
		slog.Int("invalid_signature", summary.Invalid))
	return tracker.End(nil)
}
