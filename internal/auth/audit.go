package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// KVPutter is the audit sink contract: eventual, best-effort delivery.
type KVPutter interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// auditEntry is the JSON record stored for each invalid token attempt.
type auditEntry struct {
	Token     string `json:"token"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

type queuedWrite struct {
	key   string
	value []byte
}

// AuditWriter queues invalid-token records and flushes them to the KV sink
// from a background goroutine. Enqueueing never blocks: when the queue is
// full the record is dropped and counted, since the audit trail is an
// observability path, not a correctness path.
type AuditWriter struct {
	sink      KVPutter
	env       string
	retention time.Duration
	queue     chan queuedWrite
	logger    *slog.Logger
	now       func() time.Time
}

// DefaultAuditRetention bounds how long invalid-token records are kept.
const DefaultAuditRetention = 7 * 24 * time.Hour

// NewAuditWriter constructs an AuditWriter with a bounded queue. Run must be
// started for records to reach the sink.
func NewAuditWriter(sink KVPutter, env string, retention time.Duration, queueSize int, logger *slog.Logger) *AuditWriter {
	if retention <= 0 {
		retention = DefaultAuditRetention
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditWriter{
		sink:      sink,
		env:       env,
		retention: retention,
		queue:     make(chan queuedWrite, queueSize),
		logger:    logger,
		now:       time.Now,
	}
}

// Record enqueues an invalid-token record keyed by
// "invalid-token:<environment>:<timestamp>". It returns immediately.
func (w *AuditWriter) Record(token string, cause error) {
	ts := w.now().UTC().Format(time.RFC3339Nano)
	value, err := json.Marshal(auditEntry{
		Token:     token,
		Error:     cause.Error(),
		Timestamp: ts,
	})
	if err != nil {
		w.logger.Error("marshal audit entry", slog.Any("error", err))
		return
	}
	entry := queuedWrite{key: "invalid-token:" + w.env + ":" + ts, value: value}

	select {
	case w.queue <- entry:
	default:
		w.logger.Warn("audit queue full, dropping invalid-token record", slog.String("key", entry.key))
	}
}

// Run flushes queued records until ctx is cancelled. Entries still queued at
// shutdown are abandoned; a lost audit record is accepted.
func (w *AuditWriter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.queue:
			w.flush(ctx, entry)
		}
	}
}

func (w *AuditWriter) flush(ctx context.Context, entry queuedWrite) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := w.sink.Put(writeCtx, entry.key, entry.value, w.retention); err != nil {
		w.logger.Warn("audit write failed", slog.String("key", entry.key), slog.Any("error", err))
	}
}
