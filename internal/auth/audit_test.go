package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/incroft/staffdir/internal/platform/cache"
)

func TestAuditWriterFlushesToSink(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	writer := NewAuditWriter(cache.NewKV(client), "DEV", 7*24*time.Hour, 16, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = writer.Run(ctx) }()

	writer.Record("bad.token", errors.New("signature is invalid"))

	var keys []string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		keys = client.Keys(context.Background(), "invalid-token:DEV:*").Val()
		if len(keys) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(keys) != 1 {
		t.Fatalf("expected exactly one audit key, got %v", keys)
	}
	if !strings.HasPrefix(keys[0], "invalid-token:DEV:") {
		t.Fatalf("key = %q", keys[0])
	}
	if _, err := time.Parse(time.RFC3339Nano, strings.TrimPrefix(keys[0], "invalid-token:DEV:")); err != nil {
		t.Fatalf("key timestamp not RFC3339: %v", err)
	}

	raw := client.Get(context.Background(), keys[0]).Val()
	var entry struct {
		Token     string `json:"token"`
		Error     string `json:"error"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		t.Fatalf("unmarshal entry: %v", err)
	}
	if entry.Token != "bad.token" || entry.Error != "signature is invalid" {
		t.Fatalf("entry = %+v", entry)
	}

	ttl := mr.TTL(keys[0])
	if ttl <= 0 || ttl > 7*24*time.Hour {
		t.Fatalf("ttl = %v, want (0, 7d]", ttl)
	}
}

func TestAuditWriterDropsWhenQueueFull(t *testing.T) {
	// No Run loop draining the queue: the second record must be dropped
	// without blocking.
	writer := NewAuditWriter(stuckSink{}, "DEV", time.Hour, 1, slog.Default())

	done := make(chan struct{})
	go func() {
		writer.Record("first", errors.New("invalid"))
		writer.Record("second", errors.New("invalid"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full queue")
	}
}
