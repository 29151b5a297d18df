package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*Cache, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCache(client, time.Minute), client
}

func TestCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}
	c.Set(ctx, "users:id:1", payload{Name: "Ada"})

	var got payload
	if !c.Get(ctx, "users:id:1", &got) {
		t.Fatal("expected cache hit")
	}
	if got.Name != "Ada" {
		t.Fatalf("got %q", got.Name)
	}
	if c.Get(ctx, "users:id:2", &got) {
		t.Fatal("unexpected hit for missing key")
	}
}

func TestInvalidatePattern(t *testing.T) {
	c, client := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "users:id:1", 1)
	c.Set(ctx, "users:id:2", 2)
	c.Set(ctx, "category:DEPARTMENT", 3)

	if err := c.InvalidatePattern(ctx, "users:*"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if n, _ := client.Exists(ctx, "users:id:1", "users:id:2").Result(); n != 0 {
		t.Fatalf("expected users keys gone, %d remain", n)
	}
	if n, _ := client.Exists(ctx, "category:DEPARTMENT").Result(); n != 1 {
		t.Fatal("unrelated key was invalidated")
	}
}

func TestKVPutGet(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	kv := NewKV(client)
	ctx := context.Background()

	if err := kv.Put(ctx, "company:profile", []byte(`{"name":"Incroft"}`), time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, err := kv.Get(ctx, "company:profile")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != `{"name":"Incroft"}` {
		t.Fatalf("got %s", data)
	}

	if _, err := kv.Get(ctx, "missing"); err != ErrKeyNotFound {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	mr.FastForward(2 * time.Hour)
	if _, err := kv.Get(ctx, "company:profile"); err != ErrKeyNotFound {
		t.Fatalf("expected expiry, got %v", err)
	}
}
