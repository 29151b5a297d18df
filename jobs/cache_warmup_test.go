package jobs

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/incroft/staffdir/internal/platform/cache"
	"github.com/incroft/staffdir/internal/users"
)

type warmupRepo struct {
	users.Repository
	calls int
	list  []users.User
}

func (r *warmupRepo) ListAll(ctx context.Context) ([]users.User, error) {
	r.calls++
	return r.list, nil
}

func TestCacheWarmupSkipsWarmCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewCache(client, 0)

	repo := &warmupRepo{list: []users.User{{ID: "u1"}}}
	job := NewCacheWarmup(repo, c, nil, nil)

	task, err := NewCacheWarmupTask(false)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := job.HandleTask(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("calls = %d, want 1", repo.calls)
	}

	// Second run finds the cache warm and never hits the repository.
	if err := job.HandleTask(context.Background(), task); err != nil {
		t.Fatalf("handle again: %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("calls after warm run = %d, want 1", repo.calls)
	}
}

func TestCacheWarmupForceRefreshes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewCache(client, 0)

	repo := &warmupRepo{list: []users.User{{ID: "u1"}, {ID: "u2"}}}
	job := NewCacheWarmup(repo, c, nil, nil)

	forced, err := NewCacheWarmupTask(true)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	for range 2 {
		if err := job.HandleTask(context.Background(), forced); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if repo.calls != 2 {
		t.Fatalf("calls = %d, want 2", repo.calls)
	}

	var cached []users.User
	if !c.Get(context.Background(), "users:all", &cached) {
		t.Fatal("listing not cached")
	}
	if len(cached) != 2 {
		t.Fatalf("cached %d users, want 2", len(cached))
	}
}
