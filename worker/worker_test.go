package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// --- Pool ---

func TestPoolRunsEnqueuedJobs(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}

	pool := NewPool(context.Background(), 2, 10, func(_ context.Context, jobID string) {
		mu.Lock()
		seen[jobID] = true
		mu.Unlock()
	})

	for _, id := range []string{"a", "b", "c"} {
		if err := pool.Enqueue(context.Background(), id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := pool.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}

	if len(seen) != 3 {
		t.Errorf("expected 3 jobs handled, got %d", len(seen))
	}
}

func TestPoolQueueFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	pool := NewPool(context.Background(), 1, 1, func(context.Context, string) {
		started <- struct{}{}
		<-release
	})
	defer func() {
		close(release)
		_ = pool.Shutdown(context.Background())
	}()

	_ = pool.Enqueue(context.Background(), "busy")
	<-started
	_ = pool.Enqueue(context.Background(), "buffered")

	if err := pool.Enqueue(context.Background(), "overflow"); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestPoolClosedRejects(t *testing.T) {
	pool := NewPool(context.Background(), 1, 1, func(context.Context, string) {})
	_ = pool.Shutdown(context.Background())

	if err := pool.Enqueue(context.Background(), "late"); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPoolSurvivesPanic(t *testing.T) {
	done := make(chan string, 1)
	pool := NewPool(context.Background(), 1, 2, func(_ context.Context, jobID string) {
		if jobID == "bad" {
			panic("boom")
		}
		done <- jobID
	})
	defer pool.Shutdown(context.Background())

	_ = pool.Enqueue(context.Background(), "bad")
	_ = pool.Enqueue(context.Background(), "good")

	select {
	case id := <-done:
		if id != "good" {
			t.Errorf("expected good, got %q", id)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not recover from panic")
	}
}

// --- RedisQueue ---

func TestRedisQueueEnqueuePushesID(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	q := NewRedisQueue(rdb)
	if err := q.Enqueue(context.Background(), "job-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, err := mr.List(QueueKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0] != "job-1" {
		t.Errorf("expected [job-1], got %v", items)
	}
}

func TestRedisQueueConsume(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	q := NewRedisQueue(rdb)
	_ = q.Enqueue(context.Background(), "job-1")

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan string, 1)
	stopped := make(chan error, 1)

	go func() {
		stopped <- q.Consume(ctx, func(_ context.Context, jobID string) { got <- jobID })
	}()

	select {
	case id := <-got:
		if id != "job-1" {
			t.Errorf("expected job-1, got %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job was not consumed")
	}

	cancel()
	select {
	case err := <-stopped:
		if err != nil {
			t.Errorf("expected clean stop, got %v", err)
		}
	case <-time.After(7 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}

func TestRedisQueueConsumeDrainsRunningJobs(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	q := NewRedisQueue(rdb)
	_ = q.Enqueue(context.Background(), "job-1")

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan error, 1)
	stopped := make(chan struct{})

	go func() {
		_ = q.Consume(ctx, func(jobCtx context.Context, _ string) {
			close(started)
			<-release
			finished <- jobCtx.Err()
		})
		close(stopped)
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not consumed")
	}

	cancel()

	select {
	case <-stopped:
		t.Fatal("Consume returned while a job was still running")
	case <-time.After(time.Second):
	}

	close(release)
	if err := <-finished; err != nil {
		t.Errorf("expected job context to survive shutdown, got %v", err)
	}

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Consume did not return after the job finished")
	}
}
