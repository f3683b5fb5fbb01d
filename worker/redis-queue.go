package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const QueueKey = "snapswap:jobs:queue"

const (
	popTimeout   = 5 * time.Second
	errorBackoff = 5 * time.Second
	drainTimeout = 30 * time.Second
)

// RedisQueue is a Queue shared between the API process and `worker` processes.
type RedisQueue struct {
	rdb     *redis.Client
	backoff time.Duration
	drain   time.Duration
}

func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb, backoff: errorBackoff, drain: drainTimeout}
}

func (q *RedisQueue) Enqueue(ctx context.Context, jobID string) error {
	if err := q.rdb.LPush(ctx, QueueKey, jobID).Err(); err != nil {
		return pkgerrors.Wrap(err, "enqueue job")
	}
	return nil
}

// Consume pops job ids and hands them to handler until ctx is cancelled.
// Each job runs on its own goroutine with a context that outlives ctx, and
// Consume waits (up to the drain timeout) for running jobs before returning.
func (q *RedisQueue) Consume(ctx context.Context, handler Handler) error {
	log.Info().Str("queue", QueueKey).Msg("Watching queue")

	jobCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	defer q.wait(&wg)

	for {
		if ctx.Err() != nil {
			return nil
		}

		result, err := q.rdb.BRPop(ctx, popTimeout, QueueKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Msg("Redis BRPOP failed")
			select {
			case <-time.After(q.backoff):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		// result[0] is the key, result[1] the job id
		jobID := result[1]
		log.Info().Str("job_id", jobID).Msg("Received job")

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("job_id", jobID).Interface("panic", r).Msg("Job handler panicked")
				}
			}()
			handler(jobCtx, jobID)
		}()
	}
}

func (q *RedisQueue) wait(wg *sync.WaitGroup) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("Queue consumer drained")
	case <-time.After(q.drain):
		log.Warn().Dur("timeout", q.drain).Msg("Queue consumer stopped with jobs still running")
	}
}
