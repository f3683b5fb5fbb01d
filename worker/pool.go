package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Pool is an in-process Queue backed by a buffered channel and a fixed set
// of goroutines.
type Pool struct {
	jobs    chan string
	handler Handler
	ctx     context.Context

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool starts workers goroutines that feed queued ids to handler. ctx is
// passed to every handler call.
func NewPool(ctx context.Context, workers, size int, handler Handler) *Pool {
	p := &Pool{
		jobs:    make(chan string, size),
		handler: handler,
		ctx:     ctx,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}

	log.Info().Int("workers", workers).Int("queue_size", size).Msg("Worker pool started")
	return p
}

func (p *Pool) Enqueue(_ context.Context, jobID string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobs <- jobID:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	for jobID := range p.jobs {
		p.handle(id, jobID)
	}
}

func (p *Pool) handle(worker int, jobID string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Int("worker", worker).Str("job_id", jobID).Interface("panic", r).Msg("Job handler panicked")
		}
	}()

	p.handler(p.ctx, jobID)
}

// Shutdown stops accepting jobs and waits for queued ones to finish, or for
// ctx to end.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("Worker pool drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
