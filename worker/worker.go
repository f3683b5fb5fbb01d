// Package worker decouples accepting a job from running it.
package worker

import (
	"context"
	"errors"
)

var (
	ErrQueueFull  = errors.New("job queue is full")
	ErrPoolClosed = errors.New("worker pool is shut down")
)

// Queue accepts job ids for later processing.
type Queue interface {
	Enqueue(ctx context.Context, jobID string) error
}

// Handler runs one job. It must not panic past its own boundary; the pool
// recovers anyway so a bad job cannot take a worker down.
type Handler func(ctx context.Context, jobID string)
