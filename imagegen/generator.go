// Package imagegen turns a text prompt into an image payload.
package imagegen

import (
	"context"
	"time"
)

// Result follows the generation contract: on success ImageData holds a
// data URL, otherwise Error describes what went wrong.
type Result struct {
	Success   bool
	ImageData string
	Error     string
}

type Generator interface {
	Generate(ctx context.Context, prompt string) Result
	// Model is the label reported in result metadata.
	Model() string
}

func failed(msg string) Result {
	return Result{Success: false, Error: msg}
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
