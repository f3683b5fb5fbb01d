// Package facedetect provides the face detector used when images are attached
// to an upload. The only implementation is a stand-in that reports a random
// number of faces; nothing downstream inspects the pixels.
package facedetect

import (
	"context"
	"math/rand/v2"
	"sync"
)

type Detection struct {
	FaceCount  int
	Confidence float64
}

type Detector interface {
	DetectFaces(ctx context.Context, image []byte) (Detection, error)
}

// RandomDetector reports 1-3 faces with confidence in [0.85, 1.0).
type RandomDetector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomDetector(src rand.Source) *RandomDetector {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &RandomDetector{rng: rand.New(src)}
}

func (d *RandomDetector) DetectFaces(_ context.Context, _ []byte) (Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Detection{
		FaceCount:  1 + d.rng.IntN(3),
		Confidence: 0.85 + d.rng.Float64()*0.15,
	}, nil
}

// Fixed always returns the same detection. Useful for tests and for
// deterministic local runs.
type Fixed Detection

func (f Fixed) DetectFaces(context.Context, []byte) (Detection, error) {
	return Detection(f), nil
}
