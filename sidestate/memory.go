package sidestate

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps entries in a process-local go-cache with expiry.
type MemoryStore struct {
	jobs    *cache.Cache
	uploads *cache.Cache
	mu      sync.Mutex // serialises UpdateJob read-modify-write
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	cleanup := ttl / 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &MemoryStore{
		jobs:    cache.New(ttl, cleanup),
		uploads: cache.New(ttl, cleanup),
	}
}

func (s *MemoryStore) GetJob(_ context.Context, jobID string) (*JobState, error) {
	v, ok := s.jobs.Get(jobID)
	if !ok {
		return nil, nil
	}
	state := v.(JobState)
	return &state, nil
}

func (s *MemoryStore) SetJob(_ context.Context, jobID string, state JobState) error {
	s.jobs.SetDefault(jobID, state)
	return nil
}

func (s *MemoryStore) UpdateJob(_ context.Context, jobID string, fn func(*JobState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state JobState
	if v, ok := s.jobs.Get(jobID); ok {
		state = v.(JobState)
	}
	fn(&state)
	s.jobs.SetDefault(jobID, state)
	return nil
}

func (s *MemoryStore) GetUpload(_ context.Context, uploadID string) (*UploadState, error) {
	v, ok := s.uploads.Get(uploadID)
	if !ok {
		return nil, nil
	}
	state := v.(UploadState)
	return &state, nil
}

func (s *MemoryStore) SetUpload(_ context.Context, uploadID string, state UploadState) error {
	s.uploads.SetDefault(uploadID, state)
	return nil
}
