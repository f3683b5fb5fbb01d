package sidestate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	jobKeyPrefix    = "snapswap:job:"
	uploadKeyPrefix = "snapswap:upload:"
)

// RedisStore keeps entries as JSON strings with SET ... EX.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) GetJob(ctx context.Context, jobID string) (*JobState, error) {
	var state JobState
	found, err := s.get(ctx, jobKeyPrefix+jobID, &state)
	if err != nil || !found {
		return nil, err
	}
	return &state, nil
}

func (s *RedisStore) SetJob(ctx context.Context, jobID string, state JobState) error {
	return s.set(ctx, jobKeyPrefix+jobID, state)
}

// UpdateJob is last-write-wins; there is no WATCH/MULTI around the merge.
func (s *RedisStore) UpdateJob(ctx context.Context, jobID string, fn func(*JobState)) error {
	current, err := s.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	var state JobState
	if current != nil {
		state = *current
	}
	fn(&state)
	return s.SetJob(ctx, jobID, state)
}

func (s *RedisStore) GetUpload(ctx context.Context, uploadID string) (*UploadState, error) {
	var state UploadState
	found, err := s.get(ctx, uploadKeyPrefix+uploadID, &state)
	if err != nil || !found {
		return nil, err
	}
	return &state, nil
}

func (s *RedisStore) SetUpload(ctx context.Context, uploadID string, state UploadState) error {
	return s.set(ctx, uploadKeyPrefix+uploadID, state)
}

func (s *RedisStore) get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, pkgerrors.Wrapf(err, "redis get %s", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, pkgerrors.Wrapf(err, "decode %s", key)
	}
	return true, nil
}

func (s *RedisStore) set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return pkgerrors.Wrapf(err, "encode %s", key)
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return pkgerrors.Wrapf(err, "redis set %s", key)
	}
	return nil
}
