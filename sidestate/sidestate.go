// Package sidestate holds volatile per-job and per-upload data that is not
// part of the durable schema: generated image payloads, error text, raw upload
// buffers and face metadata. Entries expire after a TTL and may vanish at any
// time; callers treat a miss as "not found".
package sidestate

import (
	"context"

	"github.com/krishkalaria12/snap-swap/models"
)

// JobState mirrors a job's status plus the fields the jobs table doesn't carry.
type JobState struct {
	Status    models.JobStatus `json:"status"`
	Progress  int              `json:"progress"`
	Result    string           `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	ImageData string           `json:"imageData,omitempty"`
}

type FaceInfo struct {
	ImageIndex int     `json:"imageIndex"`
	FaceCount  int     `json:"faceCount"`
	Confidence float64 `json:"confidence"`
}

type UploadMetadata struct {
	TotalSize int64    `json:"totalSize"`
	FileTypes []string `json:"fileTypes"`
}

type UploadState struct {
	Images   [][]byte       `json:"images"`
	Faces    []FaceInfo     `json:"faces"`
	Metadata UploadMetadata `json:"metadata"`
}

// Store is the side-state contract. Get methods return (nil, nil) on a miss.
type Store interface {
	GetJob(ctx context.Context, jobID string) (*JobState, error)
	SetJob(ctx context.Context, jobID string, state JobState) error
	// UpdateJob applies fn to the current entry, or to a zero JobState when
	// there is none, and stores the result.
	UpdateJob(ctx context.Context, jobID string, fn func(*JobState)) error

	GetUpload(ctx context.Context, uploadID string) (*UploadState, error)
	SetUpload(ctx context.Context, uploadID string, state UploadState) error
}
