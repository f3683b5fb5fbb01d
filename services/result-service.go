package services

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/krishkalaria12/snap-swap/apperror"
	"github.com/krishkalaria12/snap-swap/imageutil"
	"github.com/krishkalaria12/snap-swap/models"
	"github.com/krishkalaria12/snap-swap/repository"
	"github.com/krishkalaria12/snap-swap/sidestate"
	"github.com/krishkalaria12/snap-swap/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const defaultDownloadName = "generated-image"

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]`)

type ResultImage struct {
	Base64     string               `json:"base64"`
	Format     string               `json:"format"`
	Dimensions imageutil.Dimensions `json:"dimensions"`
	Size       int                  `json:"size"`
}

type ResultMetadata struct {
	OriginalPrompt string  `json:"originalPrompt"`
	FacesSwapped   int     `json:"facesSwapped"`
	ProcessingTime float64 `json:"processingTime"`
	Model          string  `json:"model"`
	UploadID       string  `json:"uploadId"`
}

type Result struct {
	ID        string          `json:"id"`
	JobID     string          `json:"jobId"`
	Image     ResultImage     `json:"image"`
	CreatedAt *time.Time      `json:"createdAt"`
	Metadata  *ResultMetadata `json:"metadata,omitempty"`
}

type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ResultService struct {
	jobs    repository.JobRepository
	store   sidestate.Store
	archive storage.Archive
	model   string
}

// NewResultService serves completed jobs. archive may be nil; model is the
// label reported in metadata.
func NewResultService(jobs repository.JobRepository, store sidestate.Store, archive storage.Archive, model string) *ResultService {
	return &ResultService{jobs: jobs, store: store, archive: archive, model: model}
}

func (s *ResultService) Get(ctx context.Context, resultID, callerID string, includeMetadata bool) (*Result, error) {
	job, mimeType, data, err := s.resolve(ctx, resultID, callerID)
	if err != nil {
		return nil, err
	}

	image := ResultImage{
		Base64: imageutil.DataURL(mimeType, data),
		Format: strings.TrimPrefix(mimeType, "image/"),
		Size:   len(data),
	}
	if dims, format, err := imageutil.Inspect(data); err == nil {
		image.Dimensions = dims
		image.Format = format
	}

	result := &Result{
		ID:        ResultID(job.ID),
		JobID:     job.ID,
		Image:     image,
		CreatedAt: job.CompletedAt,
	}

	if includeMetadata {
		result.Metadata = &ResultMetadata{
			OriginalPrompt: job.Prompt,
			FacesSwapped:   job.Upload.FaceCount,
			ProcessingTime: job.ProcessingSeconds(),
			Model:          s.model,
			UploadID:       job.UploadID,
		}
	}

	return result, nil
}

// Download returns the stored payload, transcoded when format differs.
func (s *ResultService) Download(ctx context.Context, resultID, callerID, filename, format string) (*Download, error) {
	if resultID == "" {
		return nil, apperror.Validation("Result ID is required")
	}
	target, ok := imageutil.NormalizeFormat(format)
	if !ok {
		return nil, apperror.Validation("Invalid format. Use png or jpeg")
	}

	_, _, data, err := s.resolve(ctx, resultID, callerID)
	if err != nil {
		return nil, err
	}

	out, err := imageutil.Transcode(data, target)
	if err != nil {
		return nil, errors.Wrap(err, "prepare download")
	}

	return &Download{
		Filename:    sanitizeFilename(filename) + "." + target,
		ContentType: "image/" + target,
		Data:        out,
	}, nil
}

// resolve runs the lookup chain shared by Get and Download: job, ownership,
// readiness, then payload.
func (s *ResultService) resolve(ctx context.Context, resultID, callerID string) (*models.Job, string, []byte, error) {
	job, err := ownedJob(ctx, s.jobs, JobIDFromResult(resultID), callerID, "Result not found")
	if err != nil {
		return nil, "", nil, err
	}
	if job.Status != models.JobCompleted {
		return nil, "", nil, apperror.BadRequest(apperror.CodeNotReady, fmt.Sprintf("Result not ready yet. Current status: %s", job.Status))
	}

	mimeType, data, err := s.payload(ctx, job.ID)
	if err != nil {
		return nil, "", nil, err
	}
	if data == nil {
		return nil, "", nil, apperror.New(http.StatusNotFound, apperror.CodeImageNotFound, "Generated image not found")
	}
	return job, mimeType, data, nil
}

// payload looks in side-state first and falls back to the archive.
func (s *ResultService) payload(ctx context.Context, jobID string) (string, []byte, error) {
	state, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("Failed to read job side-state")
	}
	if state != nil && state.ImageData != "" {
		mimeType, data, err := imageutil.ParseDataURL(state.ImageData)
		if err == nil {
			return mimeType, data, nil
		}
		log.Warn().Err(err).Str("job_id", jobID).Msg("Cached image is not a data URL")
	}

	if s.archive == nil {
		return "", nil, nil
	}

	data, contentType, err := s.archive.Get(ctx, jobID)
	if err != nil {
		return "", nil, errors.Wrap(err, "load archived result")
	}
	if contentType == "" {
		contentType = "image/png"
	}
	return contentType, data, nil
}

func sanitizeFilename(name string) string {
	name = unsafeFilename.ReplaceAllString(strings.TrimSpace(name), "")
	name = strings.Trim(name, ".")
	if name == "" {
		return defaultDownloadName
	}
	return name
}
