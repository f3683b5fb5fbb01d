package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/krishkalaria12/snap-swap/apperror"
	"github.com/krishkalaria12/snap-swap/models"
	"github.com/krishkalaria12/snap-swap/repository"
	"github.com/krishkalaria12/snap-swap/sidestate"
	"github.com/krishkalaria12/snap-swap/worker"
	"github.com/rs/zerolog/log"
)

const maxPromptLength = 1000

type CreateJobRequest struct {
	UploadID       string `json:"uploadId"`
	Prompt         string `json:"prompt"`
	EnhancedPrompt string `json:"enhancedPrompt"`
}

type CreatedJob struct {
	JobID         string           `json:"jobId"`
	EstimatedTime int              `json:"estimatedTime"`
	Status        models.JobStatus `json:"status"`
	Message       string           `json:"message"`
	Progress      int              `json:"progress"`
}

type JobStatusView struct {
	JobID                  string           `json:"jobId"`
	Status                 models.JobStatus `json:"status"`
	Progress               int              `json:"progress"`
	CurrentStep            string           `json:"currentStep"`
	Message                string           `json:"message"`
	EstimatedTimeRemaining int              `json:"estimatedTimeRemaining"`
	CreatedAt              time.Time        `json:"createdAt"`
	ResultID               string           `json:"resultId,omitempty"`
	CompletedAt            *time.Time       `json:"completedAt,omitempty"`
	Error                  string           `json:"error,omitempty"`
}

type JobService struct {
	jobs       repository.JobRepository
	uploads    repository.UploadRepository
	store      sidestate.Store
	queue      worker.Queue
	hasArchive bool
}

// NewJobService wires job creation to queue. hasArchive reports whether a
// result archive backs completed jobs whose side-state has expired.
func NewJobService(jobs repository.JobRepository, uploads repository.UploadRepository, store sidestate.Store, queue worker.Queue, hasArchive bool) *JobService {
	return &JobService{jobs: jobs, uploads: uploads, store: store, queue: queue, hasArchive: hasArchive}
}

func (s *JobService) Create(ctx context.Context, callerID string, req CreateJobRequest) (*CreatedJob, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if req.UploadID == "" || prompt == "" {
		return nil, apperror.Validation("Upload ID and prompt are required")
	}
	if utf8.RuneCountInString(prompt) > maxPromptLength {
		return nil, apperror.Validation("Prompt too long (max 1000 characters)")
	}

	upload, err := ownedUpload(ctx, s.uploads, req.UploadID, callerID)
	if err != nil {
		return nil, err
	}
	if upload.FaceCount == 0 {
		return nil, apperror.BadRequest(apperror.CodeNoFaces, "No faces found in upload. Please upload images with faces first.")
	}

	if enhanced := strings.TrimSpace(req.EnhancedPrompt); enhanced != "" {
		prompt = enhanced
	}

	job := &models.Job{
		UploadID: upload.ID,
		Prompt:   prompt,
		Status:   models.JobQueued,
		Progress: 0,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	if err := s.store.SetJob(ctx, job.ID, sidestate.JobState{Status: models.JobQueued, Progress: 0}); err != nil {
		log.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to cache job state")
	}

	if err := s.queue.Enqueue(ctx, job.ID); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to queue job")
		markFailed(ctx, s.jobs, s.store, job.ID, "Failed to queue job")
		return nil, apperror.Internal("Failed to queue job")
	}

	log.Info().Str("job_id", job.ID).Str("upload_id", upload.ID).Msg("Job queued")

	return &CreatedJob{
		JobID:         job.ID,
		EstimatedTime: EstimatedGenerationSeconds,
		Status:        models.JobQueued,
		Message:       "Your image generation has started!",
		Progress:      0,
	}, nil
}

// Status reads status and progress from the durable row and enriches the
// view from side-state when an entry exists.
func (s *JobService) Status(ctx context.Context, jobID, callerID string) (*JobStatusView, error) {
	if jobID == "" {
		return nil, apperror.Validation("Job ID is required")
	}

	job, err := ownedJob(ctx, s.jobs, jobID, callerID, "Job not found")
	if err != nil {
		return nil, err
	}

	view := &JobStatusView{
		JobID:                  job.ID,
		Status:                 job.Status,
		Progress:               job.Progress,
		CurrentStep:            CurrentStep(job.Progress),
		Message:                StatusMessage(job.Status, job.Progress),
		EstimatedTimeRemaining: EstimatedTimeRemaining(job.Progress),
		CreatedAt:              job.CreatedAt,
	}

	if !job.Status.Terminal() {
		return view, nil
	}

	state, err := s.store.GetJob(ctx, job.ID)
	if err != nil {
		log.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to read job side-state")
		state = nil
	}

	switch job.Status {
	case models.JobCompleted:
		if (state != nil && state.Result != "") || s.hasArchive {
			view.ResultID = ResultID(job.ID)
			view.CompletedAt = job.CompletedAt
		}
	case models.JobFailed:
		view.Error = "Generation failed"
		if state != nil && state.Error != "" {
			view.Error = state.Error
		}
	}

	return view, nil
}
