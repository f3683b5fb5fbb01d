package services

import (
	"context"
	"errors"
	"time"

	"github.com/krishkalaria12/snap-swap/imagegen"
	"github.com/krishkalaria12/snap-swap/imageutil"
	"github.com/krishkalaria12/snap-swap/models"
	"github.com/krishkalaria12/snap-swap/repository"
	"github.com/krishkalaria12/snap-swap/sidestate"
	"github.com/krishkalaria12/snap-swap/storage"
	"github.com/rs/zerolog/log"
)

const (
	progressGenerating = 20
	progressGenerated  = 90
)

// Processor runs queued jobs: 20% -> generate -> 90% -> archive -> completed.
type Processor struct {
	jobs      repository.JobRepository
	store     sidestate.Store
	generator imagegen.Generator
	archive   storage.Archive
}

// NewProcessor builds the job routine. archive may be nil.
func NewProcessor(jobs repository.JobRepository, store sidestate.Store, generator imagegen.Generator, archive storage.Archive) *Processor {
	return &Processor{jobs: jobs, store: store, generator: generator, archive: archive}
}

// Process is a worker.Handler. Failures end in the FAILED state and are
// never returned to the caller.
func (p *Processor) Process(ctx context.Context, jobID string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("job_id", jobID).Interface("panic", r).Msg("Job processing panicked")
			markFailed(ctx, p.jobs, p.store, jobID, "Processing failed")
		}
	}()

	job, err := p.jobs.FindByID(ctx, jobID)
	if err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("Failed to load job")
		return
	}
	if job == nil {
		log.Warn().Str("job_id", jobID).Msg("Job not found, skipping")
		return
	}
	if job.Status != models.JobQueued {
		log.Info().Str("job_id", jobID).Str("status", string(job.Status)).Msg("Job already picked up, skipping")
		return
	}

	if !p.advance(ctx, jobID, progressGenerating) {
		return
	}

	result := p.generator.Generate(ctx, job.Prompt)
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "Generation failed"
		}
		log.Error().Str("job_id", jobID).Str("error", msg).Msg("Image generation failed")
		markFailed(ctx, p.jobs, p.store, jobID, msg)
		return
	}

	if !p.advance(ctx, jobID, progressGenerated) {
		return
	}

	p.archiveResult(ctx, jobID, result.ImageData)

	// The result goes to side-state first so a poll that sees COMPLETED
	// always finds it.
	if err := p.store.SetJob(ctx, jobID, sidestate.JobState{
		Status:    models.JobCompleted,
		Progress:  100,
		Result:    ResultID(jobID),
		ImageData: result.ImageData,
	}); err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("Failed to cache job result")
	}

	if err := p.jobs.MarkCompleted(ctx, jobID, time.Now()); err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("Failed to mark job completed")
		p.revokeResult(ctx, jobID)
		if !errors.Is(err, repository.ErrTransitionRejected) {
			markFailed(ctx, p.jobs, p.store, jobID, "Failed to save result")
		}
		return
	}

	log.Info().Str("job_id", jobID).Str("status", string(models.JobCompleted)).Int("progress", 100).Msg("Job completed")
}

// revokeResult undoes the completed side-state entry when the durable row
// did not move to COMPLETED.
func (p *Processor) revokeResult(ctx context.Context, jobID string) {
	ctx = context.WithoutCancel(ctx)
	if err := p.store.UpdateJob(ctx, jobID, func(s *sidestate.JobState) {
		if s.Status == models.JobCompleted {
			s.Status = models.JobProcessing
			s.Progress = progressGenerated
		}
		s.Result = ""
		s.ImageData = ""
	}); err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("Failed to revoke cached result")
	}
}

// advance records PROCESSING at progress. It reports false when the job can
// no longer move forward.
func (p *Processor) advance(ctx context.Context, jobID string, progress int) bool {
	if err := p.jobs.MarkProcessing(ctx, jobID, progress); err != nil {
		if errors.Is(err, repository.ErrTransitionRejected) {
			log.Warn().Str("job_id", jobID).Int("progress", progress).Msg("Job transition rejected, stopping")
			return false
		}
		log.Error().Err(err).Str("job_id", jobID).Msg("Failed to update job progress")
		markFailed(ctx, p.jobs, p.store, jobID, "Processing failed")
		return false
	}

	if err := p.store.UpdateJob(ctx, jobID, func(s *sidestate.JobState) {
		s.Status = models.JobProcessing
		s.Progress = progress
	}); err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("Failed to cache job progress")
	}

	log.Info().Str("job_id", jobID).Str("status", string(models.JobProcessing)).Int("progress", progress).Msg("Job progress")
	return true
}

func (p *Processor) archiveResult(ctx context.Context, jobID, dataURL string) {
	if p.archive == nil {
		return
	}

	mimeType, data, err := imageutil.ParseDataURL(dataURL)
	if err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("Generated image is not a data URL, not archived")
		return
	}
	if err := p.archive.Put(ctx, jobID, mimeType, data); err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("Failed to archive result")
	}
}

// markFailed moves a job to FAILED/0 and records msg in side-state. It runs
// even when ctx is already cancelled, and leaves side-state alone unless the
// durable row moved.
func markFailed(ctx context.Context, jobs repository.JobRepository, store sidestate.Store, jobID, msg string) {
	ctx = context.WithoutCancel(ctx)

	if err := jobs.MarkFailed(ctx, jobID); err != nil {
		if errors.Is(err, repository.ErrTransitionRejected) {
			log.Warn().Str("job_id", jobID).Msg("Job already terminal, failure not recorded")
			return
		}
		log.Error().Err(err).Str("job_id", jobID).Msg("Failed to mark job failed")
		return
	}

	if err := store.UpdateJob(ctx, jobID, func(s *sidestate.JobState) {
		s.Status = models.JobFailed
		s.Progress = 0
		s.Error = msg
	}); err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("Failed to cache job failure")
	}

	log.Info().Str("job_id", jobID).Str("status", string(models.JobFailed)).Str("error", msg).Msg("Job failed")
}
