package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/krishkalaria12/snap-swap/apperror"
	"github.com/krishkalaria12/snap-swap/models"
	"github.com/krishkalaria12/snap-swap/repository"
	"github.com/pkg/errors"
)

// ownedUpload resolves an upload and checks it belongs to callerID.
// Existence is checked before ownership.
func ownedUpload(ctx context.Context, uploads repository.UploadRepository, uploadID, callerID string) (*models.Upload, error) {
	upload, err := uploads.FindByID(ctx, uploadID)
	if err != nil {
		return nil, errors.Wrap(err, "load upload")
	}
	if upload == nil {
		return nil, apperror.NotFound("Upload not found")
	}
	if upload.UserID != callerID {
		return nil, apperror.Forbidden()
	}
	return upload, nil
}

// ownedJob resolves a job and checks ownership through its upload.
func ownedJob(ctx context.Context, jobs repository.JobRepository, jobID, callerID, notFound string) (*models.Job, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, apperror.NotFound(notFound)
	}

	job, err := jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, errors.Wrap(err, "load job")
	}
	if job == nil {
		return nil, apperror.NotFound(notFound)
	}
	if job.Upload.UserID != callerID {
		return nil, apperror.Forbidden()
	}
	return job, nil
}
