package repository

import (
	"context"
	"errors"
	"time"

	"github.com/krishkalaria12/snap-swap/models"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrTransitionRejected is returned when a status write would leave a terminal
// state or move progress backwards.
var ErrTransitionRejected = errors.New("job transition rejected")

var activeStatuses = []models.JobStatus{models.JobQueued, models.JobProcessing}

type HistoryQuery struct {
	Status *models.JobStatus
	Oldest bool
	Offset int
	Limit  int
}

type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	// FindByID loads the job with its owning upload.
	FindByID(ctx context.Context, id string) (*models.Job, error)
	MarkProcessing(ctx context.Context, id string, progress int) error
	MarkCompleted(ctx context.Context, id string, completedAt time.Time) error
	MarkFailed(ctx context.Context, id string) error
	ListForUser(ctx context.Context, userID string, q HistoryQuery) ([]models.Job, int64, error)
	CountForUser(ctx context.Context, userID string, status *models.JobStatus) (int64, error)
}

type gormJobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &gormJobRepository{db: db}
}

func (r *gormJobRepository) Create(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(job).Error; err != nil {
		return pkgerrors.Wrap(err, "create job")
	}
	return nil
}

func (r *gormJobRepository) FindByID(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).Preload("Upload").Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "find job")
	}
	return &job, nil
}

func (r *gormJobRepository) MarkProcessing(ctx context.Context, id string, progress int) error {
	return r.transition(
		r.db.WithContext(ctx).Model(&models.Job{}).
			Where("id = ? AND status IN ? AND progress <= ?", id, activeStatuses, progress),
		map[string]any{"status": models.JobProcessing, "progress": progress},
	)
}

func (r *gormJobRepository) MarkCompleted(ctx context.Context, id string, completedAt time.Time) error {
	return r.transition(
		r.db.WithContext(ctx).Model(&models.Job{}).
			Where("id = ? AND status IN ?", id, activeStatuses),
		map[string]any{"status": models.JobCompleted, "progress": 100, "completed_at": completedAt},
	)
}

func (r *gormJobRepository) MarkFailed(ctx context.Context, id string) error {
	return r.transition(
		r.db.WithContext(ctx).Model(&models.Job{}).
			Where("id = ? AND status IN ?", id, activeStatuses),
		map[string]any{"status": models.JobFailed, "progress": 0},
	)
}

func (r *gormJobRepository) transition(scoped *gorm.DB, values map[string]any) error {
	res := scoped.Updates(values)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "update job")
	}
	if res.RowsAffected == 0 {
		return ErrTransitionRejected
	}
	return nil
}

func (r *gormJobRepository) ownedBy(ctx context.Context, userID string, status *models.JobStatus) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Job{}).
		Joins("JOIN uploads ON uploads.id = jobs.upload_id").
		Where("uploads.user_id = ?", userID)
	if status != nil {
		tx = tx.Where("jobs.status = ?", *status)
	}
	return tx
}

func (r *gormJobRepository) ListForUser(ctx context.Context, userID string, q HistoryQuery) ([]models.Job, int64, error) {
	var total int64
	if err := r.ownedBy(ctx, userID, q.Status).Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "count jobs")
	}

	order := "jobs.created_at DESC, jobs.id DESC"
	if q.Oldest {
		order = "jobs.created_at ASC, jobs.id ASC"
	}

	var jobs []models.Job
	err := r.ownedBy(ctx, userID, q.Status).
		Select("jobs.*").
		Preload("Upload").
		Order(order).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&jobs).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "list jobs")
	}

	return jobs, total, nil
}

func (r *gormJobRepository) CountForUser(ctx context.Context, userID string, status *models.JobStatus) (int64, error) {
	var total int64
	if err := r.ownedBy(ctx, userID, status).Count(&total).Error; err != nil {
		return 0, pkgerrors.Wrap(err, "count jobs")
	}
	return total, nil
}
