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

type UploadStats struct {
	TotalUploads   int64
	FacesProcessed int64
	LastActivity   *time.Time
}

type UploadRepository interface {
	Create(ctx context.Context, upload *models.Upload) error
	FindByID(ctx context.Context, id string) (*models.Upload, error)
	UpdateFaceCounts(ctx context.Context, id string, faceCount, imageCount int) error
	StatsForUser(ctx context.Context, userID string) (UploadStats, error)
}

type gormUploadRepository struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &gormUploadRepository{db: db}
}

func (r *gormUploadRepository) Create(ctx context.Context, upload *models.Upload) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(upload).Error; err != nil {
		return pkgerrors.Wrap(err, "create upload")
	}
	return nil
}

func (r *gormUploadRepository) FindByID(ctx context.Context, id string) (*models.Upload, error) {
	var upload models.Upload
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&upload).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "find upload")
	}
	return &upload, nil
}

func (r *gormUploadRepository) UpdateFaceCounts(ctx context.Context, id string, faceCount, imageCount int) error {
	res := r.db.WithContext(ctx).Model(&models.Upload{}).
		Where("id = ?", id).
		Updates(map[string]any{"face_count": faceCount, "image_count": imageCount})
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "update upload face counts")
	}
	return nil
}

func (r *gormUploadRepository) StatsForUser(ctx context.Context, userID string) (UploadStats, error) {
	var stats UploadStats

	base := r.db.WithContext(ctx).Model(&models.Upload{}).Where("user_id = ?", userID)

	if err := base.Session(&gorm.Session{}).Count(&stats.TotalUploads).Error; err != nil {
		return stats, pkgerrors.Wrap(err, "count uploads")
	}
	if stats.TotalUploads == 0 {
		return stats, nil
	}

	var faces struct{ Total int64 }
	if err := base.Session(&gorm.Session{}).Select("COALESCE(SUM(face_count), 0) AS total").Scan(&faces).Error; err != nil {
		return stats, pkgerrors.Wrap(err, "sum face counts")
	}
	stats.FacesProcessed = faces.Total

	var latest models.Upload
	if err := base.Session(&gorm.Session{}).Order("created_at DESC").First(&latest).Error; err != nil {
		return stats, pkgerrors.Wrap(err, "latest upload")
	}
	stats.LastActivity = &latest.CreatedAt

	return stats, nil
}
