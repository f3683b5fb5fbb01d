package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const UploadStatusUploaded = "UPLOADED"

// Upload is one batch of photos supplying faces for later generations.
type Upload struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	UserID     string    `json:"userId" gorm:"not null;index;size:36"`
	ImageCount int       `json:"imageCount" gorm:"not null"`
	FaceCount  int       `json:"faceCount" gorm:"not null;default:0"`
	Status     string    `json:"status" gorm:"not null;default:'UPLOADED'"`
	CreatedAt  time.Time `json:"createdAt"`

	// Relationship
	User User  `json:"-" gorm:"foreignKey:UserID"`
	Jobs []Job `json:"-" gorm:"foreignKey:UploadID"`
}

func (u *Upload) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
