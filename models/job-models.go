package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobStatus string

const (
	JobQueued     JobStatus = "QUEUED"
	JobProcessing JobStatus = "PROCESSING"
	JobCompleted  JobStatus = "COMPLETED"
	JobFailed     JobStatus = "FAILED"
)

// Valid reports whether s is one of the four job states.
func (s JobStatus) Valid() bool {
	switch s {
	case JobQueued, JobProcessing, JobCompleted, JobFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

type Job struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	UploadID    string     `json:"uploadId" gorm:"not null;index;size:36"`
	Prompt      string     `json:"prompt" gorm:"type:text;not null"`
	Status      JobStatus  `json:"status" gorm:"type:varchar(16);not null;index;default:'QUEUED'"`
	Progress    int        `json:"progress" gorm:"not null;default:0"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"index"`
	CompletedAt *time.Time `json:"completedAt"`

	// Relationship
	Upload Upload `json:"-" gorm:"foreignKey:UploadID"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

// ProcessingSeconds is completedAt minus createdAt, or 0 when either is unset.
func (j *Job) ProcessingSeconds() float64 {
	if j.CompletedAt == nil || j.CreatedAt.IsZero() {
		return 0
	}
	return j.CompletedAt.Sub(j.CreatedAt).Seconds()
}
