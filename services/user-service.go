package services

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/krishkalaria12/snap-swap/apperror"
	"github.com/krishkalaria12/snap-swap/auth"
	"github.com/krishkalaria12/snap-swap/imageutil"
	"github.com/krishkalaria12/snap-swap/models"
	"github.com/krishkalaria12/snap-swap/repository"
	"github.com/krishkalaria12/snap-swap/sidestate"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

type UserSummary struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

type LoginResult struct {
	User      UserSummary `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

type ProfileStats struct {
	TotalUploads         int64     `json:"totalUploads"`
	TotalGenerations     int64     `json:"totalGenerations"`
	CompletedGenerations int64     `json:"completedGenerations"`
	FacesProcessed       int64     `json:"facesProcessed"`
	LastActivity         time.Time `json:"lastActivity"`
}

type Profile struct {
	User  UserSummary  `json:"user"`
	Stats ProfileStats `json:"stats"`
}

// HistoryParams carries the raw query values; parsing is part of validation.
type HistoryParams struct {
	Page   string
	Limit  string
	Status string
	Sort   string
}

type HistoryItem struct {
	ID             string           `json:"id"`
	Prompt         string           `json:"prompt"`
	Status         models.JobStatus `json:"status"`
	Progress       int              `json:"progress"`
	ResultID       *string          `json:"resultId"`
	Thumbnail      *string          `json:"thumbnail"`
	ImageCount     int              `json:"imageCount"`
	FaceCount      int              `json:"faceCount"`
	CreatedAt      time.Time        `json:"createdAt"`
	CompletedAt    *time.Time       `json:"completedAt"`
	ProcessingTime *float64         `json:"processingTime"`
}

type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNext      bool  `json:"hasNext"`
	HasPrev      bool  `json:"hasPrev"`
}

type History struct {
	History    []HistoryItem `json:"history"`
	Pagination Pagination    `json:"pagination"`
}

type UserService struct {
	users   repository.UserRepository
	uploads repository.UploadRepository
	jobs    repository.JobRepository
	store   sidestate.Store
	tokens  *auth.Service
}

func NewUserService(users repository.UserRepository, uploads repository.UploadRepository, jobs repository.JobRepository, store sidestate.Store, tokens *auth.Service) *UserService {
	return &UserService{users: users, uploads: uploads, jobs: jobs, store: store, tokens: tokens}
}

func summarize(u *models.User) UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}

func (s *UserService) Register(ctx context.Context, username, password string) (*UserSummary, error) {
	username = strings.TrimSpace(username)

	switch {
	case username == "" || password == "":
		return nil, apperror.Validation("Username and password are required")
	case len(username) < 3 || len(username) > 30:
		return nil, apperror.Validation("Username must be between 3 and 30 characters")
	case !usernamePattern.MatchString(username):
		return nil, apperror.Validation("Username can only contain letters, numbers, and underscores")
	case len(password) < 6 || len(password) > 100:
		return nil, apperror.Validation("Password must be between 6 and 100 characters")
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict(apperror.CodeUserExists, "Username already taken")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	// The lookup above races with concurrent registrations; the unique
	// index has the final say.
	user := &models.User{Username: username, Password: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, apperror.Conflict(apperror.CodeUserExists, "Username already taken")
		}
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Str("username", username).Msg("User registered")
	summary := summarize(user)
	return &summary, nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, apperror.Validation("Username and password are required")
	}

	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPasswordHash(password, user.Password) {
		return nil, apperror.Unauthorized("Invalid username or password")
	}

	tokenStr, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: summarize(user), Token: tokenStr, ExpiresAt: expires}, nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("User not found")
	}

	uploadStats, err := s.uploads.StatsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := s.jobs.CountForUser(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	completedStatus := models.JobCompleted
	completed, err := s.jobs.CountForUser(ctx, userID, &completedStatus)
	if err != nil {
		return nil, err
	}

	lastActivity := user.CreatedAt
	if uploadStats.LastActivity != nil {
		lastActivity = *uploadStats.LastActivity
	}

	return &Profile{
		User: summarize(user),
		Stats: ProfileStats{
			TotalUploads:         uploadStats.TotalUploads,
			TotalGenerations:     total,
			CompletedGenerations: completed,
			FacesProcessed:       uploadStats.FacesProcessed,
			LastActivity:         lastActivity,
		},
	}, nil
}

func (s *UserService) History(ctx context.Context, userID string, params HistoryParams) (*History, error) {
	page, limit, err := parsePaging(params.Page, params.Limit)
	if err != nil {
		return nil, err
	}

	q := repository.HistoryQuery{
		Oldest: params.Sort == "oldest",
		Offset: (page - 1) * limit,
		Limit:  limit,
	}
	if st := models.JobStatus(params.Status); st.Valid() {
		q.Status = &st
	}

	jobs, total, err := s.jobs.ListForUser(ctx, userID, q)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, 0, len(jobs))
	for i := range jobs {
		items = append(items, s.historyItem(ctx, &jobs[i]))
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return &History{
		History: items,
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: limit,
			HasNext:      page < totalPages,
			HasPrev:      page > 1,
		},
	}, nil
}

func parsePaging(rawPage, rawLimit string) (int, int, error) {
	invalid := apperror.Validation("Invalid pagination parameters")

	page, limit := 1, defaultPageSize
	var err error
	if rawPage != "" {
		if page, err = strconv.Atoi(rawPage); err != nil {
			return 0, 0, invalid
		}
	}
	if rawLimit != "" {
		if limit, err = strconv.Atoi(rawLimit); err != nil {
			return 0, 0, invalid
		}
	}
	if page < 1 || limit < 1 || limit > maxPageSize {
		return 0, 0, invalid
	}
	return page, limit, nil
}

func (s *UserService) historyItem(ctx context.Context, job *models.Job) HistoryItem {
	item := HistoryItem{
		ID:          job.ID,
		Prompt:      job.Prompt,
		Status:      job.Status,
		Progress:    job.Progress,
		ImageCount:  job.Upload.ImageCount,
		FaceCount:   job.Upload.FaceCount,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}

	if job.CompletedAt != nil {
		seconds := job.ProcessingSeconds()
		item.ProcessingTime = &seconds
	}

	if job.Status == models.JobCompleted {
		resultID := ResultID(job.ID)
		item.ResultID = &resultID
		item.Thumbnail = s.thumbnail(ctx, job.ID)
	}
	return item
}

func (s *UserService) thumbnail(ctx context.Context, jobID string) *string {
	state, err := s.store.GetJob(ctx, jobID)
	if err != nil || state == nil || state.ImageData == "" {
		return nil
	}

	_, data, err := imageutil.ParseDataURL(state.ImageData)
	if err != nil {
		return nil
	}
	thumb, err := imageutil.Thumbnail(data, imageutil.ThumbnailEdge)
	if err != nil {
		log.Debug().Err(err).Str("job_id", jobID).Msg("Failed to build history thumbnail")
		return nil
	}

	url := imageutil.DataURL("image/jpeg", thumb)
	return &url
}
