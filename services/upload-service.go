package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/krishkalaria12/snap-swap/apperror"
	"github.com/krishkalaria12/snap-swap/facedetect"
	"github.com/krishkalaria12/snap-swap/imageutil"
	"github.com/krishkalaria12/snap-swap/models"
	"github.com/krishkalaria12/snap-swap/repository"
	"github.com/krishkalaria12/snap-swap/sidestate"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	MinImages   = 5
	MaxImages   = 10
	MaxFileSize = 10 * 1024 * 1024
	maxPreviews = 3
)

type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type UploadSession struct {
	UploadID  string `json:"uploadId"`
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type AttachResult struct {
	UploadID       string               `json:"uploadId"`
	FacesDetected  []sidestate.FaceInfo `json:"facesDetected"`
	TotalFaces     int                  `json:"totalFaces"`
	ImageCount     int                  `json:"imageCount"`
	ProcessingTime float64              `json:"processingTime"`
	Message        string               `json:"message"`
}

type UploadSummary struct {
	ID         string    `json:"id"`
	ImageCount int       `json:"imageCount"`
	FaceCount  int       `json:"faceCount"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Preview struct {
	Index     int    `json:"index"`
	Thumbnail string `json:"thumbnail"`
}

type UploadDetails struct {
	Upload   UploadSummary        `json:"upload"`
	Faces    []sidestate.FaceInfo `json:"faces,omitempty"`
	Previews []Preview            `json:"previews,omitempty"`
}

type UploadService struct {
	uploads  repository.UploadRepository
	store    sidestate.Store
	detector facedetect.Detector
}

func NewUploadService(uploads repository.UploadRepository, store sidestate.Store, detector facedetect.Detector) *UploadService {
	return &UploadService{uploads: uploads, store: store, detector: detector}
}

func (s *UploadService) CreateSession(ctx context.Context, ownerID string, imageCount int) (*UploadSession, error) {
	if imageCount < MinImages || imageCount > MaxImages {
		return nil, apperror.Validation(fmt.Sprintf("Image count must be between %d and %d", MinImages, MaxImages))
	}

	upload := &models.Upload{
		UserID:     ownerID,
		ImageCount: imageCount,
		FaceCount:  0,
		Status:     models.UploadStatusUploaded,
	}
	if err := s.uploads.Create(ctx, upload); err != nil {
		return nil, err
	}

	return &UploadSession{
		UploadID:  upload.ID,
		SessionID: fmt.Sprintf("session_%d", time.Now().UnixMilli()),
		Message:   "Upload session created successfully",
	}, nil
}

// AttachImages validates the whole batch before touching anything, runs face
// detection per image and records the totals.
func (s *UploadService) AttachImages(ctx context.Context, uploadID, callerID string, files []ImageFile) (*AttachResult, error) {
	start := time.Now()

	if uploadID == "" {
		return nil, apperror.Validation("Upload ID is required")
	}

	if _, err := ownedUpload(ctx, s.uploads, uploadID, callerID); err != nil {
		return nil, err
	}

	if len(files) < MinImages || len(files) > MaxImages {
		return nil, apperror.Validation(fmt.Sprintf("Please upload between %d and %d images", MinImages, MaxImages))
	}

	meta := sidestate.UploadMetadata{FileTypes: make([]string, 0, len(files))}
	for _, f := range files {
		if !strings.HasPrefix(f.ContentType, "image/") {
			return nil, apperror.BadRequest(apperror.CodeInvalidFileType, fmt.Sprintf("File %s is not an image", f.Filename))
		}
		if len(f.Data) > MaxFileSize {
			return nil, apperror.BadRequest(apperror.CodeFileTooLarge, fmt.Sprintf("File %s exceeds 10MB limit", f.Filename))
		}
		meta.TotalSize += int64(len(f.Data))
		meta.FileTypes = append(meta.FileTypes, f.ContentType)
	}

	faces := make([]sidestate.FaceInfo, 0, len(files))
	images := make([][]byte, 0, len(files))
	totalFaces := 0

	for i, f := range files {
		detection, err := s.detector.DetectFaces(ctx, f.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "detect faces in image %d", i)
		}
		faces = append(faces, sidestate.FaceInfo{
			ImageIndex: i,
			FaceCount:  detection.FaceCount,
			Confidence: detection.Confidence,
		})
		images = append(images, f.Data)
		totalFaces += detection.FaceCount
	}

	if totalFaces == 0 {
		return nil, apperror.BadRequest(apperror.CodeNoFacesDetected, "No faces detected in uploaded images. Please upload clear photos with visible faces.")
	}

	if err := s.uploads.UpdateFaceCounts(ctx, uploadID, totalFaces, len(files)); err != nil {
		return nil, err
	}

	if err := s.store.SetUpload(ctx, uploadID, sidestate.UploadState{
		Images:   images,
		Faces:    faces,
		Metadata: meta,
	}); err != nil {
		log.Warn().Err(err).Str("upload_id", uploadID).Msg("Failed to cache upload images")
	}

	log.Info().Str("upload_id", uploadID).Int("images", len(files)).Int("faces", totalFaces).Msg("Images attached")

	return &AttachResult{
		UploadID:       uploadID,
		FacesDetected:  faces,
		TotalFaces:     totalFaces,
		ImageCount:     len(files),
		ProcessingTime: roundSeconds(time.Since(start).Seconds()),
		Message:        fmt.Sprintf("Successfully processed %d images with %d faces detected", len(files), totalFaces),
	}, nil
}

func (s *UploadService) Get(ctx context.Context, uploadID, callerID string, includeFaces, includePreview bool) (*UploadDetails, error) {
	upload, err := ownedUpload(ctx, s.uploads, uploadID, callerID)
	if err != nil {
		return nil, err
	}

	details := &UploadDetails{
		Upload: UploadSummary{
			ID:         upload.ID,
			ImageCount: upload.ImageCount,
			FaceCount:  upload.FaceCount,
			Status:     upload.Status,
			CreatedAt:  upload.CreatedAt,
		},
	}

	if !includeFaces && !includePreview {
		return details, nil
	}

	state, err := s.store.GetUpload(ctx, uploadID)
	if err != nil {
		log.Warn().Err(err).Str("upload_id", uploadID).Msg("Failed to read upload side-state")
		return details, nil
	}
	if state == nil {
		return details, nil
	}

	if includeFaces {
		details.Faces = state.Faces
	}
	if includePreview {
		details.Previews = previews(state.Images)
	}
	return details, nil
}

func previews(images [][]byte) []Preview {
	out := make([]Preview, 0, maxPreviews)
	for i, img := range images {
		if i >= maxPreviews {
			break
		}
		thumb, err := imageutil.Thumbnail(img, imageutil.PreviewEdge)
		if err != nil {
			log.Debug().Err(err).Int("index", i).Msg("Skipping preview")
			continue
		}
		out = append(out, Preview{Index: i, Thumbnail: imageutil.DataURL("image/jpeg", thumb)})
	}
	return out
}
