package services

import (
	"math"
	"strings"

	"github.com/krishkalaria12/snap-swap/models"
)

const resultPrefix = "result_"

// EstimatedGenerationSeconds is the static estimate returned when a job is created.
const EstimatedGenerationSeconds = 45

// ResultID derives the public result identifier for a job.
func ResultID(jobID string) string {
	return resultPrefix + jobID
}

// JobIDFromResult strips the result prefix. A value without the prefix is
// returned unchanged and will simply fail the job lookup.
func JobIDFromResult(resultID string) string {
	return strings.TrimPrefix(resultID, resultPrefix)
}

// CurrentStep labels a progress value with a pipeline stage.
func CurrentStep(progress int) string {
	switch {
	case progress < 10:
		return "queued"
	case progress < 40:
		return "image-generation"
	case progress < 60:
		return "face-detection"
	case progress < 90:
		return "face-swapping"
	case progress < 100:
		return "final-processing"
	default:
		return "completed"
	}
}

func StatusMessage(status models.JobStatus, progress int) string {
	switch status {
	case models.JobQueued:
		return "Your job is in queue..."
	case models.JobCompleted:
		return "Generation complete!"
	case models.JobFailed:
		return "Generation failed"
	}

	switch {
	case progress < 10:
		return "Starting generation..."
	case progress < 40:
		return "Generating base image..."
	case progress < 60:
		return "Detecting faces in generated image..."
	case progress < 90:
		return "Swapping faces from your photos..."
	case progress < 100:
		return "Finalizing your image..."
	default:
		return "Processing..."
	}
}

// EstimatedTimeRemaining is a fixed half second per remaining percent.
func EstimatedTimeRemaining(progress int) int {
	if progress >= 100 {
		return 0
	}
	return int(math.Ceil(float64(100-progress) * 0.5))
}

func roundSeconds(s float64) float64 {
	return math.Round(s*100) / 100
}
