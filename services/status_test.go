package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/krishkalaria12/snap-swap/models"
)

func TestCurrentStep(t *testing.T) {
	cases := map[int]string{
		0:   "queued",
		9:   "queued",
		10:  "image-generation",
		20:  "image-generation",
		40:  "face-detection",
		60:  "face-swapping",
		89:  "face-swapping",
		90:  "final-processing",
		99:  "final-processing",
		100: "completed",
	}
	for progress, want := range cases {
		if got := CurrentStep(progress); got != want {
			t.Errorf("CurrentStep(%d) = %q, want %q", progress, got, want)
		}
	}
}

func TestStatusMessage(t *testing.T) {
	cases := []struct {
		status   models.JobStatus
		progress int
		want     string
	}{
		{models.JobQueued, 0, "Your job is in queue..."},
		{models.JobProcessing, 5, "Starting generation..."},
		{models.JobProcessing, 20, "Generating base image..."},
		{models.JobProcessing, 50, "Detecting faces in generated image..."},
		{models.JobProcessing, 75, "Swapping faces from your photos..."},
		{models.JobProcessing, 90, "Finalizing your image..."},
		{models.JobProcessing, 100, "Processing..."},
		{models.JobCompleted, 100, "Generation complete!"},
		{models.JobFailed, 0, "Generation failed"},
	}
	for _, tc := range cases {
		if got := StatusMessage(tc.status, tc.progress); got != tc.want {
			t.Errorf("StatusMessage(%s, %d) = %q, want %q", tc.status, tc.progress, got, tc.want)
		}
	}
}

func TestEstimatedTimeRemaining(t *testing.T) {
	cases := map[int]int{0: 50, 1: 50, 20: 40, 90: 5, 99: 1, 100: 0}
	for progress, want := range cases {
		if got := EstimatedTimeRemaining(progress); got != want {
			t.Errorf("EstimatedTimeRemaining(%d) = %d, want %d", progress, got, want)
		}
	}
}

func TestResultIDRoundTrip(t *testing.T) {
	for i := 0; i < 20; i++ {
		id := uuid.NewString()
		if got := JobIDFromResult(ResultID(id)); got != id {
			t.Fatalf("round trip of %q gave %q", id, got)
		}
	}
}
