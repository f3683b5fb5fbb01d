package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/krishkalaria12/snap-swap/imageutil"
	"github.com/rs/zerolog/log"
)

const (
	DefaultHuggingFaceURL = "https://api-inference.huggingface.co/models/"
	defaultNegative       = "blurry, bad quality, distorted, ugly, deformed"
)

type HuggingFaceOptions struct {
	Token      string
	Model      string
	BaseURL    string
	RetryDelay time.Duration
	HTTPClient *http.Client
}

// HuggingFace calls the hosted inference API for a diffusion model. A 503
// (model still loading) is retried exactly once after RetryDelay.
type HuggingFace struct {
	opts HuggingFaceOptions
}

func NewHuggingFace(opts HuggingFaceOptions) *HuggingFace {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultHuggingFaceURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &HuggingFace{opts: opts}
}

func (h *HuggingFace) Model() string {
	return h.opts.Model
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	NegativePrompt    string  `json:"negative_prompt"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
}

func (h *HuggingFace) Generate(ctx context.Context, prompt string) Result {
	body, err := json.Marshal(hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			NegativePrompt:    defaultNegative,
			NumInferenceSteps: 30,
			GuidanceScale:     7.5,
		},
	})
	if err != nil {
		return failed(err.Error())
	}

	status, contentType, payload, err := h.post(ctx, body)
	if err != nil {
		return failed(err.Error())
	}

	if status == http.StatusServiceUnavailable {
		log.Info().Dur("delay", h.opts.RetryDelay).Msg("Model is loading, retrying once")
		if err := wait(ctx, h.opts.RetryDelay); err != nil {
			return failed(err.Error())
		}

		status, contentType, payload, err = h.post(ctx, body)
		if err != nil {
			return failed(err.Error())
		}
		if status != http.StatusOK {
			return failed(fmt.Sprintf("Hugging Face API error: %d", status))
		}
	}

	if status != http.StatusOK {
		return failed(fmt.Sprintf("Hugging Face API error: %d - %s", status, strings.TrimSpace(string(payload))))
	}
	if len(payload) == 0 {
		return failed("Empty image data received")
	}

	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/png"
	}
	return Result{Success: true, ImageData: imageutil.DataURL(contentType, payload)}
}

func (h *HuggingFace) post(ctx context.Context, body []byte) (int, string, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.opts.BaseURL+h.opts.Model, bytes.NewReader(body))
	if err != nil {
		return 0, "", nil, err
	}
	req.Header.Set("Authorization", "Bearer "+h.opts.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.opts.HTTPClient.Do(req)
	if err != nil {
		return 0, "", nil, fmt.Errorf("Hugging Face request failed: %v", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", nil, fmt.Errorf("failed to read Hugging Face response: %v", err)
	}
	return resp.StatusCode, resp.Header.Get("Content-Type"), payload, nil
}
