package imagegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/krishkalaria12/snap-swap/imageutil"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Gemini generates images with a Gemini image model. An UNAVAILABLE (503)
// response is retried once, same as the Hugging Face client.
type Gemini struct {
	client     *genai.Client
	model      string
	retryDelay time.Duration
}

func NewGemini(ctx context.Context, apiKey, model string, retryDelay time.Duration) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}
	return &Gemini{client: client, model: model, retryDelay: retryDelay}, nil
}

func (g *Gemini) Model() string {
	return g.model
}

func (g *Gemini) Generate(ctx context.Context, prompt string) Result {
	result, err := g.generateContent(ctx, prompt)
	if err != nil && isUnavailable(err) {
		log.Info().Dur("delay", g.retryDelay).Msg("Gemini unavailable, retrying once")
		if werr := wait(ctx, g.retryDelay); werr != nil {
			return failed(werr.Error())
		}
		result, err = g.generateContent(ctx, prompt)
	}
	if err != nil {
		return failed(fmt.Sprintf("Failed to generate image: %v", err))
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return failed("No image content in response")
	}

	for _, part := range result.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = "image/png"
			}
			return Result{Success: true, ImageData: imageutil.DataURL(mimeType, part.InlineData.Data)}
		}
	}

	return failed("No image data found in response")
}

func (g *Gemini) generateContent(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	return g.client.Models.GenerateContent(ctx, g.model, genai.Text(injectSysPrompt(prompt)), &genai.GenerateContentConfig{})
}

func injectSysPrompt(prompt string) string {
	return fmt.Sprintf(`You are an AI image generation assistant. Create a photorealistic image for the request below. Focus on:

- Clear visual elements (colors, composition, lighting, style)
- Natural, well-lit faces suitable for face replacement
- Safe, appropriate content only

User request: %s`, prompt)
}

func isUnavailable(err error) bool {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusServiceUnavailable
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "503") || strings.Contains(msg, "unavailable")
}
