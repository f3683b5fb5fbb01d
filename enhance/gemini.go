package enhance

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini enhances prompts with a Gemini text model.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Enhance(ctx context.Context, prompt string) (Enhancement, error) {
	temperature := float32(0.75)
	result, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(userMessage(prompt)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       &temperature,
			MaxOutputTokens:   300,
		},
	)
	if err != nil {
		return Enhancement{}, fmt.Errorf("Gemini enhancement failed: %v", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return Enhancement{}, fmt.Errorf("no response from model %s", g.model)
	}

	tokens := 0
	if result.UsageMetadata != nil {
		tokens = int(result.UsageMetadata.TotalTokenCount)
	}

	return Enhancement{
		OriginalPrompt: prompt,
		EnhancedPrompt: Clean(text),
		Improvements: []string{
			"Enhanced with " + g.model,
			"Added professional photography terminology",
			"Specified lighting and composition details",
		},
		Model:      g.model,
		Provider:   "Google Gemini",
		TokensUsed: tokens,
	}, nil
}
