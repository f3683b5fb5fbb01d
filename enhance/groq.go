package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultGroqURL = "https://api.groq.com/openai/v1"

type GroqOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Groq calls an OpenAI-compatible chat completion endpoint.
type Groq struct {
	opts GroqOptions
}

func NewGroq(opts GroqOptions) *Groq {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGroqURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Groq{opts: opts}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (g *Groq) Enhance(ctx context.Context, prompt string) (Enhancement, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage(prompt)},
		},
		Temperature: 0.75,
		MaxTokens:   300,
		TopP:        1,
	})
	if err != nil {
		return Enhancement{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.opts.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Enhancement{}, err
	}
	req.Header.Set("Authorization", "Bearer "+g.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.opts.HTTPClient.Do(req)
	if err != nil {
		return Enhancement{}, fmt.Errorf("Groq request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Enhancement{}, fmt.Errorf("Groq API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Enhancement{}, fmt.Errorf("failed to decode Groq response: %v", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return Enhancement{}, fmt.Errorf("no response from model %s", g.opts.Model)
	}

	return Enhancement{
		OriginalPrompt: prompt,
		EnhancedPrompt: Clean(parsed.Choices[0].Message.Content),
		Improvements: []string{
			"Enhanced with " + g.opts.Model,
			"Added professional photography terminology",
			"Specified lighting and composition details",
			"Optimized for photorealistic image generation",
			"Included technical camera details",
		},
		Model:      g.opts.Model,
		Provider:   "Groq API",
		TokensUsed: parsed.Usage.TotalTokens,
	}, nil
}
