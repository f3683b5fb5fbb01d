package services

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/krishkalaria12/snap-swap/apperror"
	"github.com/krishkalaria12/snap-swap/enhance"
)

const (
	minEnhancePrompt = 3
	maxEnhancePrompt = 500
)

type EnhancedPrompt struct {
	OriginalPrompt string   `json:"originalPrompt"`
	EnhancedPrompt string   `json:"enhancedPrompt"`
	Improvements   []string `json:"improvements"`
	Model          string   `json:"model"`
	Provider       string   `json:"provider"`
	TokensUsed     int      `json:"tokensUsed"`
	ProcessingTime float64  `json:"processingTime"`
	Context        any      `json:"context"`
}

type PromptService struct {
	enhancer enhance.Enhancer
}

func NewPromptService(enhancer enhance.Enhancer) *PromptService {
	return &PromptService{enhancer: enhancer}
}

// Enhance validates prompt and runs it through the configured enhancer.
// promptContext is echoed back untouched.
func (s *PromptService) Enhance(ctx context.Context, prompt string, promptContext any) (*EnhancedPrompt, error) {
	if prompt == "" {
		return nil, apperror.Validation("Valid prompt is required")
	}
	n := utf8.RuneCountInString(prompt)
	if n < minEnhancePrompt {
		return nil, apperror.Validation("Prompt must be at least 3 characters long")
	}
	if n > maxEnhancePrompt {
		return nil, apperror.Validation("Prompt must be less than 500 characters")
	}

	start := time.Now()
	res, err := s.enhancer.Enhance(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &EnhancedPrompt{
		OriginalPrompt: res.OriginalPrompt,
		EnhancedPrompt: res.EnhancedPrompt,
		Improvements:   res.Improvements,
		Model:          res.Model,
		Provider:       res.Provider,
		TokensUsed:     res.TokensUsed,
		ProcessingTime: roundSeconds(time.Since(start).Seconds()),
		Context:        promptContext,
	}, nil
}
