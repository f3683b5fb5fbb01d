package services

import (
	"context"
	"strings"
	"testing"

	"github.com/krishkalaria12/snap-swap/apperror"
)

func TestEnhanceValidation(t *testing.T) {
	e := newEnv(t, envConfig{})
	ctx := context.Background()

	for _, prompt := range []string{"", "ab", strings.Repeat("x", 501)} {
		_, err := e.prompts.Enhance(ctx, prompt, nil)
		expectCode(t, err, apperror.CodeValidation)
	}
}

func TestEnhanceEchoesContext(t *testing.T) {
	e := newEnv(t, envConfig{})

	promptContext := map[string]any{"style": "noir"}
	res, err := e.prompts.Enhance(context.Background(), "a cat", promptContext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OriginalPrompt != "a cat" || res.EnhancedPrompt == "" {
		t.Errorf("unexpected enhancement %+v", res)
	}
	if got, ok := res.Context.(map[string]any); !ok || got["style"] != "noir" {
		t.Errorf("expected context to be echoed, got %v", res.Context)
	}
}
