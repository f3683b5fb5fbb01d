package enhance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// --- Clean ---

func TestCleanStripsPrefixesAndQuotes(t *testing.T) {
	cases := map[string]string{
		`Enhanced: "a cat on a sofa"`:                 "a cat on a sofa",
		"Here is the enhanced prompt: a dog running":  "a dog running",
		"here's the enhanced prompt:   sunny meadow": "sunny meadow",
		`"quoted only"`:                               "quoted only",
		"plain prompt":                                "plain prompt",
	}
	for in, want := range cases {
		if got := Clean(in); got != want {
			t.Errorf("Clean(%q) = %q, want %q", in, got, want)
		}
	}
}

// --- Keyword ---

func TestKeywordExpandsSubjects(t *testing.T) {
	res, err := Keyword{}.Enhance(context.Background(), "me on beach")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.EnhancedPrompt, "pristine tropical beach during golden hour") {
		t.Errorf("expected beach expansion, got %q", res.EnhancedPrompt)
	}
	if !strings.HasSuffix(res.EnhancedPrompt, "sharp focus, vivid colors") {
		t.Errorf("expected quality suffix, got %q", res.EnhancedPrompt)
	}
	if res.Provider != "Local" {
		t.Errorf("expected Local provider, got %q", res.Provider)
	}
}

func TestKeywordMatchesWholeWordsOnly(t *testing.T) {
	res, _ := Keyword{}.Enhance(context.Background(), "category theory")
	if strings.Contains(res.EnhancedPrompt, "adorable") {
		t.Errorf("expected no substitution inside words, got %q", res.EnhancedPrompt)
	}
}

// --- Fallback ---

type failing struct{}

func (failing) Enhance(context.Context, string) (Enhancement, error) {
	return Enhancement{}, errors.New("upstream down")
}

func TestFallbackOnError(t *testing.T) {
	res, err := WithFallback(failing{}).Enhance(context.Background(), "cat")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := "Professional high-quality photograph: cat, professional photography, high resolution, 8K quality, photorealistic, sharp focus, vivid colors"
	if res.EnhancedPrompt != want {
		t.Errorf("expected %q, got %q", want, res.EnhancedPrompt)
	}
	if res.Model != "fallback" || res.Provider != "Local" {
		t.Errorf("expected fallback/Local, got %s/%s", res.Model, res.Provider)
	}
	if len(res.Improvements) != 1 || res.Improvements[0] != "Fallback enhancement applied (API temporarily unavailable)" {
		t.Errorf("unexpected improvements %v", res.Improvements)
	}
}

// --- Groq ---

func TestGroqEnhance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer groq-key" {
			t.Errorf("expected bearer key, got %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if req.Temperature != 0.75 || req.MaxTokens != 300 || len(req.Messages) != 2 {
			t.Errorf("unexpected request %+v", req)
		}

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Enhanced: \"A cat in golden light\""}}],"usage":{"total_tokens":42}}`))
	}))
	defer srv.Close()

	g := NewGroq(GroqOptions{APIKey: "groq-key", Model: "llama-3.3-70b-versatile", BaseURL: srv.URL})
	res, err := g.Enhance(context.Background(), "cat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.EnhancedPrompt != "A cat in golden light" {
		t.Errorf("unexpected prompt %q", res.EnhancedPrompt)
	}
	if res.TokensUsed != 42 {
		t.Errorf("expected 42 tokens, got %d", res.TokensUsed)
	}
}

func TestGroqErrorStatusFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGroq(GroqOptions{APIKey: "k", Model: "m", BaseURL: srv.URL})
	if _, err := g.Enhance(context.Background(), "cat"); err == nil {
		t.Fatal("expected error from Groq")
	}

	res, err := WithFallback(g).Enhance(context.Background(), "cat")
	if err != nil || res.Model != "fallback" {
		t.Errorf("expected fallback result, got %+v, %v", res, err)
	}
}
