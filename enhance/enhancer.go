// Package enhance rewrites short user prompts into detailed image prompts.
package enhance

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

type Enhancement struct {
	OriginalPrompt string
	EnhancedPrompt string
	Improvements   []string
	Model          string
	Provider       string
	TokensUsed     int
}

type Enhancer interface {
	Enhance(ctx context.Context, prompt string) (Enhancement, error)
}

const systemPrompt = `You are an expert AI assistant specialized in enhancing prompts for AI image generation.

Your task is to transform simple, casual prompts into detailed, professional prompts that will produce high-quality, photorealistic images.

IMPORTANT RULES:
1. Keep the core subject and intent of the original prompt
2. Add professional photography terminology (aperture, composition, lighting)
3. Specify lighting conditions (golden hour, natural light, studio lighting, etc.)
4. Add composition details (rule of thirds, bokeh, depth of field, wide angle, etc.)
5. Include quality keywords (8K resolution, ultra detailed, photorealistic, high resolution, sharp focus)
6. Add style descriptors (cinematic, professional photography, artistic, etc.)
7. Mention camera/lens details if relevant (DSLR, 50mm lens, etc.)
8. Keep the enhanced prompt under 150 words
9. Make it sound natural and coherent
10. NEVER add inappropriate content or change the core subject
11. Focus on visual elements that create stunning photographs

Reply with the enhanced prompt only.

EXAMPLES:

User: "me on beach"
Enhanced: "Professional portrait photograph of a person standing on pristine tropical beach during golden hour, crystal clear turquoise ocean water, warm sunset lighting casting natural glow, soft background blur with bokeh effect, shot with 50mm lens at f/2.8, rule of thirds composition, photorealistic, 8K resolution"

User: "cat sleeping"
Enhanced: "Professional close-up photograph of adorable cat sleeping peacefully on soft blanket, natural window lighting creating soft shadows, ultra detailed fur texture, cozy home setting in background with bokeh, shot with macro 100mm lens at f/2.8, photorealistic, 8K resolution"`

func userMessage(prompt string) string {
	return `Enhance this image generation prompt: "` + prompt + `"`
}

var leadingNoise = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Enhanced:\s*`),
	regexp.MustCompile(`(?i)^Output:\s*`),
	regexp.MustCompile(`(?i)^Prompt:\s*`),
	regexp.MustCompile(`(?i)^Here's the enhanced prompt:\s*`),
	regexp.MustCompile(`(?i)^Here is the enhanced prompt:\s*`),
}

// Clean strips labels and wrapping quotes that chat models tend to add.
func Clean(text string) string {
	cleaned := strings.TrimSpace(text)
	for _, re := range leadingNoise {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) >= 2 && strings.HasPrefix(cleaned, `"`) && strings.HasSuffix(cleaned, `"`) {
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	return cleaned
}

// WithFallback returns an Enhancer that answers with the local fallback
// whenever primary fails. The returned Enhancer never errors.
func WithFallback(primary Enhancer) Enhancer {
	return fallbackEnhancer{primary: primary}
}

type fallbackEnhancer struct {
	primary Enhancer
}

func (f fallbackEnhancer) Enhance(ctx context.Context, prompt string) (Enhancement, error) {
	res, err := f.primary.Enhance(ctx, prompt)
	if err == nil {
		return res, nil
	}

	log.Warn().Err(err).Msg("Prompt enhancement failed, using fallback")
	return Enhancement{
		OriginalPrompt: prompt,
		EnhancedPrompt: qualityPrompt(prompt),
		Improvements:   []string{"Fallback enhancement applied (API temporarily unavailable)"},
		Model:          "fallback",
		Provider:       "Local",
	}, nil
}
