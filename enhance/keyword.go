package enhance

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var qualityKeywords = []string{
	"professional photography",
	"high resolution",
	"8K quality",
	"photorealistic",
}

// substitutions expand bare subjects into scene descriptions. Order matters
// only for readability; matches are whole words.
var substitutions = []struct {
	word    string
	replace string
}{
	{"beach", "pristine tropical beach during golden hour"},
	{"mountain", "majestic mountain range under dramatic sky"},
	{"mountains", "majestic mountain range under dramatic sky"},
	{"city", "vibrant city skyline at dusk"},
	{"forest", "lush green forest with soft dappled sunlight"},
	{"sunset", "warm glowing sunset"},
	{"night", "atmospheric night scene with ambient lights"},
	{"snow", "fresh powder snow under crisp winter light"},
	{"party", "lively party with warm ambient lighting"},
	{"dinner", "elegant dinner setting with candlelight"},
	{"cafe", "cozy cafe with warm interior lighting"},
	{"portrait", "professional portrait with shallow depth of field"},
	{"cat", "adorable cat with ultra detailed fur"},
	{"dog", "happy dog with detailed fur texture"},
	{"friends", "group of friends with candid expressions"},
}

var wordPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(substitutions))
	for i, s := range substitutions {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(s.word) + `\b`)
	}
	return out
}()

// Keyword is the offline enhancer: a substitution table plus quality terms.
type Keyword struct{}

func (Keyword) Enhance(_ context.Context, prompt string) (Enhancement, error) {
	expanded := strings.TrimSpace(prompt)
	replaced := 0
	for i, re := range wordPatterns {
		if re.MatchString(expanded) {
			expanded = re.ReplaceAllString(expanded, substitutions[i].replace)
			replaced++
		}
	}

	improvements := []string{"Added professional photography quality keywords"}
	if replaced > 0 {
		improvements = append([]string{fmt.Sprintf("Expanded %d scene keyword(s) into detailed descriptions", replaced)}, improvements...)
	}

	return Enhancement{
		OriginalPrompt: prompt,
		EnhancedPrompt: qualityPrompt(expanded),
		Improvements:   improvements,
		Model:          "keyword",
		Provider:       "Local",
	}, nil
}

func qualityPrompt(prompt string) string {
	return fmt.Sprintf("Professional high-quality photograph: %s, %s, sharp focus, vivid colors",
		prompt, strings.Join(qualityKeywords, ", "))
}
