package summary

import "strings"

const (
	// Family is the model-name prefix every candidate must carry.
	Family = "deepseek"

	// DefaultModel is used when the configured primary is outside Family.
	DefaultModel = "deepseek-chat"

	// Labels recorded when no candidate produced text.
	ModelProviderFallback = "deepseek-fallback"
	ModelLocalFallback    = "local-fallback"

	// Temperature for every summarization request.
	Temperature = 0.2
)

// FallbackModels are tried after the primary, in order.
var FallbackModels = []string{"deepseek-chat", "deepseek-reasoner"}

// Primary resolves the configured model name to the first candidate.
func Primary(configured string) string {
	configured = strings.TrimSpace(configured)
	if configured != "" && inFamily(configured) {
		return configured
	}
	return DefaultModel
}

// Candidates returns the ordered, deduplicated list of models to try.
func Candidates(configured string) []string {
	all := append([]string{Primary(configured)}, FallbackModels...)

	seen := make(map[string]struct{}, len(all))
	out := make([]string, 0, len(all))
	for _, model := range all {
		model = strings.TrimSpace(model)
		if !inFamily(model) {
			continue
		}
		if _, ok := seen[model]; ok {
			continue
		}
		seen[model] = struct{}{}
		out = append(out, model)
	}
	return out
}

func inFamily(model string) bool {
	return strings.HasPrefix(strings.ToLower(model), Family)
}
