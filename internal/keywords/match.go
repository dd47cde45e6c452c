package keywords

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Match returns the pool keywords contained in input, longest first,
// deduplicated and truncated to maxCount. Both sides are compared in
// normalized form.
func Match(input string, pool []string, maxCount int) []string {
	if maxCount <= 0 {
		return nil
	}
	normalizedInput := normalize(input)
	if normalizedInput == "" {
		return nil
	}

	var hits []string
	for _, keyword := range pool {
		needle := normalize(keyword)
		if needle == "" {
			continue
		}
		if strings.Contains(normalizedInput, needle) {
			hits = append(hits, keyword)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return utf8.RuneCountInString(hits[i]) > utf8.RuneCountInString(hits[j])
	})

	return dedupe(hits, maxCount)
}

// MatchScore is the fraction of a summary's top keywords found in input.
func MatchScore(input, summaryText string) float64 {
	pool := Extract(summaryText, 10)
	if len(pool) == 0 {
		return 0
	}
	hits := Match(input, pool, 10)
	return float64(len(hits)) / float64(len(pool))
}

func dedupe(items []string, maxCount int) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
		if maxCount > 0 && len(out) == maxCount {
			break
		}
	}
	return out
}
