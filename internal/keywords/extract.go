// Package keywords extracts keyword tags from summaries and matches them
// against live user input.
package keywords

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Token weights. CJK runs carry more meaning per token than latin words.
const (
	cjkWeight   = 1.2
	latinWeight = 1.0
)

var (
	lineBreaks = regexp.MustCompile(`[\r\n\t]+`)
	nonWord    = regexp.MustCompile(`[^\x{4e00}-\x{9fa5}a-z0-9_\- ]`)
	spaces     = regexp.MustCompile(`\s+`)
	cjkRun     = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]{2,8}`)
	latinWord  = regexp.MustCompile(`[a-z][a-z0-9_\-]{2,}`)
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "with": {}, "from": {}, "that": {}, "this": {},
	"have": {}, "will": {}, "your": {}, "you": {}, "for": {}, "are": {},
	"was": {}, "not": {}, "can": {}, "has": {}, "had": {}, "about": {},
	"into": {}, "but": {}, "use": {}, "using": {},
}

// normalize lowercases text and keeps only CJK ideographs, latin letters,
// digits, '_' and '-', separated by single spaces.
func normalize(text string) string {
	s := strings.ToLower(text)
	s = lineBreaks.ReplaceAllString(s, " ")
	s = nonWord.ReplaceAllString(s, " ")
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

type scored struct {
	token string
	score float64
}

// Extract returns up to maxCount keywords ranked by frequency score, then
// by token length. Ties keep first-seen order, so the result is
// deterministic for identical input.
func Extract(text string, maxCount int) []string {
	if maxCount <= 0 {
		return nil
	}
	normalized := normalize(text)
	if normalized == "" {
		return nil
	}

	var order []*scored
	index := make(map[string]*scored)
	add := func(token string, weight float64) {
		if s, ok := index[token]; ok {
			s.score += weight
			return
		}
		s := &scored{token: token, score: weight}
		index[token] = s
		order = append(order, s)
	}

	for _, token := range cjkRun.FindAllString(normalized, -1) {
		add(token, cjkWeight)
	}
	for _, token := range latinWord.FindAllString(normalized, -1) {
		if _, stop := stopWords[token]; stop {
			continue
		}
		add(token, latinWeight)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].score != order[j].score {
			return order[i].score > order[j].score
		}
		return utf8.RuneCountInString(order[i].token) > utf8.RuneCountInString(order[j].token)
	})

	if len(order) > maxCount {
		order = order[:maxCount]
	}
	out := make([]string, len(order))
	for i, s := range order {
		out[i] = s.token
	}
	return out
}
