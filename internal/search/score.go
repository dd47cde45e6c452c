package search

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPartRunes = 2
	// querySeparators split a query into parts alongside any Unicode space.
	querySeparators = ",.;:!?，。；：！？、"
)

// Cosine returns the cosine similarity of a and b in [-1, 1]. Vectors of
// different length or zero magnitude score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Rounding can push identical vectors a hair past 1.
	return math.Max(-1, math.Min(1, sim))
}

// normalizeText lowercases s and collapses every run of Unicode space,
// including the ideographic space U+3000, into a single ASCII space.
func normalizeText(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), unicode.IsSpace), " ")
}

func isQuerySeparator(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(querySeparators, r)
}

// queryParts splits a normalized query into tokens of at least two runes.
func queryParts(normalizedQuery string) []string {
	var parts []string
	for _, part := range strings.FieldsFunc(normalizedQuery, isQuerySeparator) {
		if utf8.RuneCountInString(part) >= minPartRunes {
			parts = append(parts, part)
		}
	}
	return parts
}

// Lexical scores text against query in [0, 2]: 1 when the whole query
// occurs in the text, plus the fraction of query tokens that occur.
func Lexical(query, text string) float64 {
	q := normalizeText(query)
	t := normalizeText(text)
	if q == "" || t == "" {
		return 0
	}

	var score float64
	if strings.Contains(t, q) {
		score = 1
	}

	parts := queryParts(q)
	if len(parts) == 0 {
		return score
	}
	hits := 0
	for _, part := range parts {
		if strings.Contains(t, part) {
			hits++
		}
	}
	return score + float64(hits)/float64(len(parts))
}
