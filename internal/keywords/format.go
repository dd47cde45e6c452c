package keywords

import (
	"fmt"
	"regexp"
	"strings"
)

// Canonical summary layout labels.
const (
	KeywordLabel = "关键词"
	SummaryLabel = "总结"

	// CanonicalCount is the number of keyword slots in a stored summary.
	CanonicalCount = 3

	// MaxSummaryRunes caps the summary paragraph.
	MaxSummaryRunes = 280

	emptySummary = "暂无可用总结。"
)

var (
	keywordInline  = regexp.MustCompile(`(?:^|\n)\s*关键词\s*[:：]\s*([^\n]+)`)
	keywordBlock   = regexp.MustCompile(`【关键词】\s*\n([^\n]+)`)
	keywordEnglish = regexp.MustCompile(`(?i)(?:^|\n)\s*keywords?\s*[:：]\s*([^\n]+)`)

	summaryInline  = regexp.MustCompile(`(?s)(?:^|\n)\s*总结\s*[:：]\s*(.*)$`)
	summaryCore    = regexp.MustCompile(`(?s)【核心结论】\s*(.*?)(?:\n【|$)`)
	summaryEnglish = regexp.MustCompile(`(?is)(?:^|\n)\s*summary\s*[:：]\s*(.*)$`)

	keywordSplit = regexp.MustCompile(`[\s,，、;；|]+`)
	bulletPrefix = regexp.MustCompile(`^[-*]\s*`)
)

func firstGroup(text string, patterns ...*regexp.Regexp) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil && m[1] != "" {
			return m[1]
		}
	}
	return ""
}

func keywordSection(text string) string {
	return firstGroup(text, keywordInline, keywordBlock, keywordEnglish)
}

func summarySection(text string) string {
	if s := firstGroup(text, summaryInline, summaryCore, summaryEnglish); s != "" {
		return s
	}
	return text
}

func splitKeywords(raw string, maxCount int) []string {
	var items []string
	for _, item := range keywordSplit.Split(raw, -1) {
		item = bulletPrefix.ReplaceAllString(strings.TrimSpace(item), "")
		if item != "" {
			items = append(items, item)
		}
	}
	return dedupe(items, maxCount)
}

// ExtractStructured prefers keywords declared in a labeled keyword section
// and supplements them with frequency-scored keywords when fewer than
// maxCount are declared.
func ExtractStructured(text string, maxCount int) []string {
	if maxCount <= 0 {
		return nil
	}

	var declared []string
	if section := keywordSection(text); section != "" {
		declared = splitKeywords(section, maxCount)
	}
	if len(declared) >= maxCount {
		return declared[:maxCount]
	}

	merged := append(declared, Extract(text, maxCount)...)
	return dedupe(merged, maxCount)
}

// paragraph flattens text into one line, dropping bullet markers, and
// truncates it to MaxSummaryRunes.
func paragraph(text string) string {
	var parts []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r", ""), "\n") {
		line = strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if line != "" {
			parts = append(parts, line)
		}
	}
	compact := strings.TrimSpace(spaces.ReplaceAllString(strings.Join(parts, " "), " "))

	runes := []rune(compact)
	if len(runes) <= MaxSummaryRunes {
		return compact
	}
	return string(runes[:MaxSummaryRunes]) + "..."
}

// NormalizeSummary rewrites a model response (or nothing) into the
// canonical "关键词：a，b，c\n总结：..." layout. The transcript supplies the
// summary when the response has none and contributes keyword candidates.
// The result is never empty and always has CanonicalCount keywords.
func NormalizeSummary(raw, transcript string) string {
	summary := paragraph(summarySection(raw))
	if summary == "" {
		summary = paragraph(transcript)
	}
	if summary == "" {
		summary = emptySummary
	}

	kws := ExtractStructured(raw+"\n"+transcript, CanonicalCount)
	for len(kws) < CanonicalCount {
		kws = append(kws, fmt.Sprintf("%s%d", KeywordLabel, len(kws)+1))
	}

	return fmt.Sprintf("%s：%s\n%s：%s", KeywordLabel, strings.Join(kws, "，"), SummaryLabel, summary)
}

// Parse splits canonical summary text into its keywords and summary body.
func Parse(text string) (keywords []string, summary string) {
	if section := keywordSection(text); section != "" {
		keywords = splitKeywords(section, 0)
	}
	return keywords, strings.TrimSpace(summarySection(text))
}
