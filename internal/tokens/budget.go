package tokens

import (
	"strings"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/transcript"
)

// DefaultMaxInputTokens is the transcript window handed to the summarizer.
const DefaultMaxInputTokens = 6000

// Select keeps the most recent turns whose rendered lines fit in maxTokens.
// Turns are taken whole, newest first, and returned in original order
// joined by newlines. If the newest turn alone exceeds the budget the
// result is empty.
func Select(tok Tokenizer, turns []transcript.Turn, maxTokens int) string {
	if maxTokens <= 0 || len(turns) == 0 {
		return ""
	}

	lines := transcript.Lines(turns)
	used := 0
	start := len(lines)

	for i := len(lines) - 1; i >= 0; i-- {
		cost := tok.Count(lines[i])
		if used+cost > maxTokens {
			break
		}
		used += cost
		start = i
	}

	// Separators can cost tokens of their own, so the joined window is
	// re-measured and trimmed from the oldest end until it fits.
	for start < len(lines) {
		window := strings.Join(lines[start:], "\n")
		if tok.Count(window) <= maxTokens {
			return window
		}
		start++
	}
	return ""
}
