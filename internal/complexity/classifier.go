// Package complexity decides whether a finished conversation is worth
// summarizing into long-term memory.
package complexity

import (
	"regexp"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/tokens"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/transcript"
)

// Default thresholds.
const (
	DefaultMinMessages      = 8
	DefaultMinTokens        = 600
	DefaultComplexMinTokens = 350

	// lengthOverrideFactor lets long conversations through regardless of
	// how many turns they took.
	lengthOverrideFactor = 1.6
	minSignals           = 2
	minTurnsPerSide      = 2
)

// signalPattern matches technical markers in either language.
var signalPattern = regexp.MustCompile("(?i)```|代码|排查|调试|错误|异常|性能|架构|方案|接口|数据库|脚本|部署|测试|优化|api|sql|stack|trace|exception|debug|algorithm|bug")

// Stats summarizes a transcript for gating.
type Stats struct {
	MessageCount      int
	TotalTokens       int
	UserTurns         int
	AssistantTurns    int
	ComplexitySignals int
}

// Rule identifies which policy rule accepted a conversation.
type Rule string

const (
	RuleNone      Rule = ""
	RuleVolume    Rule = "volume"
	RuleLength    Rule = "length"
	RuleTechnical Rule = "technical"
)

// Thresholds are the tunable gate limits.
type Thresholds struct {
	MinMessages      int
	MinTokens        int
	ComplexMinTokens int
}

// DefaultThresholds returns the standard limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinMessages:      DefaultMinMessages,
		MinTokens:        DefaultMinTokens,
		ComplexMinTokens: DefaultComplexMinTokens,
	}
}

// Classifier applies Thresholds to Stats.
type Classifier struct {
	t Thresholds
}

// NewClassifier creates a classifier; zero fields fall back to defaults.
func NewClassifier(t Thresholds) *Classifier {
	def := DefaultThresholds()
	if t.MinMessages <= 0 {
		t.MinMessages = def.MinMessages
	}
	if t.MinTokens <= 0 {
		t.MinTokens = def.MinTokens
	}
	if t.ComplexMinTokens <= 0 {
		t.ComplexMinTokens = def.ComplexMinTokens
	}
	return &Classifier{t: t}
}

// Thresholds returns the effective limits.
func (c *Classifier) Thresholds() Thresholds { return c.t }

// ShouldSummarize reports whether a conversation passes the gate.
func (c *Classifier) ShouldSummarize(s Stats) bool {
	return c.Decide(s) != RuleNone
}

// Decide returns the first rule that accepts s, or RuleNone.
func (c *Classifier) Decide(s Stats) Rule {
	if s.MessageCount >= c.t.MinMessages && s.TotalTokens >= c.t.MinTokens {
		return RuleVolume
	}

	if float64(s.TotalTokens) >= lengthOverrideFactor*float64(c.t.MinTokens) {
		return RuleLength
	}

	// Short but dense technical exchanges.
	if s.TotalTokens >= c.t.ComplexMinTokens &&
		s.ComplexitySignals >= minSignals &&
		s.UserTurns >= minTurnsPerSide &&
		s.AssistantTurns >= minTurnsPerSide {
		return RuleTechnical
	}

	return RuleNone
}

// ComputeStats measures a transcript. Token totals are the sum of the
// per-line counts of "role: content".
func ComputeStats(tok tokens.Tokenizer, turns []transcript.Turn) Stats {
	lines := transcript.Lines(turns)

	total := 0
	for _, line := range lines {
		total += tok.Count(line)
	}

	return Stats{
		MessageCount:      len(turns),
		TotalTokens:       total,
		UserTurns:         transcript.CountRole(turns, transcript.RoleUser),
		AssistantTurns:    transcript.CountRole(turns, transcript.RoleAssistant),
		ComplexitySignals: CountSignals(transcript.Format(turns)),
	}
}

// CountSignals counts technical markers in text.
func CountSignals(text string) int {
	return len(signalPattern.FindAllStringIndex(text, -1))
}
