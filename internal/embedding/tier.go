// Package embedding turns text into vectors through an ordered chain of
// providers: a hosted OpenAI (or Azure) tier, a self-hosted
// OpenAI-compatible tier and a terminal lexical tier that yields no vector.
package embedding

import (
	"strings"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/config"
)

// Tier names one step of the provider chain.
type Tier string

const (
	TierOpenAI  Tier = "openai"
	TierLocal   Tier = "local"
	TierLexical Tier = "lexical"
)

// ParseTier maps a provider name onto a tier. Unknown names start from the
// hosted tier.
func ParseTier(name string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(name))) {
	case TierLocal:
		return TierLocal
	case TierLexical:
		return TierLexical
	default:
		return TierOpenAI
	}
}

// Next returns the tier tried after t fails. Lexical is terminal.
func (t Tier) Next() Tier {
	switch t {
	case TierOpenAI:
		return TierLocal
	default:
		return TierLexical
	}
}

// IsVector reports whether the tier produces vectors.
func (t Tier) IsVector() bool {
	return t == TierOpenAI || t == TierLocal
}

// Sequence lists the tiers walked when starting from preferred, ending with
// TierLexical.
func Sequence(preferred Tier) []Tier {
	var tiers []Tier
	for t := ParseTier(string(preferred)); ; t = t.Next() {
		tiers = append(tiers, t)
		if t == TierLexical {
			return tiers
		}
	}
}

// Available reports whether creds carry what tier t needs. A tier that is
// not available is skipped without any network call.
func Available(t Tier, creds config.Credentials) bool {
	switch t {
	case TierOpenAI:
		return creds.HasHostedEmbedding()
	case TierLocal:
		return creds.HasLocalEmbedding()
	case TierLexical:
		return true
	default:
		return false
	}
}
