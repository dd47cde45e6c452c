// Package tokens measures text in model tokens and selects transcript
// windows that fit a token budget.
package tokens

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// DefaultEncoding matches the GPT-3.5/4 family tokenizer.
const DefaultEncoding = "cl100k_base"

// Tokenizer counts tokens in a piece of text.
type Tokenizer interface {
	Count(text string) int
}

// Tiktoken counts tokens with a BPE encoding loaded from the embedded
// offline dictionaries, so no network access is needed.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

var loaderOnce sync.Once

// NewTiktoken loads the named encoding.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

// Count returns the number of BPE tokens in text.
func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Estimator approximates token counts at ~4 bytes per token.
// Good enough for threshold comparison, not billing-accurate.
type Estimator struct{}

// Count returns ceil(len(text)/4).
func (Estimator) Count(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}

// Default returns the tiktoken counter, or the estimator when the
// encoding cannot be loaded.
func Default() Tokenizer {
	tok, err := NewTiktoken(DefaultEncoding)
	if err != nil {
		return Estimator{}
	}
	return tok
}
