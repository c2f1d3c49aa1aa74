// Package tokens provides token-count estimation for context budgeting.
//
// The engine budgets its assembled summary against a model context window.
// The default estimator is a fixed 4-characters-per-token heuristic; a
// tiktoken-backed estimator is available for deployments that want exact
// counts for OpenAI-family tokenizers.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Estimator estimates how many model tokens a text consumes.
type Estimator interface {
	// Estimate returns the estimated token count for text.
	Estimate(text string) int
}

// Heuristic estimates tokens as ceil(len/4). This is the engine default and
// the estimator the summary-budget guarantees are specified against.
type Heuristic struct{}

// Estimate implements Estimator.
func (Heuristic) Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

var (
	tk     *tiktoken.Tiktoken
	tkOnce sync.Once
	tkErr  error
)

// Tiktoken estimates tokens with the cl100k_base BPE encoding.
// The encoding is loaded lazily and shared across instances.
type Tiktoken struct{}

// NewTiktoken returns a Tiktoken estimator, or an error if the encoding
// cannot be loaded.
func NewTiktoken() (Tiktoken, error) {
	if err := loadEncoding(); err != nil {
		return Tiktoken{}, err
	}
	return Tiktoken{}, nil
}

func loadEncoding() error {
	tkOnce.Do(func() {
		tk, tkErr = tiktoken.GetEncoding("cl100k_base")
	})
	return tkErr
}

// Estimate implements Estimator. If the encoding cannot be loaded the
// heuristic estimate is returned instead, so a zero-value Tiktoken is
// always safe to call.
func (Tiktoken) Estimate(text string) int {
	if text == "" {
		return 0
	}
	if loadEncoding() != nil {
		return Heuristic{}.Estimate(text)
	}
	return len(tk.Encode(text, nil, nil))
}
