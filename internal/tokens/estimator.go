// Package tokens estimates prompt token counts for diagnostic reporting.
package tokens

import (
	"github.com/tiktoken-go/tokenizer"
)

// Estimator counts tokens with a tiktoken codec when one is available and
// falls back to a character-based estimate otherwise. Perplexity does not
// publish its tokenizer; cl100k_base tracks it closely enough for the
// per-stage diagnostics this feeds.
type Estimator struct {
	codec tokenizer.Codec
}

// NewEstimator creates an estimator backed by the cl100k_base encoding.
func NewEstimator() *Estimator {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		// Estimation still works via the character heuristic.
		return &Estimator{}
	}
	return &Estimator{codec: codec}
}

// Estimate returns the approximate token count of text.
func (e *Estimator) Estimate(text string) int {
	if text == "" {
		return 0
	}
	if e.codec != nil {
		if ids, _, err := e.codec.Encode(text); err == nil {
			return len(ids)
		}
	}
	// Rough heuristic: about four characters per token for English text.
	return (len(text) + 3) / 4
}
