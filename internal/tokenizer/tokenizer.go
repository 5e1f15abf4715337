// Package tokenizer estimates token counts locally with tiktoken. Estimates
// are for reporting only and never substitute for the token counts the
// compression service reports.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// Estimator counts tokens for a given model's encoding.
type Estimator struct {
	encoding *tiktoken.Tiktoken
}

// New creates an estimator for the model, falling back to cl100k_base when
// the model is unknown to tiktoken.
func New(model string) (*Estimator, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s encoding: %w", fallbackEncoding, err)
		}
	}
	return &Estimator{encoding: encoding}, nil
}

// Count returns the estimated token count of text.
func (e *Estimator) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(e.encoding.Encode(text, nil, nil))
}
