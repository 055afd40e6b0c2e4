package knowledge

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding is used when no encoding is known for the configured
// model. cl100k_base over-counts slightly for older models, which errs
// on the safe side of the budget.
const fallbackEncoding = "cl100k_base"

// TokenCounter counts tokens the way the generation model's tokenizer
// does. The Retriever depends on this interface; tests substitute
// deterministic fakes.
type TokenCounter interface {
	CountTokens(text string) int
}

// TiktokenCounter is the production TokenCounter backed by the model's
// BPE encoding. Safe for concurrent use.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter builds a counter for the given model name, falling
// back to cl100k_base when the model has no registered encoding.
func NewTiktokenCounter(model string) (*TiktokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, fmt.Errorf("loading fallback encoding %s: %w", fallbackEncoding, err)
		}
	}
	return &TiktokenCounter{enc: enc}, nil
}

// CountTokens returns the number of BPE tokens in text.
func (c *TiktokenCounter) CountTokens(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}
