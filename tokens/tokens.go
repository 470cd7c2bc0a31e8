// Package tokens converts token budgets into byte budgets and counts
// tokens in chunk payloads.
package tokens

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// BytesPerToken is the conservative ratio used to derive a byte budget
	// from a token budget.
	BytesPerToken = 4

	// DefaultTokenBudget is the per-chunk token budget for analysis calls.
	DefaultTokenBudget = 6000

	// DefaultEncoding is the BPE encoding used for exact counting.
	DefaultEncoding = "cl100k_base"
)

// BudgetBytes returns the byte budget corresponding to a token budget.
func BudgetBytes(maxTokens int) int {
	return maxTokens * BytesPerToken
}

// Estimate approximates the token count of text using the byte ratio.
func Estimate(text string) int {
	return (len(text) + BytesPerToken - 1) / BytesPerToken
}

// Counter counts tokens exactly using cached tiktoken encoders.
// Safe for concurrent use.
type Counter struct {
	encoders map[string]*tiktoken.Tiktoken
	mu       sync.RWMutex
}

// NewCounter creates a token counter.
func NewCounter() *Counter {
	return &Counter{
		encoders: make(map[string]*tiktoken.Tiktoken),
	}
}

// Count returns the exact token count of text under the named encoding.
func (c *Counter) Count(text, encoding string) (int, error) {
	encoder, err := c.encoderFor(encoding)
	if err != nil {
		return 0, err
	}
	return len(encoder.Encode(text, nil, nil)), nil
}

// encoderFor returns a cached encoder, creating it on first use.
func (c *Counter) encoderFor(encoding string) (*tiktoken.Tiktoken, error) {
	c.mu.RLock()
	encoder, ok := c.encoders[encoding]
	c.mu.RUnlock()
	if ok {
		return encoder, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if encoder, ok := c.encoders[encoding]; ok {
		return encoder, nil
	}

	encoder, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding %s: %w", encoding, err)
	}

	c.encoders[encoding] = encoder
	return encoder, nil
}
