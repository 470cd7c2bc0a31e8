// Package channel provides clients for the external analysis capability:
// given prompt text, a channel returns model-generated findings as raw text.
package channel

import (
	"context"
)

// Request describes one analysis call.
type Request struct {
	SystemPrompt  string
	UserMessage   string
	Temperature   float64
	MaxTokens     int
	StopSequences []string
}

// Channel is the analysis-channel abstraction. Implementations handle their
// own retries and timeouts; a returned error means the call could not
// produce a response after those policies were exhausted.
type Channel interface {
	Invoke(ctx context.Context, req Request) (string, error)
	Name() string
}
