// Package llm provides the SQL synthesizer clients for OpenAI-compatible
// and Anthropic endpoints, plus the error classification and circuit
// breaking around them.
package llm

import (
	"context"
)

// Synthesizer is the interface the query pipeline uses to obtain a SQL
// completion. Use it for dependency injection to enable mocking in tests.
type Synthesizer interface {
	// GenerateResponse returns the raw completion text for a prompt.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// Ensure both clients implement Synthesizer at compile time.
var (
	_ Synthesizer = (*Client)(nil)
	_ Synthesizer = (*AnthropicClient)(nil)
)
