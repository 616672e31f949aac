package llm

import (
	"context"
)

// MockSynthesizer is a configurable mock for testing synthesis callers.
// Set the function field to control behavior in tests.
type MockSynthesizer struct {
	// GenerateResponseFunc is called when GenerateResponse is invoked.
	// If nil, returns an empty string and nil error.
	GenerateResponseFunc func(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Endpoint is returned by GetEndpoint. Defaults to "http://mock-endpoint".
	Endpoint string

	// Call tracking for verification
	GenerateResponseCalls int
	Prompts               []string
}

// NewMockSynthesizer creates a new mock with sensible defaults.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{
		Model:    "mock-model",
		Endpoint: "http://mock-endpoint",
	}
}

// GenerateResponse implements Synthesizer.
func (m *MockSynthesizer) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	m.GenerateResponseCalls++
	m.Prompts = append(m.Prompts, prompt)
	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, prompt, systemMessage, temperature)
	}
	return "", nil
}

// GetModel implements Synthesizer.
func (m *MockSynthesizer) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// GetEndpoint implements Synthesizer.
func (m *MockSynthesizer) GetEndpoint() string {
	if m.Endpoint == "" {
		return "http://mock-endpoint"
	}
	return m.Endpoint
}

// Reset clears call tracking.
func (m *MockSynthesizer) Reset() {
	m.GenerateResponseCalls = 0
	m.Prompts = nil
}

// Ensure MockSynthesizer implements Synthesizer at compile time.
var _ Synthesizer = (*MockSynthesizer)(nil)
