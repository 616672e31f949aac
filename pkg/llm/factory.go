package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// NewSynthesizer creates the synthesizer client the configured provider
// asks for. An empty provider means OpenAI-compatible, which covers
// DeepSeek and self-hosted vLLM endpoints as well.
func NewSynthesizer(cfg *Config, logger *zap.Logger) (Synthesizer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return NewClient(cfg, logger)
	case "anthropic":
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
