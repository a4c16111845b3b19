package agent

import (
	"context"
	"fmt"
	"strings"
)

// Options selects and configures a generation backend.
type Options struct {
	Provider     string
	APIKey       string
	Model        string
	BaseURL      string
	Temperature  float64
	SystemPrompt string
}

// NewAgent builds the collaborator that matches the configured provider.
func NewAgent(ctx context.Context, opts Options) (Agent, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "gemini"
	}

	switch provider {
	case "gemini":
		return NewGeminiAgent(ctx, opts.APIKey, opts.Model, opts.Temperature, opts.SystemPrompt)
	case "openai":
		return NewOpenAIAgent(opts.APIKey, opts.Model, opts.BaseURL, opts.Temperature, opts.SystemPrompt), nil
	default:
		return nil, fmt.Errorf("unsupported agent provider: %s", opts.Provider)
	}
}
