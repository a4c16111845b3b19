package agent

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiAgent drives Gemini text generation through the genai client.
type GeminiAgent struct {
	client       *genai.Client
	model        string
	temperature  float64
	systemPrompt string
}

// NewGeminiAgent creates a Gemini-backed collaborator.
func NewGeminiAgent(ctx context.Context, apiKey, model string, temperature float64, systemPrompt string) (*GeminiAgent, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiAgent{
		client:       client,
		model:        model,
		temperature:  temperature,
		systemPrompt: systemPrompt,
	}, nil
}

// Invoke accepts any of the learned payload shapes and returns generated
// text.
func (g *GeminiAgent) Invoke(ctx context.Context, payload any) (any, error) {
	prompt, err := PromptFromPayload(payload)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(g.temperature)),
	}
	if g.systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: g.systemPrompt}},
		}
	}

	response, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return nil, err
	}
	text := response.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}

// PromptFromPayload flattens any accepted payload shape back into prompt
// text.
func PromptFromPayload(payload any) (string, error) {
	switch v := payload.(type) {
	case string:
		return v, nil
	case map[string]any:
		if input, ok := v["input"].(string); ok {
			return input, nil
		}
		if messages, ok := v["messages"].([]Message); ok {
			var parts []string
			for _, m := range messages {
				parts = append(parts, m.Content)
			}
			return strings.Join(parts, "\n"), nil
		}
		if messages, ok := v["messages"].([]any); ok {
			var parts []string
			for _, item := range messages {
				if m, ok := item.(map[string]any); ok {
					if content, ok := m["content"].(string); ok {
						parts = append(parts, content)
					}
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "\n"), nil
			}
		}
	}
	return "", fmt.Errorf("unsupported payload shape %T", payload)
}
