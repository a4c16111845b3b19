package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIAgent drives an OpenAI-compatible chat completions endpoint.
type OpenAIAgent struct {
	client       *http.Client
	apiKey       string
	model        string
	endpoint     string
	temperature  float64
	systemPrompt string
}

type openAIChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// NewOpenAIAgent creates an OpenAI-compatible collaborator. baseURL may be
// empty (api.openai.com), a /v1 root, or a full chat/completions endpoint.
func NewOpenAIAgent(apiKey, model, baseURL string, temperature float64, systemPrompt string) *OpenAIAgent {
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/chat/completions"
	} else {
		endpoint = strings.TrimRight(endpoint, "/")
		if !strings.HasSuffix(endpoint, "/chat/completions") {
			if strings.HasSuffix(endpoint, "/v1") {
				endpoint += "/chat/completions"
			} else {
				endpoint += "/v1/chat/completions"
			}
		}
	}
	return &OpenAIAgent{
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		apiKey:       apiKey,
		model:        model,
		endpoint:     endpoint,
		temperature:  temperature,
		systemPrompt: systemPrompt,
	}
}

// Invoke accepts any of the learned payload shapes and returns generated
// text.
func (a *OpenAIAgent) Invoke(ctx context.Context, payload any) (any, error) {
	if strings.TrimSpace(a.apiKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if strings.TrimSpace(a.model) == "" {
		return nil, fmt.Errorf("openai model is required")
	}

	prompt, err := PromptFromPayload(payload)
	if err != nil {
		return nil, err
	}

	messages := []Message{}
	if a.systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: a.systemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})

	body, err := json.Marshal(openAIChatRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: a.temperature,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai chat request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("openai returned an empty response")
	}
	return parsed.Choices[0].Message.Content, nil
}
