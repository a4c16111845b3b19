package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ContentCarrier is implemented by structured responses that expose their
// content parts without a fixed concrete type.
type ContentCarrier interface {
	Content() any
}

// ResponseText normalizes a collaborator response to plain text: direct
// strings, output/content-keyed maps, message lists (recursing on the last
// element), content carriers with string or part-list content, and a generic
// structured fallback serialized to JSON.
func ResponseText(response any) string {
	switch v := response.(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v["output"].(string); ok {
			return s
		}
		if s, ok := v["content"].(string); ok {
			return s
		}
		if messages, ok := v["messages"].([]any); ok && len(messages) > 0 {
			return ResponseText(messages[len(messages)-1])
		}
	}

	if carrier, ok := response.(ContentCarrier); ok {
		if text, ok := carrierText(carrier.Content()); ok {
			return text
		}
	}

	if data, err := json.Marshal(response); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", response)
}

func carrierText(content any) (string, bool) {
	switch v := content.(type) {
	case string:
		return v, true
	case []string:
		return strings.Join(v, "\n"), true
	case []any:
		var parts []string
		for _, item := range v {
			switch part := item.(type) {
			case string:
				parts = append(parts, part)
			case map[string]any:
				if text, ok := part["text"].(string); ok {
					parts = append(parts, text)
				}
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n"), true
		}
	}
	return "", false
}
