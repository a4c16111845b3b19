// Package contextfile persists missing items to a human-editable markdown
// side channel, so gaps survive across runs and reviewers can answer them in
// place.
package contextfile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"docdraft/internal/draft"
)

var itemHeadingRe = regexp.MustCompile(`(?m)^##[ \t]+(.+?)[ \t]*$`)

// Load reads missing items from the context file. A missing file yields an
// empty list; malformed blocks are skipped.
func Load(path string) ([]draft.MissingItem, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read context file %s: %w", path, err)
	}

	text := string(data)
	matches := itemHeadingRe.FindAllStringSubmatchIndex(text, -1)
	var items []draft.MissingItem
	for idx, match := range matches {
		start := match[1]
		end := len(text)
		if idx+1 < len(matches) {
			end = matches[idx+1][0]
		}
		fields := parseBlockFields(text[start:end])
		sectionID := strings.TrimSpace(fields["section_id"])
		question := strings.TrimSpace(fields["question"])
		if sectionID == "" || question == "" {
			continue
		}
		items = append(items, draft.MissingItem{
			ID:           strings.TrimSpace(text[match[2]:match[3]]),
			SectionID:    sectionID,
			Question:     question,
			UserResponse: strings.TrimSpace(fields["user_response"]),
		})
	}
	return items, nil
}

// Merge combines prior and newly discovered items keyed by (id, section_id).
// A non-empty user response from the prior run survives even when the
// regenerated question text differs. Items are never silently deleted, only
// superseded by a later merge with the same key.
func Merge(existing, incoming []draft.MissingItem) []draft.MissingItem {
	type key struct{ id, sectionID string }
	merged := make(map[key]draft.MissingItem, len(existing))
	for _, item := range existing {
		merged[key{item.ID, item.SectionID}] = item
	}
	for _, item := range incoming {
		k := key{item.ID, item.SectionID}
		if prior, ok := merged[k]; ok && prior.UserResponse != "" {
			item.UserResponse = prior.UserResponse
		}
		merged[k] = item
	}

	out := make([]draft.MissingItem, 0, len(merged))
	for _, item := range merged {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SectionID == out[j].SectionID {
			return out[i].ID < out[j].ID
		}
		return out[i].SectionID < out[j].SectionID
	})
	return out
}

// Write persists items to the context file.
func Write(items []draft.MissingItem, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create context directory: %w", err)
	}
	var lines []string
	for _, item := range items {
		lines = append(lines,
			"## "+item.ID,
			"section_id: "+item.SectionID,
			"question: "+item.Question,
			"user_response: "+item.UserResponse,
			"",
		)
	}
	content := strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n"
	return os.WriteFile(path, []byte(content), 0644)
}

// Lookup builds a map of section id to the user responses recorded for it,
// rendered as bullet lines for prompt embedding.
func Lookup(items []draft.MissingItem) map[string]string {
	bySection := map[string][]string{}
	for _, item := range items {
		response := strings.TrimSpace(item.UserResponse)
		if response == "" {
			continue
		}
		bySection[item.SectionID] = append(bySection[item.SectionID],
			fmt.Sprintf("- %s: %s", item.ID, response))
	}
	out := make(map[string]string, len(bySection))
	for sectionID, values := range bySection {
		out[sectionID] = strings.Join(values, "\n")
	}
	return out
}

func parseBlockFields(block string) map[string]string {
	fields := map[string]string{}
	for _, line := range strings.Split(block, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return fields
}
