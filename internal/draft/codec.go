package draft

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrParse indicates a draft file that violates the serialization contract.
// Parsing is strict: a malformed draft must never be silently accepted,
// because a dropped section would corrupt the apply step's untouched-sections
// guarantee.
var ErrParse = errors.New("draft parse error")

var (
	sectionHeaderRe = regexp.MustCompile(`(?m)^##[ \t]+\[ID:([A-Za-z0-9_-]+)\][ \t]+(.+?)[ \t]*$`)
	yamlBlockRe     = regexp.MustCompile("(?s)```yaml\\s*\\n(.*?)\\n```")
)

var requiredMetadataKeys = []string{"status", "checkboxes", "attachments", "evidence", "missing_items"}

type sectionMetadata struct {
	Status       string        `yaml:"status"`
	Checkboxes   []Checkbox    `yaml:"checkboxes"`
	Attachments  []string      `yaml:"attachments"`
	Evidence     []string      `yaml:"evidence"`
	MissingItems []MissingItem `yaml:"missing_items"`
}

// ParseFile parses a draft markdown file into its typed document.
func ParseFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("%w: cannot read draft file %s: %v", ErrParse, path, err)
	}
	return ParseText(string(data))
}

// ParseText parses draft markdown content. Sections are delimited by id
// headings; each must carry exactly one metadata block with all required
// keys. Any violation is a terminal, section-scoped error.
func ParseText(text string) (Document, error) {
	headers := sectionHeaderRe.FindAllStringSubmatchIndex(text, -1)
	if len(headers) == 0 {
		return Document{}, fmt.Errorf(
			"%w: no section headings found, expected '## [ID:<section_id>] <title>'", ErrParse)
	}

	var sections []Section
	for idx, header := range headers {
		start := header[0]
		end := len(text)
		if idx+1 < len(headers) {
			end = headers[idx+1][0]
		}
		chunk := text[start:end]
		sectionID := text[header[2]:header[3]]
		title := strings.TrimSpace(text[header[4]:header[5]])

		yamlMatch := yamlBlockRe.FindStringSubmatchIndex(chunk)
		if yamlMatch == nil {
			return Document{}, fmt.Errorf(
				"%w: section '%s' is missing required YAML code block", ErrParse, sectionID)
		}

		meta, err := parseMetadata(chunk[yamlMatch[2]:yamlMatch[3]], sectionID)
		if err != nil {
			return Document{}, err
		}
		for i := range meta.MissingItems {
			if meta.MissingItems[i].SectionID == "" {
				meta.MissingItems[i].SectionID = sectionID
			}
		}

		section := Section{
			ID:           sectionID,
			Title:        title,
			Status:       Status(meta.Status),
			Checkboxes:   meta.Checkboxes,
			Attachments:  meta.Attachments,
			Evidence:     meta.Evidence,
			MissingItems: meta.MissingItems,
			Body:         strings.TrimSpace(chunk[yamlMatch[1]:]),
		}
		if err := section.Validate(); err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrParse, err)
		}
		sections = append(sections, section)
	}
	return Document{Sections: sections}, nil
}

// Serialize writes a draft document to its markdown contract: per section, an
// id-carrying heading, a fenced YAML metadata block, then the body text.
func Serialize(doc Document) string {
	var blocks []string
	for _, s := range doc.Sections {
		meta := sectionMetadata{
			Status:       string(s.Status),
			Checkboxes:   emptyIfNilCheckboxes(s.Checkboxes),
			Attachments:  emptyIfNil(s.Attachments),
			Evidence:     emptyIfNil(s.Evidence),
			MissingItems: emptyIfNilMissing(s.MissingItems),
		}
		encoded, err := yaml.Marshal(meta)
		if err != nil {
			// yaml.Marshal of plain structs cannot fail; keep the contract anyway.
			encoded = []byte("status: " + string(s.Status) + "\n")
		}
		blocks = append(blocks,
			fmt.Sprintf("## [ID:%s] %s", s.ID, s.Title),
			"```yaml",
			strings.TrimRight(string(encoded), "\n"),
			"```",
			"",
			strings.TrimSpace(s.Body),
			"",
		)
	}
	return strings.TrimRight(strings.Join(blocks, "\n"), "\n") + "\n"
}

func parseMetadata(yamlText, sectionID string) (sectionMetadata, error) {
	var raw map[string]any
	if err := yaml.Unmarshal([]byte(yamlText), &raw); err != nil || raw == nil {
		return sectionMetadata{}, fmt.Errorf(
			"%w: section '%s' metadata must be a YAML mapping", ErrParse, sectionID)
	}
	var missing []string
	for _, key := range requiredMetadataKeys {
		if _, ok := raw[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return sectionMetadata{}, fmt.Errorf(
			"%w: section '%s' missing metadata keys: %s", ErrParse, sectionID, strings.Join(missing, ", "))
	}

	var meta sectionMetadata
	if err := yaml.Unmarshal([]byte(yamlText), &meta); err != nil {
		return sectionMetadata{}, fmt.Errorf(
			"%w: section '%s' metadata is malformed: %v", ErrParse, sectionID, err)
	}
	if meta.Status != string(StatusComplete) && meta.Status != string(StatusPartial) {
		return sectionMetadata{}, fmt.Errorf(
			"%w: section '%s' has invalid status '%s', expected 'complete' or 'partial'",
			ErrParse, sectionID, meta.Status)
	}
	for _, item := range meta.MissingItems {
		if item.ID == "" || item.Question == "" {
			return sectionMetadata{}, fmt.Errorf(
				"%w: section '%s' missing_item entries must contain 'id' and 'question'",
				ErrParse, sectionID)
		}
	}
	for _, cb := range meta.Checkboxes {
		if cb.Name == "" {
			return sectionMetadata{}, fmt.Errorf(
				"%w: section '%s' checkbox entries must carry a 'name'", ErrParse, sectionID)
		}
	}
	return meta, nil
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func emptyIfNilCheckboxes(in []Checkbox) []Checkbox {
	if in == nil {
		return []Checkbox{}
	}
	return in
}

func emptyIfNilMissing(in []MissingItem) []MissingItem {
	if in == nil {
		return []MissingItem{}
	}
	return in
}
