package generator

import (
	"fmt"
	"strings"

	"docdraft/internal/template"
)

// SystemPrompt constrains the collaborator to evidence-grounded output.
const SystemPrompt = `You are a governance documentation assistant.
Rules:
- Never invent facts or metrics.
- Use only information in the provided context.
- If information is unavailable, create explicit missing_items.
- Return valid JSON only.`

// BuildSectionPrompt renders the request payload for one fillable section:
// the section's requirement text, user-provided supplemental context, the
// template format tag, and a repository evidence digest.
func BuildSectionPrompt(section template.Section, extraContext string, format template.Format, evidenceDigest string) string {
	requirement := section.BodyText
	if strings.TrimSpace(requirement) == "" {
		requirement = "(no additional requirement text provided)"
	}
	contextBlock := strings.TrimSpace(extraContext)
	if contextBlock == "" {
		contextBlock = "None."
	}
	evidenceBlock := strings.TrimSpace(evidenceDigest)
	if evidenceBlock == "" {
		evidenceBlock = "None."
	}

	return fmt.Sprintf(`Generate content for one governance document section.

Section:
- id: %s
- title: %s
- template_format: %s
- requirement text:
%s

User-provided supplemental context:
%s

Repository evidence digest:
%s

Output format (JSON object only):
{
  "body": "filled section narrative",
  "checkboxes": [{"name": "token_name", "checked": true}],
  "attachments": ["relative/path/to/artifact"],
  "evidence": ["relative/path.go:line"],
  "missing_items": [{"id": "short_id", "question": "what is missing"}]
}

Quality rules:
- Include at least one evidence item or one missing_items entry.
- If any required information is absent, include missing_items.
- Keep writing concise, factual, and audit-friendly.`,
		section.ID, section.Title, format, requirement, contextBlock, evidenceBlock)
}
