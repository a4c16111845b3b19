package template

import (
	"fmt"
	"strings"
)

// Validate checks template invariants over a parsed template and returns all
// applicable errors as human-readable strings. An empty result means valid.
// Validation never mutates the parsed template.
func Validate(p *Parsed) []string {
	errors := append([]string{}, p.ParserErrors...)
	if len(p.Sections) == 0 {
		errors = append(errors, "No template sections found with marker tags.")
		return errors
	}

	seen := map[string]bool{}
	for _, s := range p.Sections {
		if seen[s.ID] {
			errors = append(errors, fmt.Sprintf("Duplicate section ID: %s", s.ID))
		}
		seen[s.ID] = true
	}

	hasFill := false
	for _, s := range p.Sections {
		if s.Kind == KindFill {
			hasFill = true
			break
		}
	}
	if !hasFill {
		errors = append(errors, "Template must contain at least one fillable section.")
	}

	if p.Format == FormatMarkdown {
		for _, s := range p.Sections {
			if s.Kind != KindFill {
				continue
			}
			if !strings.Contains(s.BodyText, SectionContentToken) {
				errors = append(errors, fmt.Sprintf(
					"Fill section '%s' is missing required token %s.", s.ID, SectionContentToken))
			}
		}
	}
	return errors
}
