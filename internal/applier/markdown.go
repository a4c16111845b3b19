package applier

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"docdraft/internal/draft"
	"docdraft/internal/template"
)

type textEdit struct {
	start, end int
	text       string
}

// applyMarkdown substitutes draft content into a markdown template. All edits
// are computed against the source text before anything is written, so a
// missing substitution token leaves the destination untouched.
func applyMarkdown(templatePath string, doc draft.Document, outputPath string, opts Options) (draft.ApplyReport, error) {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return draft.ApplyReport{}, fmt.Errorf("failed to read template %s: %w", templatePath, err)
	}
	text := string(data)

	wasApplied := strings.Contains(text, appliedMarkerComment)
	if wasApplied && !opts.Force {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return draft.ApplyReport{}, fmt.Errorf("failed to write %s: %w", outputPath, err)
		}
		return draft.ApplyReport{OutputPath: outputPath},
			fmt.Errorf("%w: %s (use force to re-apply)", ErrAlreadyApplied, templatePath)
	}
	if wasApplied {
		text = stripMarkerLines(text)
	}

	parsed := template.ParseMarkdownText(text, templatePath)
	var edits []textEdit
	var unresolved []string
	for _, section := range parsed.FillSections() {
		ds, ok := findDraftSection(doc, section.ID)
		if !ok {
			continue
		}
		if ds.Status == draft.StatusPartial {
			unresolved = append(unresolved, section.ID)
		}

		body := text[section.BodyStart:section.BodyEnd]
		states := checkboxStates(ds)
		tokenPos := strings.Index(body, template.SectionContentToken)
		if tokenPos == -1 {
			if wasApplied {
				// A prior apply consumed the token; leave the section as-is.
				continue
			}
			return draft.ApplyReport{}, fmt.Errorf(
				"section '%s' body has no %s token", section.ID, template.SectionContentToken)
		}

		replacement := renderCheckboxTokens(composeReplacement(ds, opts.ContextReference), states)
		start := section.BodyStart + tokenPos
		edits = append(edits, textEdit{start, start + len(template.SectionContentToken), replacement})

		for _, m := range checkboxTokenRe.FindAllStringSubmatchIndex(body, -1) {
			glyph := uncheckedGlyph
			if states[body[m[2]:m[3]]] {
				glyph = checkedGlyph
			}
			edits = append(edits, textEdit{section.BodyStart + m[0], section.BodyStart + m[1], glyph})
		}
	}

	// Apply from the end so earlier offsets stay valid.
	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	for _, e := range edits {
		text = text[:e.start] + e.text + text[e.end:]
	}

	text = strings.TrimRight(text, "\n") + "\n\n" + appliedMarkerComment + "\n"
	if err := os.WriteFile(outputPath, []byte(text), 0644); err != nil {
		return draft.ApplyReport{}, fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return draft.ApplyReport{OutputPath: outputPath, UnresolvedSectionIDs: unresolved}, nil
}

func stripMarkerLines(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == appliedMarkerComment {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
