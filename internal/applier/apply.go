// Package applier substitutes reviewed draft content back into a fresh copy
// of the original template, leaving everything outside the addressed sections
// byte-identical.
package applier

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"docdraft/internal/draft"
	"docdraft/internal/template"
)

// AppliedMarker is the idempotency sentinel. Its presence in a document is
// the sole signal that apply already ran on it.
const AppliedMarker = "DOCDRAFT_APPLIED"

// appliedMarkerComment is the literal form the marker takes in output files.
const appliedMarkerComment = "<!-- " + AppliedMarker + " -->"

// ErrAlreadyApplied indicates the template already carries the idempotency
// marker and force was not set. The destination is left as an untouched copy.
var ErrAlreadyApplied = errors.New("document already has applied content")

const (
	checkedGlyph   = "☒"
	uncheckedGlyph = "☐"
)

var checkboxTokenRe = regexp.MustCompile(`\[\[CHECK:([A-Za-z0-9_-]+)\]\]`)

// Options controls one apply invocation.
type Options struct {
	// Force re-applies over a document that already carries the idempotency
	// marker. Prior markers are stripped so the output carries exactly one.
	Force bool
	// ContextReference names the context file in unresolved-section notices.
	ContextReference string
}

// Apply writes a filled copy of the template to outputPath. The template
// format is chosen by extension; sections the draft does not address survive
// verbatim.
func Apply(templatePath string, doc draft.Document, outputPath string, opts Options) (draft.ApplyReport, error) {
	format, err := template.DetectFormat(templatePath)
	if err != nil {
		return draft.ApplyReport{}, err
	}
	if format == template.FormatHTML {
		return applyHTML(templatePath, doc, outputPath, opts)
	}
	return applyMarkdown(templatePath, doc, outputPath, opts)
}

// composeReplacement builds the text substituted into a section: the trimmed
// body, a checkbox block declaring one token per draft checkbox, and an
// unresolved notice when the section still carries gaps.
func composeReplacement(s draft.Section, contextReference string) string {
	parts := []string{strings.TrimSpace(s.Body)}
	if len(s.Checkboxes) > 0 {
		var lines []string
		for _, cb := range s.Checkboxes {
			lines = append(lines, fmt.Sprintf("%s: [[CHECK:%s]]", cb.Name, cb.Name))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	if s.Status == draft.StatusPartial {
		ref := strings.TrimSpace(contextReference)
		if ref == "" {
			ref = "the context file"
		}
		parts = append(parts, fmt.Sprintf("UNRESOLVED: review %s for open items.", ref))
	}
	return strings.Join(parts, "\n\n")
}

// checkboxStates maps checkbox token names to their drafted value.
func checkboxStates(s draft.Section) map[string]bool {
	states := make(map[string]bool, len(s.Checkboxes))
	for _, cb := range s.Checkboxes {
		states[cb.Name] = cb.Checked
	}
	return states
}

// renderCheckboxTokens replaces every checkbox token in text with its glyph.
// Tokens with no drafted value render unchecked.
func renderCheckboxTokens(text string, states map[string]bool) string {
	return checkboxTokenRe.ReplaceAllStringFunc(text, func(token string) string {
		name := checkboxTokenRe.FindStringSubmatch(token)[1]
		if states[name] {
			return checkedGlyph
		}
		return uncheckedGlyph
	})
}

func findDraftSection(doc draft.Document, id string) (draft.Section, bool) {
	for _, s := range doc.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return draft.Section{}, false
}
