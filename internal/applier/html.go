package applier

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"

	"docdraft/internal/draft"
	"docdraft/internal/template"
)

// applyHTML substitutes draft content into a rich HTML template. The
// destination receives a byte-for-byte copy first, so any later failure
// leaves it as an unmodified copy rather than a half-substituted document.
func applyHTML(templatePath string, doc draft.Document, outputPath string, opts Options) (draft.ApplyReport, error) {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return draft.ApplyReport{}, fmt.Errorf("failed to read template %s: %w", templatePath, err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return draft.ApplyReport{}, fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	htmlDoc, err := template.ParseHTMLDocument(bytes.NewReader(data))
	if err != nil {
		return draft.ApplyReport{}, err
	}

	markers := htmlDoc.Comments(AppliedMarker)
	if len(markers) > 0 && !opts.Force {
		return draft.ApplyReport{OutputPath: outputPath},
			fmt.Errorf("%w: %s (use force to re-apply)", ErrAlreadyApplied, templatePath)
	}
	for _, marker := range markers {
		marker.Parent.RemoveChild(marker)
	}

	sections, _ := template.DeriveHTMLSections(htmlDoc)
	var unresolved []string
	for _, section := range sections {
		if section.Kind != template.KindFill {
			continue
		}
		ds, ok := findDraftSection(doc, section.ID)
		if !ok {
			continue
		}
		if ds.Status == draft.StatusPartial {
			unresolved = append(unresolved, section.ID)
		}

		blocks := htmlDoc.Blocks[section.BodyStart:section.BodyEnd]
		target, ok := substitutionTarget(blocks)
		if !ok {
			return draft.ApplyReport{}, fmt.Errorf(
				"%w: section '%s' has no body blocks to substitute into",
				template.ErrUnsupported, section.ID)
		}

		states := checkboxStates(ds)
		template.SetNodeText(target, renderCheckboxTokens(composeReplacement(ds, opts.ContextReference), states))
		for _, block := range blocks {
			if block.Node == target {
				continue
			}
			text := template.NodeText(block.Node)
			if checkboxTokenRe.MatchString(text) {
				template.SetNodeText(block.Node, renderCheckboxTokens(text, states))
			}
		}
	}

	htmlDoc.Body().AppendChild(&html.Node{Type: html.CommentNode, Data: " " + AppliedMarker + " "})

	file, err := os.Create(outputPath)
	if err != nil {
		return draft.ApplyReport{}, fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	defer file.Close()
	if err := htmlDoc.Render(file); err != nil {
		return draft.ApplyReport{}, fmt.Errorf("failed to render %s: %w", outputPath, err)
	}
	return draft.ApplyReport{OutputPath: outputPath, UnresolvedSectionIDs: unresolved}, nil
}

// substitutionTarget picks where generated content lands within a section's
// body blocks: the first block containing the substitution token, else the
// first non-empty block, else the first block unconditionally.
func substitutionTarget(blocks []template.HTMLBlock) (*html.Node, bool) {
	if len(blocks) == 0 {
		return nil, false
	}
	for _, b := range blocks {
		if strings.Contains(b.Text, template.SectionContentToken) {
			return b.Node, true
		}
	}
	for _, b := range blocks {
		if strings.TrimSpace(b.Text) != "" {
			return b.Node, true
		}
	}
	return blocks[0].Node, true
}
