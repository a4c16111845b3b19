// Package generator turns parsed template sections into a draft document by
// orchestrating the generation collaborator, one fillable section at a time.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"docdraft/internal/agent"
	"docdraft/internal/contextfile"
	"docdraft/internal/draft"
	"docdraft/internal/template"
	"docdraft/internal/trace"
)

// FallbackBody is used when the collaborator returns no usable narrative.
const FallbackBody = "Information could not be generated from repository evidence."

// EvidenceSource exposes the indexed repository to the prompt builder.
type EvidenceSource interface {
	ListFiles(limit int) []string
	Search(query string, limit int) []string
	SymbolHints(limit int) []string
}

// Orchestrator drives section-by-section drafting. Runtime is required; the
// remaining fields are optional and fall back to sensible defaults.
type Orchestrator struct {
	Runtime  *agent.Runtime
	Evidence EvidenceSource
	Retries  int
	Timeout  int
	Progress func(string)
	Tracer   *trace.Collector
}

// NewOrchestrator wraps a runtime with default retry and timeout policy.
func NewOrchestrator(runtime *agent.Runtime) *Orchestrator {
	return &Orchestrator{
		Runtime: runtime,
		Retries: agent.DefaultRetries,
		Timeout: int(agent.DefaultTimeout.Seconds()),
	}
}

// GenerateDraft drafts every fillable section of the parsed template in
// template order. A failure in one section records the failure inside that
// section and moves on; an error is returned only when the template has no
// fillable sections at all.
func (o *Orchestrator) GenerateDraft(ctx context.Context, parsed *template.Parsed, contextItems []draft.MissingItem) (draft.Document, error) {
	fills := parsed.FillSections()
	if len(fills) == 0 {
		return draft.Document{}, fmt.Errorf("template %s has no fillable sections", parsed.SourcePath)
	}

	responses := contextfile.Lookup(contextItems)
	digest := o.evidenceDigest()

	doc := draft.Document{Sections: make([]draft.Section, 0, len(fills))}
	for i, section := range fills {
		o.progress(fmt.Sprintf("[%d/%d] Drafting section %s (%s)...", i+1, len(fills), section.ID, section.Title))

		prompt := BuildSectionPrompt(section, responses[section.ID], parsed.Format, o.sectionDigest(digest, section))
		text, err := o.Runtime.InvokeWithRetry(ctx, prompt, o.Retries, o.timeoutDuration(), "section:"+section.ID)

		var drafted draft.Section
		if err != nil {
			o.progress(fmt.Sprintf("[%d/%d] Section %s failed: %v", i+1, len(fills), section.ID, err))
			drafted = failedSection(section, err)
		} else {
			drafted = responseToDraftSection(text, section)
		}
		o.traceSection(drafted)
		doc.Sections = append(doc.Sections, drafted)
	}
	return doc, nil
}

func (o *Orchestrator) progress(msg string) {
	if o.Progress != nil {
		o.Progress(msg)
	}
}

func (o *Orchestrator) timeoutDuration() time.Duration {
	if o.Timeout <= 0 {
		return agent.DefaultTimeout
	}
	return time.Duration(o.Timeout) * time.Second
}

// evidenceDigest builds the run-wide part of the prompt evidence: a file
// inventory and a symbol outline sample.
func (o *Orchestrator) evidenceDigest() string {
	if o.Evidence == nil {
		return ""
	}
	var b strings.Builder
	files := o.Evidence.ListFiles(40)
	if len(files) > 0 {
		b.WriteString("Files:\n")
		for _, f := range files {
			b.WriteString("- " + f + "\n")
		}
	}
	hints := o.Evidence.SymbolHints(40)
	if len(hints) > 0 {
		b.WriteString("Symbols:\n")
		for _, h := range hints {
			b.WriteString("- " + h + "\n")
		}
	}
	return b.String()
}

// sectionDigest appends paths whose content mentions the section title, so
// the collaborator sees likely evidence candidates for this specific section.
func (o *Orchestrator) sectionDigest(base string, section template.Section) string {
	if o.Evidence == nil {
		return base
	}
	matches := o.Evidence.Search(section.Title, 5)
	if len(matches) == 0 {
		return base
	}
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("Files mentioning this section's topic:\n")
	for _, m := range matches {
		b.WriteString("- " + m + "\n")
	}
	return b.String()
}

func (o *Orchestrator) traceSection(s draft.Section) {
	if o.Tracer == nil {
		return
	}
	status := "ok"
	if s.Status == draft.StatusPartial {
		status = "partial"
	}
	o.Tracer.Log(trace.Event{
		EventType: "section_drafted",
		Component: "generator",
		Action:    "draft",
		Status:    status,
		SectionID: s.ID,
		Details:   trace.DetailsJSON(map[string]any{"missing_items": len(s.MissingItems)}),
	})
}

// failedSection records an unrecoverable generation failure as reviewable
// draft content instead of aborting the run.
func failedSection(section template.Section, err error) draft.Section {
	return draft.Section{
		ID:     section.ID,
		Title:  section.Title,
		Status: draft.StatusPartial,
		Body:   FallbackBody,
		MissingItems: []draft.MissingItem{{
			ID:        section.ID + "_generation_failed",
			SectionID: section.ID,
			Question:  fmt.Sprintf("Section generation failed and needs manual content: %v", err),
		}},
	}
}

type sectionPayload struct {
	Body         string           `json:"body"`
	Checkboxes   []draft.Checkbox `json:"checkboxes"`
	Attachments  []string         `json:"attachments"`
	Evidence     []string         `json:"evidence"`
	MissingItems []struct {
		ID       string `json:"id"`
		Question string `json:"question"`
	} `json:"missing_items"`
}

// responseToDraftSection interprets collaborator output for one section,
// tolerating prose around the JSON object and filling the invariants the
// draft model requires.
func responseToDraftSection(text string, section template.Section) draft.Section {
	payload, ok := extractJSONObject(text)

	drafted := draft.Section{
		ID:    section.ID,
		Title: section.Title,
	}
	if ok {
		drafted.Body = strings.TrimSpace(payload.Body)
		drafted.Checkboxes = payload.Checkboxes
		drafted.Attachments = payload.Attachments
		drafted.Evidence = payload.Evidence
		for _, item := range payload.MissingItems {
			id := strings.TrimSpace(item.ID)
			if id == "" {
				id = section.ID + "_missing_info"
			}
			drafted.MissingItems = append(drafted.MissingItems, draft.MissingItem{
				ID:        id,
				SectionID: section.ID,
				Question:  strings.TrimSpace(item.Question),
			})
		}
	} else {
		// Non-JSON output is still better than nothing; keep it as the body.
		drafted.Body = strings.TrimSpace(text)
	}

	if drafted.Body == "" {
		drafted.Body = FallbackBody
	}
	if len(drafted.Evidence) == 0 && len(drafted.MissingItems) == 0 {
		drafted.MissingItems = append(drafted.MissingItems, draft.MissingItem{
			ID:        section.ID + "_missing_info",
			SectionID: section.ID,
			Question:  "Required information was not provided by the codebase.",
		})
	}
	if len(drafted.MissingItems) > 0 {
		drafted.Status = draft.StatusPartial
	} else {
		drafted.Status = draft.StatusComplete
	}
	return drafted
}

// extractJSONObject parses text as a JSON object, falling back to the
// outermost brace-delimited span when the collaborator wrapped the object in
// prose or a code fence.
func extractJSONObject(text string) (sectionPayload, bool) {
	var payload sectionPayload
	trimmed := strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
		return payload, true
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end <= start {
		return sectionPayload{}, false
	}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return sectionPayload{}, false
	}
	return payload, true
}
