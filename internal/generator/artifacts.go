package generator

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"docdraft/internal/draft"
)

// Standard artifact file names inside a run directory.
const (
	DraftFileName       = "draft.md"
	SummaryFileName     = "draft-summary.json"
	MissingFileName     = "missing-items.json"
	AttachmentsFileName = "attachments-manifest.csv"
)

type runSummary struct {
	GeneratedAt     string   `json:"generated_at"`
	SectionCount    int      `json:"section_count"`
	PartialSections []string `json:"partial_sections"`
}

// WriteRunArtifacts persists the reviewable outputs of a drafting run: the
// draft itself, a machine-readable summary, the open missing items, and an
// attachments manifest.
func WriteRunArtifacts(runDir string, doc draft.Document) error {
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory %s: %w", runDir, err)
	}

	draftPath := filepath.Join(runDir, DraftFileName)
	if err := os.WriteFile(draftPath, []byte(draft.Serialize(doc)), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", DraftFileName, err)
	}

	summary := runSummary{
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
		SectionCount:    len(doc.Sections),
		PartialSections: doc.PartialSectionIDs(),
	}
	if summary.PartialSections == nil {
		summary.PartialSections = []string{}
	}
	if err := writeJSON(filepath.Join(runDir, SummaryFileName), summary); err != nil {
		return err
	}

	missing := doc.MissingItems()
	if missing == nil {
		missing = []draft.MissingItem{}
	}
	if err := writeJSON(filepath.Join(runDir, MissingFileName), missing); err != nil {
		return err
	}

	return writeAttachmentsManifest(filepath.Join(runDir, AttachmentsFileName), doc)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeAttachmentsManifest(path string, doc draft.Document) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"section_id", "attachment"}); err != nil {
		return err
	}
	for _, s := range doc.Sections {
		for _, attachment := range s.Attachments {
			if err := writer.Write([]string{s.ID, attachment}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
