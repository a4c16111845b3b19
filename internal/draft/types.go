// Package draft holds the intermediate, human-reviewable model of generated
// section content and its markdown serialization contract.
package draft

import "fmt"

// Status marks whether a section's content is complete or has recorded gaps.
type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
)

// Checkbox is a named checkbox declared by the template and decided by the
// draft.
type Checkbox struct {
	Name    string `yaml:"name" json:"name"`
	Checked bool   `yaml:"checked" json:"checked"`
}

// MissingItem is a durable question the generation step could not answer from
// available evidence. Items live in a side-channel context file across runs;
// merges key on (ID, SectionID) and preserve non-empty user responses.
type MissingItem struct {
	ID           string `yaml:"id" json:"id"`
	SectionID    string `yaml:"section_id" json:"section_id"`
	Question     string `yaml:"question" json:"question"`
	UserResponse string `yaml:"user_response,omitempty" json:"user_response"`
}

// Section is the generated-or-edited content for one template section.
type Section struct {
	ID           string
	Title        string
	Status       Status
	Checkboxes   []Checkbox
	Attachments  []string
	Evidence     []string
	MissingItems []MissingItem
	Body         string
}

// Validate enforces the evidence-or-missing invariant: a section may never
// claim completeness without a cited source or an explicit admission of a
// gap.
func (s Section) Validate() error {
	if len(s.Evidence) == 0 && len(s.MissingItems) == 0 {
		return fmt.Errorf(
			"section '%s' must include at least one evidence entry or missing item", s.ID)
	}
	return nil
}

// Document is an ordered list of sections, one per addressed template
// section, in template order.
type Document struct {
	Sections []Section
}

// MissingItems returns every missing item across all sections in document
// order.
func (d Document) MissingItems() []MissingItem {
	var items []MissingItem
	for _, s := range d.Sections {
		items = append(items, s.MissingItems...)
	}
	return items
}

// PartialSectionIDs returns the ids of sections still carrying gaps.
func (d Document) PartialSectionIDs() []string {
	var ids []string
	for _, s := range d.Sections {
		if s.Status == StatusPartial {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// ApplyReport is the informational result of applying a draft onto a
// template copy.
type ApplyReport struct {
	OutputPath           string
	UnresolvedSectionIDs []string
}
