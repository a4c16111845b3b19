package draft

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() Document {
	return Document{Sections: []Section{
		{
			ID:         "exec_summary",
			Title:      "Executive Summary",
			Status:     StatusComplete,
			Checkboxes: []Checkbox{{Name: "reviewed", Checked: true}},
			Evidence:   []string{"internal/model/score.go:42"},
			Body:       "The model scores retail credit applications.",
		},
		{
			ID:     "data_description",
			Title:  "Data Description",
			Status: StatusPartial,
			MissingItems: []MissingItem{{
				ID:        "data_description_missing_info",
				SectionID: "data_description",
				Question:  "Which source system feeds the training data?",
			}},
			Body: "Training data lineage is not documented in the repository.",
		},
	}}
}

func TestSerialize_ContainsHeadingsAndMetadata(t *testing.T) {
	out := Serialize(sampleDocument())

	assert.Contains(t, out, "## [ID:exec_summary] Executive Summary")
	assert.Contains(t, out, "## [ID:data_description] Data Description")
	assert.Contains(t, out, "```yaml")
	assert.Contains(t, out, "status: complete")
	assert.Contains(t, out, "status: partial")
}

func TestRoundTrip_ReproducesDocument(t *testing.T) {
	doc := sampleDocument()

	parsed, err := ParseText(Serialize(doc))
	require.NoError(t, err)
	require.Len(t, parsed.Sections, 2)

	for i, want := range doc.Sections {
		got := parsed.Sections[i]
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Title, got.Title)
		assert.Equal(t, want.Status, got.Status)
		assert.Equal(t, strings.TrimSpace(want.Body), strings.TrimSpace(got.Body))
		assert.ElementsMatch(t, want.Evidence, got.Evidence)
		assert.ElementsMatch(t, want.Checkboxes, got.Checkboxes)
		assert.ElementsMatch(t, want.MissingItems, got.MissingItems)
	}
}

func TestParseText_NoHeadingsIsFatal(t *testing.T) {
	_, err := ParseText("just some text without headings\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseText_MissingYAMLBlockIsFatal(t *testing.T) {
	_, err := ParseText("## [ID:a] A\n\nbody without metadata\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), "missing required YAML code block")
}

func TestParseText_MissingMetadataKeysIsFatal(t *testing.T) {
	text := "## [ID:a] A\n```yaml\nstatus: complete\ncheckboxes: []\n```\nbody\n"
	_, err := ParseText(text)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), "missing metadata keys")
}

func TestParseText_InvalidStatusIsFatal(t *testing.T) {
	text := "## [ID:a] A\n```yaml\nstatus: done\ncheckboxes: []\nattachments: []\nevidence: []\nmissing_items: []\n```\nbody\n"
	_, err := ParseText(text)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), "invalid status")
}

func TestParseText_MissingItemWithoutQuestionIsFatal(t *testing.T) {
	text := "## [ID:a] A\n```yaml\nstatus: partial\ncheckboxes: []\nattachments: []\nevidence: []\nmissing_items:\n  - id: gap\n```\nbody\n"
	_, err := ParseText(text)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseText_SectionWithoutEvidenceOrMissingItemsIsFatal(t *testing.T) {
	text := "## [ID:a] A\n```yaml\nstatus: complete\ncheckboxes: []\nattachments: []\nevidence: []\nmissing_items: []\n```\nhand-edited body\n"
	_, err := ParseText(text)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), "evidence entry or missing item")
}

func TestParseText_FillsMissingItemSectionID(t *testing.T) {
	text := "## [ID:a] A\n```yaml\nstatus: partial\ncheckboxes: []\nattachments: []\nevidence: []\nmissing_items:\n  - id: gap\n    question: what is missing\n```\nbody\n"
	doc, err := ParseText(text)
	require.NoError(t, err)
	require.Len(t, doc.Sections, 1)
	require.Len(t, doc.Sections[0].MissingItems, 1)
	assert.Equal(t, "a", doc.Sections[0].MissingItems[0].SectionID)
}

func TestSectionValidate_RequiresEvidenceOrMissingItems(t *testing.T) {
	bare := Section{ID: "a", Status: StatusComplete, Body: "text"}
	assert.Error(t, bare.Validate())

	withEvidence := Section{ID: "a", Evidence: []string{"x.go:1"}}
	assert.NoError(t, withEvidence.Validate())

	withGap := Section{ID: "a", MissingItems: []MissingItem{{ID: "g", SectionID: "a", Question: "?"}}}
	assert.NoError(t, withGap.Validate())
}

func TestDocument_PartialSectionIDsAndMissingItems(t *testing.T) {
	doc := sampleDocument()
	assert.Equal(t, []string{"data_description"}, doc.PartialSectionIDs())
	require.Len(t, doc.MissingItems(), 1)
	assert.Equal(t, "data_description_missing_info", doc.MissingItems()[0].ID)
}
