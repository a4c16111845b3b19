package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const htmlTemplate = `<html><body>
<h1>[FILL] [ID:exec_summary] Executive Summary</h1>
<p>Summarize the model purpose here.</p>
<h2>Data Description</h2>
<p></p>
<table><tr><td>Source system</td><td>Reviewed: [[CHECK:data_reviewed]]</td></tr></table>
<h2>[VALIDATOR] [ID:sign_off] Sign-off</h2>
<p>Approver signature.</p>
</body></html>`

func parseHTMLFixture(t *testing.T, content string) *HTMLDocument {
	t.Helper()
	doc, err := ParseHTMLDocument(strings.NewReader(content))
	require.NoError(t, err)
	return doc
}

func TestRebuildBlocks_HeadingsAndBodyBlocksInAuthoredOrder(t *testing.T) {
	doc := parseHTMLFixture(t, htmlTemplate)

	var kinds []string
	for _, b := range doc.Blocks {
		if b.IsHeading() {
			kinds = append(kinds, "h")
		} else {
			kinds = append(kinds, "b")
		}
	}
	// h1, p, h2, p, td, td, h2, p
	assert.Equal(t, []string{"h", "b", "h", "b", "b", "b", "h", "b"}, kinds)
	assert.Equal(t, 1, doc.Blocks[0].Level)
	assert.Equal(t, "Source system", doc.Blocks[4].Text)
}

func TestDeriveHTMLSections_UntaggedHeadingDefaultsToFill(t *testing.T) {
	doc := parseHTMLFixture(t, htmlTemplate)

	sections, parserErrors := DeriveHTMLSections(doc)
	require.Len(t, sections, 3)
	assert.Empty(t, parserErrors)

	assert.Equal(t, "exec_summary", sections[0].ID)
	assert.Equal(t, KindFill, sections[0].Kind)

	assert.Equal(t, "data_description", sections[1].ID)
	assert.Equal(t, KindFill, sections[1].Kind)
	assert.Equal(t, []string{"data_reviewed"}, sections[1].CheckboxTokens)

	assert.Equal(t, "sign_off", sections[2].ID)
	assert.Equal(t, KindValidator, sections[2].Kind)
}

func TestDeriveHTMLSections_TableCellsBelongToOpenSection(t *testing.T) {
	doc := parseHTMLFixture(t, htmlTemplate)

	sections, _ := DeriveHTMLSections(doc)
	data := sections[1]
	assert.Contains(t, data.BodyText, "Source system")
	assert.Contains(t, data.BodyText, "[[CHECK:data_reviewed]]")

	blocks := doc.Blocks[data.BodyStart:data.BodyEnd]
	require.Len(t, blocks, 3)
}

func TestDeriveHTMLSections_RangeCountMatchesHeadingCount(t *testing.T) {
	doc := parseHTMLFixture(t, htmlTemplate)

	headings := 0
	for _, b := range doc.Blocks {
		if b.IsHeading() {
			headings++
		}
	}
	sections, _ := DeriveHTMLSections(doc)
	assert.Len(t, sections, headings)
}

func TestSetNodeText_ReplacesContent(t *testing.T) {
	doc := parseHTMLFixture(t, `<html><body><p>old <b>nested</b> text</p></body></html>`)
	require.Len(t, doc.Blocks, 1)

	SetNodeText(doc.Blocks[0].Node, "new text")
	assert.Equal(t, "new text", NodeText(doc.Blocks[0].Node))
}

func TestComments_FindsMarkerComments(t *testing.T) {
	doc := parseHTMLFixture(t, `<html><body><p>x</p><!-- DOCDRAFT_APPLIED --></body></html>`)
	assert.Len(t, doc.Comments("DOCDRAFT_APPLIED"), 1)
	assert.Empty(t, doc.Comments("OTHER"))
}
