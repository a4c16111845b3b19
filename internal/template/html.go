package template

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// HTMLBlock is one addressable block of a rich template: a heading element or
// a body text element (paragraph, list item, or table cell).
type HTMLBlock struct {
	Node  *html.Node
	Level int // 1-6 for headings, 0 for body blocks
	Text  string
}

// IsHeading reports whether the block opens a section range.
func (b HTMLBlock) IsHeading() bool { return b.Level > 0 }

// HTMLDocument exposes a rich template as an ordered block sequence over its
// parsed DOM. Paragraphs and table cells appear exactly in authored order;
// cells are individually addressable substitution targets.
type HTMLDocument struct {
	Root   *html.Node
	Blocks []HTMLBlock
}

// LoadHTML parses an HTML template file into its block model.
func LoadHTML(path string) (*HTMLDocument, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	defer file.Close()
	return ParseHTMLDocument(file)
}

// ParseHTMLDocument parses HTML content into its block model.
func ParseHTMLDocument(r io.Reader) (*HTMLDocument, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}
	doc := &HTMLDocument{Root: root}
	doc.RebuildBlocks()
	return doc, nil
}

// RebuildBlocks re-walks the DOM and refreshes the block sequence. Call after
// structural DOM edits; plain text edits keep block indices stable.
func (d *HTMLDocument) RebuildBlocks() {
	d.Blocks = d.Blocks[:0]
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "h3", "h4", "h5", "h6":
				d.Blocks = append(d.Blocks, HTMLBlock{Node: n, Level: int(n.Data[1] - '0'), Text: NodeText(n)})
				return
			case "p", "li", "td", "th":
				d.Blocks = append(d.Blocks, HTMLBlock{Node: n, Text: NodeText(n)})
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.Root)
}

// Body returns the document's body element, or the root when absent.
func (d *HTMLDocument) Body() *html.Node {
	var find func(n *html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.Data == "body" {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := find(c); found != nil {
				return found
			}
		}
		return nil
	}
	if body := find(d.Root); body != nil {
		return body
	}
	return d.Root
}

// Comments returns every comment node whose data contains substr.
func (d *HTMLDocument) Comments(substr string) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.CommentNode && strings.Contains(n.Data, substr) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.Root)
	return out
}

// Render serializes the document.
func (d *HTMLDocument) Render(w io.Writer) error {
	return html.Render(w, d.Root)
}

// NodeText returns the concatenated text content of a node subtree.
func NodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(spaceRe.ReplaceAllString(sb.String(), " "))
}

// SetNodeText replaces a node's children with a single text node.
func SetNodeText(n *html.Node, text string) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// DeriveHTMLSections applies the marker grammar over the document's block
// sequence. Untagged headings default to fill sections; a body block belongs
// to the most recently opened heading's section, bounded by the next heading
// of any kind. Returns sections with block-index body ranges plus parse
// diagnostics.
func DeriveHTMLSections(doc *HTMLDocument) ([]Section, []string) {
	var sections []Section
	var parserErrors []string
	usedIDs := map[string]bool{}

	var open *Section
	flush := func(end int) {
		if open == nil {
			return
		}
		open.BodyEnd = end
		var lines []string
		for _, b := range doc.Blocks[open.BodyStart:open.BodyEnd] {
			if b.Text != "" {
				lines = append(lines, b.Text)
			}
		}
		open.BodyText = strings.Join(lines, "\n")
		open.CheckboxTokens = ExtractCheckboxTokens(open.BodyText)
		sections = append(sections, *open)
		open = nil
	}

	for idx, block := range doc.Blocks {
		if !block.IsHeading() {
			continue
		}
		flush(idx)
		marker, ok := ParseHeadingMarker(block.Text, true, usedIDs)
		if !ok {
			if LooksLikeMarker(block.Text) {
				parserErrors = append(parserErrors,
					fmt.Sprintf("Malformed marker heading at block %d: '%s'", idx+1, block.Text))
			}
			continue
		}
		if HasGarbledIDTag(block.Text) {
			parserErrors = append(parserErrors,
				fmt.Sprintf("Malformed ID tag at block %d: '%s'", idx+1, block.Text))
		}
		open = &Section{
			ID:           marker.ID,
			Title:        marker.Title,
			Kind:         marker.Kind,
			MarkerText:   block.Text,
			HeadingIndex: idx,
			BodyStart:    idx + 1,
		}
	}
	flush(len(doc.Blocks))
	return sections, parserErrors
}

// ParseHTML parses a rich HTML template file.
func ParseHTML(path string) (*Parsed, error) {
	doc, err := LoadHTML(path)
	if err != nil {
		return nil, err
	}
	sections, parserErrors := DeriveHTMLSections(doc)
	return &Parsed{
		SourcePath:   path,
		Format:       FormatHTML,
		Stem:         strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Sections:     sections,
		ParserErrors: parserErrors,
	}, nil
}
