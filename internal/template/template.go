// Package template parses marked-up document templates into addressable
// sections behind one marker semantic shared by two physical formats: rich
// HTML block trees and flat heading-delimited markdown.
package template

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupported indicates a template extension or structure outside the
// supported formats.
var ErrUnsupported = errors.New("unsupported template")

// DetectFormat maps a template path to its format by extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return FormatHTML, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: extension '%s' (supported: .html, .htm, .md, .markdown)",
			ErrUnsupported, filepath.Ext(path))
	}
}

// ParseFile parses a template file using the parser that matches its
// extension.
func ParseFile(path string) (*Parsed, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if format == FormatHTML {
		return ParseHTML(path)
	}
	return ParseMarkdown(path)
}
