package template

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var markdownHeadingRe = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.+?)[ \t]*$`)

// ParseMarkdown parses a markdown template file.
func ParseMarkdown(path string) (*Parsed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	parsed := ParseMarkdownText(string(data), path)
	parsed.Stem = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return parsed, nil
}

// ParseMarkdownText parses markdown template content. Sections are delimited
// by heading lines; a section body is the character range strictly between
// its heading line and the next heading line of any level.
func ParseMarkdownText(text, sourcePath string) *Parsed {
	parsed := &Parsed{
		SourcePath: sourcePath,
		Format:     FormatMarkdown,
	}
	matches := markdownHeadingRe.FindAllStringSubmatchIndex(text, -1)
	usedIDs := map[string]bool{}

	for idx, match := range matches {
		headingText := strings.TrimSpace(text[match[4]:match[5]])
		marker, ok := ParseHeadingMarker(headingText, false, usedIDs)
		if !ok {
			if LooksLikeMarker(headingText) {
				parsed.ParserErrors = append(parsed.ParserErrors,
					fmt.Sprintf("Malformed marker heading %d: '%s'", idx+1, headingText))
			}
			continue
		}
		if HasGarbledIDTag(headingText) {
			parsed.ParserErrors = append(parsed.ParserErrors,
				fmt.Sprintf("Malformed ID tag at heading %d: '%s'", idx+1, headingText))
		}

		bodyStart := match[1]
		bodyEnd := len(text)
		if idx+1 < len(matches) {
			bodyEnd = matches[idx+1][0]
		}
		bodyText := strings.TrimSpace(text[bodyStart:bodyEnd])
		parsed.Sections = append(parsed.Sections, Section{
			ID:             marker.ID,
			Title:          marker.Title,
			Kind:           marker.Kind,
			MarkerText:     headingText,
			HeadingIndex:   idx,
			BodyStart:      bodyStart,
			BodyEnd:        bodyEnd,
			BodyText:       bodyText,
			CheckboxTokens: ExtractCheckboxTokens(bodyText),
		})
	}
	return parsed
}
