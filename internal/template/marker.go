package template

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	kindRe     = regexp.MustCompile(`(?i)\[(FILL|SKIP|VALIDATOR)\]`)
	idRe       = regexp.MustCompile(`(?i)\[ID:([A-Za-z0-9_-]+)\]`)
	bracketRe  = regexp.MustCompile(`\[[^\]]+\]`)
	spaceRe    = regexp.MustCompile(`\s+`)
	slugRe     = regexp.MustCompile(`[^a-z0-9]+`)
	checkboxRe = regexp.MustCompile(`\[\[CHECK:([A-Za-z0-9_-]+)\]\]`)
)

const (
	// SectionContentToken marks the insertion point for generated body text
	// in plain-text templates.
	SectionContentToken = "[[SECTION_CONTENT]]"

	placeholderTitle = "Untitled Section"
	placeholderSlug  = "section"
)

// Marker is the parsed metadata of one section heading.
type Marker struct {
	Kind  SectionKind
	ID    string
	Title string
}

// ParseHeadingMarker parses marker tags out of raw heading text.
//
// Kind and id tags may appear in any order, interleaved with other bracketed
// decoration and free title text. When no kind tag is present, fallbackFill
// decides whether the heading defaults to a fill section or is not a marker
// at all. The usedIDs set accumulates every id handed out during one parse
// pass; derived ids are disambiguated against it, explicit ids are used
// verbatim (collisions are left for validation to report).
func ParseHeadingMarker(heading string, fallbackFill bool, usedIDs map[string]bool) (Marker, bool) {
	raw := strings.TrimSpace(heading)
	if raw == "" {
		return Marker{}, false
	}

	kind, ok := extractKind(raw, fallbackFill)
	if !ok {
		return Marker{}, false
	}

	title := cleanTitle(raw)
	id := extractID(raw)
	if id == "" {
		id = dedupeID(slugify(title), usedIDs)
	}
	usedIDs[id] = true

	return Marker{Kind: kind, ID: id, Title: title}, true
}

// ExtractCheckboxTokens returns distinct checkbox token names in first
// occurrence order.
func ExtractCheckboxTokens(text string) []string {
	seen := map[string]bool{}
	var tokens []string
	for _, m := range checkboxRe.FindAllStringSubmatch(text, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		tokens = append(tokens, m[1])
	}
	return tokens
}

// LooksLikeMarker reports whether heading text contains a marker-shaped
// substring, used to flag malformed markers as parse diagnostics.
func LooksLikeMarker(text string) bool {
	upper := strings.ToUpper(text)
	for _, token := range []string{"[FILL]", "[SKIP]", "[VALIDATOR]", "[ID:"} {
		if strings.Contains(upper, token) {
			return true
		}
	}
	return false
}

// HasGarbledIDTag reports an id-tag-shaped substring that the grammar could
// not parse. The section is still included; the caller records a diagnostic.
func HasGarbledIDTag(text string) bool {
	return strings.Contains(strings.ToUpper(text), "[ID:") && extractID(text) == ""
}

func extractKind(text string, fallbackFill bool) (SectionKind, bool) {
	if m := kindRe.FindStringSubmatch(text); m != nil {
		return SectionKind(strings.ToLower(m[1])), true
	}
	if fallbackFill {
		return KindFill, true
	}
	return "", false
}

func extractID(text string) string {
	m := idRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(m[1]))
}

func cleanTitle(text string) string {
	cleaned := bracketRe.ReplaceAllString(text, "")
	cleaned = strings.Trim(spaceRe.ReplaceAllString(cleaned, " "), " -:\t")
	if cleaned == "" {
		return placeholderTitle
	}
	return cleaned
}

func slugify(text string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), "_")
	slug = strings.Trim(slug, "_")
	slug = strings.TrimLeft(slug, "0123456789_")
	if slug == "" {
		return placeholderSlug
	}
	return slug
}

func dedupeID(id string, usedIDs map[string]bool) string {
	if !usedIDs[id] {
		return id
	}
	for suffix := 2; ; suffix++ {
		candidate := fmt.Sprintf("%s_%d", id, suffix)
		if !usedIDs[candidate] {
			return candidate
		}
	}
}
