// Package repoindex builds an in-memory, read-only index of repository text
// files used to gather evidence for section drafting.
package repoindex

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxFileBytes bounds indexed file size.
const DefaultMaxFileBytes int64 = 1_000_000

// Index holds indexed file contents keyed by repository-relative path.
type Index struct {
	Root    string
	files   map[string]string
	paths   []string
	symbols map[string][]Symbol
}

// Build indexes text files under root that match the allowlist and are not
// matched by the denylist. Binary and oversized files are skipped. Go files
// additionally get a symbol outline.
func Build(root string, allowlist, denylist []string, maxFileBytes int64) (*Index, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve codebase root: %w", err)
	}
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultMaxFileBytes
	}

	idx := &Index{
		Root:    absRoot,
		files:   map[string]string{},
		symbols: map[string][]Symbol{},
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !includePath(rel, allowlist, denylist) {
			return nil
		}
		content, ok := readFileSafe(path, maxFileBytes)
		if !ok {
			return nil
		}
		idx.files[rel] = content
		if strings.HasSuffix(rel, ".go") {
			if symbols, err := GoSymbolOutline([]byte(content)); err == nil {
				idx.symbols[rel] = symbols
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to index codebase %s: %w", root, err)
	}

	idx.paths = make([]string, 0, len(idx.files))
	for rel := range idx.files {
		idx.paths = append(idx.paths, rel)
	}
	sort.Strings(idx.paths)
	return idx, nil
}

// ListFiles returns up to limit indexed paths in sorted order.
func (ix *Index) ListFiles(limit int) []string {
	if limit <= 0 || limit > len(ix.paths) {
		limit = len(ix.paths)
	}
	return append([]string(nil), ix.paths[:limit]...)
}

// ReadFile returns indexed file content by repository-relative path, or the
// empty string when not indexed.
func (ix *Index) ReadFile(rel string) string {
	return ix.files[rel]
}

// Search returns up to limit paths whose content contains query,
// case-insensitive, in sorted path order.
func (ix *Index) Search(query string, limit int) []string {
	if limit <= 0 {
		limit = 10
	}
	lowered := strings.ToLower(query)
	var matches []string
	for _, rel := range ix.paths {
		if strings.Contains(strings.ToLower(ix.files[rel]), lowered) {
			matches = append(matches, rel)
			if len(matches) >= limit {
				break
			}
		}
	}
	return matches
}

// Len returns the number of indexed files.
func (ix *Index) Len() int { return len(ix.paths) }

// SymbolHints returns up to limit "path:line kind name" lines across the
// indexed Go files, for prompt embedding.
func (ix *Index) SymbolHints(limit int) []string {
	if limit <= 0 {
		limit = 50
	}
	var hints []string
	for _, rel := range ix.paths {
		for _, sym := range ix.symbols[rel] {
			hints = append(hints, fmt.Sprintf("%s:%d %s %s", rel, sym.StartLine, sym.Kind, sym.Name))
			if len(hints) >= limit {
				return hints
			}
		}
	}
	return hints
}

func includePath(rel string, allowlist, denylist []string) bool {
	if matchesAny(rel, denylist) {
		return false
	}
	return matchesAny(rel, allowlist)
}

func matchesAny(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchGlob(rel, pattern) {
			return true
		}
	}
	return false
}

// matchGlob supports the pattern dialect the allow/deny lists use: "dir/**"
// prefixes, path-qualified globs, and base-name globs like "*.go".
func matchGlob(rel, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return rel == prefix || strings.HasPrefix(rel, prefix+"/")
	}
	if strings.Contains(pattern, "/") {
		ok, err := filepath.Match(pattern, rel)
		return err == nil && ok
	}
	ok, err := filepath.Match(pattern, filepath.Base(rel))
	return err == nil && ok
}

func readFileSafe(path string, maxFileBytes int64) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.Size() > maxFileBytes {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	sniff := data
	if len(sniff) > 2048 {
		sniff = sniff[:2048]
	}
	if bytes.IndexByte(sniff, 0) != -1 {
		return "", false
	}
	return string(data), true
}
