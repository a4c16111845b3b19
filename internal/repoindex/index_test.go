package repoindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultAllow = []string{"*.go", "*.md"}
var defaultDeny = []string{"vendor/**", "*.bin"}

func writeFixtureRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"main.go":            "package main\n\nfunc main() {}\n",
		"score/score.go":     "package score\n\ntype Model struct{}\n\nfunc (m *Model) Score(input float64) float64 { return input }\n",
		"README.md":          "# Credit Scoring Model\n\nScores retail credit applications.\n",
		"vendor/dep/dep.go":  "package dep\n",
		"notes.txt":          "not allowlisted\n",
		"assets/weights.bin": "\x00\x01\x02",
		"assets/weights2.md": "binary-ish \x00 content",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func TestBuild_AppliesAllowAndDenyLists(t *testing.T) {
	idx, err := Build(writeFixtureRepo(t), defaultAllow, defaultDeny, 0)
	require.NoError(t, err)

	paths := idx.ListFiles(0)
	assert.Contains(t, paths, "main.go")
	assert.Contains(t, paths, "score/score.go")
	assert.Contains(t, paths, "README.md")
	assert.NotContains(t, paths, "vendor/dep/dep.go")
	assert.NotContains(t, paths, "notes.txt")
	assert.NotContains(t, paths, "assets/weights.bin")
}

func TestBuild_SkipsBinaryContent(t *testing.T) {
	idx, err := Build(writeFixtureRepo(t), defaultAllow, defaultDeny, 0)
	require.NoError(t, err)
	assert.NotContains(t, idx.ListFiles(0), "assets/weights2.md")
}

func TestSearch_CaseInsensitiveSortedMatches(t *testing.T) {
	idx, err := Build(writeFixtureRepo(t), defaultAllow, defaultDeny, 0)
	require.NoError(t, err)

	matches := idx.Search("CREDIT", 10)
	assert.Equal(t, []string{"README.md"}, matches)

	matches = idx.Search("package", 10)
	assert.Equal(t, []string{"main.go", "score/score.go"}, matches)
}

func TestReadFile_ReturnsIndexedContent(t *testing.T) {
	idx, err := Build(writeFixtureRepo(t), defaultAllow, defaultDeny, 0)
	require.NoError(t, err)

	assert.Contains(t, idx.ReadFile("README.md"), "Credit Scoring Model")
	assert.Empty(t, idx.ReadFile("vendor/dep/dep.go"))
}

func TestSymbolHints_IncludeGoDeclarations(t *testing.T) {
	idx, err := Build(writeFixtureRepo(t), defaultAllow, defaultDeny, 0)
	require.NoError(t, err)

	hints := idx.SymbolHints(0)
	require.NotEmpty(t, hints)

	joined := ""
	for _, h := range hints {
		joined += h + "\n"
	}
	assert.Contains(t, joined, "Score")
	assert.Contains(t, joined, "score/score.go:")
}

func TestMatchGlob_Dialect(t *testing.T) {
	assert.True(t, matchGlob("vendor/x/y.go", "vendor/**"))
	assert.True(t, matchGlob("vendor", "vendor/**"))
	assert.False(t, matchGlob("notvendor/x.go", "vendor/**"))
	assert.True(t, matchGlob("a/b/c.go", "*.go"))
	assert.True(t, matchGlob("docs/guide.md", "docs/*.md"))
	assert.False(t, matchGlob("docs/sub/guide.md", "docs/*.md"))
}

func TestGoSymbolOutline_FindsFunctionsMethodsTypes(t *testing.T) {
	source := []byte(`package score

type Model struct{}

func (m *Model) Score(input float64) float64 { return input }

func NewModel() *Model { return &Model{} }
`)
	symbols, err := GoSymbolOutline(source)
	require.NoError(t, err)

	byName := map[string]Symbol{}
	for _, s := range symbols {
		byName[s.Name] = s
	}
	require.Contains(t, byName, "Model")
	require.Contains(t, byName, "Score")
	require.Contains(t, byName, "NewModel")
	assert.Equal(t, "type", byName["Model"].Kind)
	assert.Equal(t, "method", byName["Score"].Kind)
	assert.Equal(t, "func", byName["NewModel"].Kind)
	assert.Equal(t, 5, byName["Score"].StartLine)
}
