package repoindex

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// Symbol is one top-level declaration with its line range, used to give the
// generation prompt concrete path:line evidence targets.
type Symbol struct {
	Name      string
	Kind      string
	StartLine int
	EndLine   int
}

const symbolQuery = `
	(function_declaration) @func
	(method_declaration) @method
	(type_spec) @type
`

// GoSymbolOutline extracts function, method and type declarations from Go
// source.
func GoSymbolOutline(source []byte) ([]Symbol, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Go source: %w", err)
	}

	query, err := sitter.NewQuery([]byte(symbolQuery), golang.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("failed to create symbol query: %w", err)
	}

	cursor := sitter.NewQueryCursor()
	cursor.Exec(query, tree.RootNode())

	var symbols []Symbol
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		for _, capture := range match.Captures {
			node := capture.Node
			nameNode := node.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			symbols = append(symbols, Symbol{
				Name:      nameNode.Content(source),
				Kind:      query.CaptureNameForId(capture.Index),
				StartLine: int(node.StartPoint().Row + 1),
				EndLine:   int(node.EndPoint().Row + 1),
			})
		}
	}
	return symbols, nil
}
