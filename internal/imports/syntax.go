package imports

import (
	"context"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// SyntaxScanner parses the source with the tree-sitter TypeScript grammar
// and reports the source of every top level import statement. Unlike
// PatternScanner it handles import clauses spanning several lines and
// ignores import-like text inside comments and strings.
type SyntaxScanner struct{}

func NewSyntaxScanner() SyntaxScanner {
	return SyntaxScanner{}
}

func (SyntaxScanner) Specifiers(ctx context.Context, src []byte) []string {
	// sitter.Parser is not safe for concurrent use
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(typescript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		slog.WarnContext(ctx, "parsing entry file failed", "error", err)
		return nil
	}
	defer tree.Close()

	root := tree.RootNode()
	var ret []string
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "import_statement" {
			continue
		}
		source := child.ChildByFieldName("source")
		if source == nil {
			continue
		}
		spec := strings.Trim(source.Content(src), "'\"`")
		if spec != "" {
			ret = append(ret, spec)
		}
	}
	return ret
}
