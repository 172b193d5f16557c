package diffengine_test

import (
	"testing"

	"github.com/mwhitfield/pydiff/internal/parser"
	"github.com/mwhitfield/pydiff/internal/pyast"
)

// parseModule parses a Python source snippet and returns its module root
// node. The underlying tree is closed automatically via t.Cleanup.
func parseModule(t *testing.T, src string) pyast.Node {
	t.Helper()
	p, err := parser.New()
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	t.Cleanup(p.Close)

	content := []byte(src)
	tree, err := p.Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	t.Cleanup(tree.Close)

	return pyast.Node{N: tree.RootNode(), Content: content}
}
