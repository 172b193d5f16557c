// Package pyast adapts a Tree-sitter Python concrete syntax tree into the
// small, fixed set of node kinds the diff engine understands: Module,
// FunctionDef, ClassDef, Import, ImportFrom, Name, Attribute, and a generic
// "other statement" kind whose only operation is structural equality.
//
// The engine never mutates or holds the tree beyond a single comparison; all
// helpers here are read-only views over a *tree_sitter.Node plus the source
// bytes it was parsed from.
package pyast

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Node is a borrowed view into a parsed file: a Tree-sitter node plus the
// source buffer needed to recover text. Node values are cheap to copy and
// carry no ownership of the underlying Tree.
type Node struct {
	N       *tree_sitter.Node
	Content []byte
}

// IsNil reports whether the underlying Tree-sitter node is absent.
func (n Node) IsNil() bool { return n.N == nil }

// Kind returns the Tree-sitter grammar kind of the node (e.g. "function_definition").
func (n Node) Kind() string {
	if n.N == nil {
		return ""
	}
	return n.N.Kind()
}

// Text returns the verbatim source text spanned by the node.
func (n Node) Text() string {
	if n.N == nil {
		return ""
	}
	return string(n.Content[n.N.StartByte():n.N.EndByte()])
}

// Field returns the child of the given grammar field name, wrapped as a Node.
func (n Node) Field(name string) Node {
	if n.N == nil {
		return Node{}
	}
	return Node{N: n.N.ChildByFieldName(name), Content: n.Content}
}

// Children returns every child node (named and anonymous), skipping comments,
// which Tree-sitter splices in positionally as "extra" nodes and which must
// never affect structural comparisons (spec: "Structural ignorance of source
// positions" also covers comments — they carry no semantic weight).
func (n Node) Children() []Node {
	if n.N == nil {
		return nil
	}
	count := n.N.ChildCount()
	out := make([]Node, 0, count)
	for i := uint(0); i < count; i++ {
		c := n.N.Child(i)
		if c == nil || c.Kind() == "comment" {
			continue
		}
		out = append(out, Node{N: c, Content: n.Content})
	}
	return out
}

// NamedChildren returns only the grammar-named children (skips punctuation
// and keyword tokens), again filtering out comments.
func (n Node) NamedChildren() []Node {
	if n.N == nil {
		return nil
	}
	count := n.N.NamedChildCount()
	out := make([]Node, 0, count)
	for i := uint(0); i < count; i++ {
		c := n.N.NamedChild(i)
		if c == nil || c.Kind() == "comment" {
			continue
		}
		out = append(out, Node{N: c, Content: n.Content})
	}
	return out
}

// Parent returns the parent node, if any.
func (n Node) Parent() Node {
	if n.N == nil {
		return Node{}
	}
	return Node{N: n.N.Parent(), Content: n.Content}
}

// Line returns the 1-based source line the node starts on. Used only for
// diagnostics; never consulted by comparisons.
func (n Node) Line() int {
	if n.N == nil {
		return 0
	}
	return int(n.N.StartPosition().Row) + 1
}

// unwrapParens unwraps a parenthesized_expression so that "(a + b)" and
// "a + b" dump identically. Tree-sitter's CST keeps grouping parens that a
// real Python ast would have discarded; without this the canonicalizer and
// the structural-equality check would see spurious differences.
func unwrapParens(n Node) Node {
	for n.Kind() == "parenthesized_expression" {
		inner := n.NamedChildren()
		if len(inner) != 1 {
			break
		}
		n = inner[0]
	}
	return n
}

// Dump produces a canonical, location-free structural representation of a
// node: two nodes produced from differently formatted (but ASTwise
// identical) source dump identically, and two nodes that differ in any
// semantically relevant way dump differently. It is the Go analogue of
// Python's ast.dump() used throughout the original implementation's
// structural-equality checks.
func Dump(n Node) string {
	n = unwrapParens(n)
	if n.N == nil {
		return "<nil>"
	}
	children := n.Children()
	if len(children) == 0 {
		return fmt.Sprintf("(%s %q)", n.Kind(), n.Text())
	}
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(n.Kind())
	for _, c := range children {
		b.WriteByte(' ')
		b.WriteString(Dump(c))
	}
	b.WriteByte(')')
	return b.String()
}

// Equal reports whether two nodes have identical structural dumps.
func Equal(a, b Node) bool {
	if a.N == nil && b.N == nil {
		return true
	}
	if a.N == nil || b.N == nil {
		return false
	}
	return Dump(a) == Dump(b)
}

// Body returns the statement list of a module, function, or class body,
// skipping comments. For a Module node the body is its direct children; for
// a function/class it is the NamedChild "body" block's children.
func Body(n Node) []Node {
	switch n.Kind() {
	case "module":
		return n.NamedChildren()
	case "block":
		return n.NamedChildren()
	case "function_definition", "class_definition":
		return Body(n.Field("body"))
	default:
		return nil
	}
}

// IsDocstringExpr reports whether a statement is a bare string-literal
// expression statement, i.e. a docstring.
func IsDocstringExpr(stmt Node) bool {
	if stmt.Kind() != "expression_statement" {
		return false
	}
	children := stmt.NamedChildren()
	return len(children) == 1 && children[0].Kind() == "string"
}

// Unwrap returns the function_definition or class_definition wrapped by a
// decorated_definition, along with its decorator nodes (in source order).
// If n is not decorated, it is returned unchanged with a nil decorator list.
func Unwrap(n Node) (def Node, decorators []Node) {
	if n.Kind() != "decorated_definition" {
		return n, nil
	}
	for _, c := range n.NamedChildren() {
		switch c.Kind() {
		case "decorator":
			decorators = append(decorators, c)
		case "function_definition", "class_definition":
			def = c
		}
	}
	return def, decorators
}

// DecoratorExpr returns the expression a decorator applies (the part after "@").
func DecoratorExpr(decorator Node) Node {
	named := decorator.NamedChildren()
	if len(named) == 0 {
		return Node{}
	}
	return named[0]
}

// IsBareNameDecorator reports whether a decorator is a plain `@name`
// reference (as opposed to `@name(...)` or `@a.b.name`) equal to the given
// identifier text — used to detect `@property`.
func IsBareNameDecorator(decorator Node, name string) bool {
	expr := DecoratorExpr(decorator)
	return expr.Kind() == "identifier" && expr.Text() == name
}

// DumpAll dumps a slice of nodes as a parenthesized sequence, used to compare
// decorator lists and other node lists ignoring source position.
func DumpAll(nodes []Node) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, n := range nodes {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(Dump(n))
	}
	b.WriteByte(')')
	return b.String()
}

// EqualAll reports whether two node lists have identical structural dumps.
func EqualAll(a, b []Node) bool {
	return DumpAll(a) == DumpAll(b)
}
