// Package pydiff is the library surface over internal/diffengine: it turns
// raw Python source (as file paths or as in-memory snippets) into the
// concrete syntax trees the engine compares, and exposes the few
// convenience entry points original_source/pyff/entrypoints.py and
// functions.py provided directly rather than leaving every caller to wire
// internal/parser, internal/pyast, and internal/diffengine together by
// hand.
package pydiff

import (
	"fmt"
	"os"

	"github.com/mwhitfield/pydiff/internal/diffengine"
	"github.com/mwhitfield/pydiff/internal/imports"
	"github.com/mwhitfield/pydiff/internal/parser"
	"github.com/mwhitfield/pydiff/internal/pyast"
)

// ExitError carries a specific process exit code out of a cobra RunE
// without the command having to call os.Exit itself — mirrors the
// teacher's pkg/types.ExitError / cmd/root.go Execute() pattern.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError wraps err with an explicit process exit code.
func NewExitError(code int, err error) *ExitError {
	return &ExitError{Code: code, Err: err}
}

// moduleNode parses Python source into the root "module" node of a fresh
// Tree-sitter tree. The caller owns the returned tree's lifetime via the
// closer it gets back.
func moduleNode(content []byte) (pyast.Node, func(), error) {
	p, err := parser.New()
	if err != nil {
		return pyast.Node{}, nil, err
	}
	tree, err := p.Parse(content)
	if err != nil {
		p.Close()
		return pyast.Node{}, nil, err
	}
	closer := func() {
		tree.Close()
		p.Close()
	}
	return pyast.Node{N: tree.RootNode(), Content: content}, closer, nil
}

// Module compares two in-memory Python source buffers and returns nil if
// they are semantically equivalent.
func Module(old, new []byte, opts diffengine.Options) (*diffengine.ModuleDiff, error) {
	oldNode, closeOld, err := moduleNode(old)
	if err != nil {
		return nil, fmt.Errorf("parse old source: %w", err)
	}
	defer closeOld()

	newNode, closeNew, err := moduleNode(new)
	if err != nil {
		return nil, fmt.Errorf("parse new source: %w", err)
	}
	defer closeNew()

	return diffengine.PyffModule(oldNode, newNode, opts), nil
}

// ModulePath reads and compares two Python files on disk by path.
func ModulePath(oldPath, newPath string, opts diffengine.Options) (*diffengine.ModuleDiff, error) {
	old, err := os.ReadFile(oldPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", oldPath, err)
	}
	new, err := os.ReadFile(newPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", newPath, err)
	}
	return Module(old, new, opts)
}

// FunctionCode diffs two raw source snippets, each of which must contain
// exactly one top-level function definition (mirrors
// original_source/pyff/functions.py's pyff_function_code convenience
// entry point). Returns an error — never a panic — if either snippet
// contains zero or more than one top-level function.
func FunctionCode(old, new []byte, opts diffengine.Options) (*diffengine.FunctionDiff, error) {
	oldNode, closeOld, err := moduleNode(old)
	if err != nil {
		return nil, fmt.Errorf("parse old source: %w", err)
	}
	defer closeOld()

	newNode, closeNew, err := moduleNode(new)
	if err != nil {
		return nil, fmt.Errorf("parse new source: %w", err)
	}
	defer closeNew()

	oldFn, err := extractSingleFunction(oldNode)
	if err != nil {
		return nil, fmt.Errorf("old source: %w", err)
	}
	newFn, err := extractSingleFunction(newNode)
	if err != nil {
		return nil, fmt.Errorf("new source: %w", err)
	}

	oldImports := imports.Extract(oldNode)
	newImports := imports.Extract(newNode)

	return diffengine.PyffFunction(oldFn, newFn, oldImports, newImports, opts), nil
}

func extractSingleFunction(module pyast.Node) (pyast.Node, error) {
	var found []pyast.Node
	for _, stmt := range pyast.Body(module) {
		def := stmt
		if stmt.Kind() == "decorated_definition" {
			def, _ = pyast.Unwrap(stmt)
		}
		if def.Kind() == "function_definition" {
			found = append(found, stmt)
		}
	}
	switch len(found) {
	case 0:
		return pyast.Node{}, fmt.Errorf("expected exactly one top-level function, found none")
	case 1:
		return found[0], nil
	default:
		return pyast.Node{}, fmt.Errorf("expected exactly one top-level function, found %d", len(found))
	}
}
