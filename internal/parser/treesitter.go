// Package parser provides Tree-sitter parsing of Python source.
//
// Tree-sitter parsers require CGO_ENABLED=1. Parser pools one
// *tree_sitter.Parser for the Python grammar. Every Tree returned must be
// explicitly closed to avoid leaking the underlying C tree.
package parser

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// ParsedFile holds a parsed Tree-sitter syntax tree alongside the source
// bytes it was parsed from. Callers must call Tree.Close() when done, or
// use CloseAll.
type ParsedFile struct {
	Path    string
	RelPath string
	Tree    *tree_sitter.Tree
	Content []byte
}

// Parser holds a pooled Tree-sitter Python parser. Tree-sitter parsers are
// NOT thread-safe, so all parse operations are serialized via a mutex;
// Trees returned from parsing are safe to use concurrently once parsed.
type Parser struct {
	mu     sync.Mutex
	python *tree_sitter.Parser
}

// New creates a Parser configured for the Python grammar.
func New() (*Parser, error) {
	p := tree_sitter.NewParser()
	lang := tree_sitter.NewLanguage(tree_sitter_python.Language())
	if err := p.SetLanguage(lang); err != nil {
		p.Close()
		return nil, fmt.Errorf("set python language: %w", err)
	}
	return &Parser{python: p}, nil
}

// Close releases the underlying parser. Must be called when done.
func (p *Parser) Close() {
	if p.python != nil {
		p.python.Close()
	}
}

// Parse parses Python source content into a Tree-sitter tree. The caller
// must close the returned tree. Safe to call concurrently; parsing itself
// is serialized internally.
func (p *Parser) Parse(content []byte) (*tree_sitter.Tree, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tree := p.python.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter parse returned nil")
	}
	return tree, nil
}

// ParseFile parses the already-read content of a Python file and records
// its paths alongside the tree. It does not read from disk.
func (p *Parser) ParseFile(path, relPath string, content []byte) (*ParsedFile, error) {
	tree, err := p.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", relPath, err)
	}
	return &ParsedFile{Path: path, RelPath: relPath, Tree: tree, Content: content}, nil
}

// CloseAll closes every tree in a slice of ParsedFile. Safe to call with a
// nil or empty slice, and with entries that are themselves nil.
func CloseAll(files []*ParsedFile) {
	for _, f := range files {
		if f != nil && f.Tree != nil {
			f.Tree.Close()
		}
	}
}
