package imports_test

import (
	"testing"

	"github.com/mwhitfield/pydiff/internal/imports"
	"github.com/mwhitfield/pydiff/internal/parser"
	"github.com/mwhitfield/pydiff/internal/pyast"
)

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

func TestExtract_PlainImport(t *testing.T) {
	module := parseModule(t, "import os\n")
	table := imports.Extract(module)

	imp, ok := table.Lookup("os")
	if !ok {
		t.Fatal("expected 'os' to be bound")
	}
	if imp.CanonicalName != "os" {
		t.Fatalf("expected canonical 'os', got %q", imp.CanonicalName)
	}
}

func TestExtract_DottedImportBindsFirstComponent(t *testing.T) {
	module := parseModule(t, "import xml.etree.ElementTree\n")
	table := imports.Extract(module)

	if _, ok := table.Lookup("xml.etree.ElementTree"); ok {
		t.Fatal("the full dotted path must not be bound as a local name")
	}
	imp, ok := table.Lookup("xml")
	if !ok {
		t.Fatal("expected 'xml' to be bound as the local name")
	}
	if imp.CanonicalName != "xml.etree.ElementTree" {
		t.Fatalf("expected canonical 'xml.etree.ElementTree', got %q", imp.CanonicalName)
	}
}

func TestExtract_ImportAs(t *testing.T) {
	module := parseModule(t, "import numpy as np\n")
	table := imports.Extract(module)

	imp, ok := table.Lookup("np")
	if !ok {
		t.Fatal("expected 'np' to be bound")
	}
	if imp.CanonicalName != "numpy" {
		t.Fatalf("expected canonical 'numpy', got %q", imp.CanonicalName)
	}
}

func TestExtract_FromImport(t *testing.T) {
	module := parseModule(t, "from os.path import join\n")
	table := imports.Extract(module)

	imp, ok := table.Lookup("join")
	if !ok {
		t.Fatal("expected 'join' to be bound")
	}
	if imp.CanonicalName != "os.path.join" {
		t.Fatalf("expected canonical 'os.path.join', got %q", imp.CanonicalName)
	}
}

func TestExtract_FromImportAs(t *testing.T) {
	module := parseModule(t, "from os import path as p\n")
	table := imports.Extract(module)

	imp, ok := table.Lookup("p")
	if !ok {
		t.Fatal("expected 'p' to be bound")
	}
	if imp.CanonicalName != "os.path" {
		t.Fatalf("expected canonical 'os.path', got %q", imp.CanonicalName)
	}
}

func TestExtract_FromImportParenthesizedList(t *testing.T) {
	module := parseModule(t, "from collections import (OrderedDict, defaultdict as dd)\n")
	table := imports.Extract(module)

	if _, ok := table.Lookup("OrderedDict"); !ok {
		t.Fatal("expected 'OrderedDict' to be bound")
	}
	imp, ok := table.Lookup("dd")
	if !ok {
		t.Fatal("expected 'dd' to be bound")
	}
	if imp.CanonicalName != "collections.defaultdict" {
		t.Fatalf("expected canonical 'collections.defaultdict', got %q", imp.CanonicalName)
	}
}

func TestExtract_StarImportDoesNotBindAnything(t *testing.T) {
	module := parseModule(t, "from os.path import *\n")
	table := imports.Extract(module)

	if !table.HasStarImport() {
		t.Fatal("expected HasStarImport to be true")
	}
	if _, ok := table.Lookup("join"); ok {
		t.Fatal("a star import must never fabricate a binding for an unseen name")
	}
}

func TestExtract_NestedImportIsNotModuleLevel(t *testing.T) {
	module := parseModule(t, "def f():\n    import os\n    return os.getcwd()\n")
	table := imports.Extract(module)

	if _, ok := table.Lookup("os"); ok {
		t.Fatal("an import nested inside a function body must not appear in the module-level table")
	}
}
