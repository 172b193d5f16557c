// Package imports extracts the module-level import table spec §3 and §4.1
// describe: a mapping from each name an import statement binds locally to
// the fully qualified ("canonical") dotted path it refers to. The table is
// the sole input the statement canonicalizer (internal/diffengine) needs to
// tell a harmless rename of an imported name apart from a real behavior
// change.
package imports

import (
	"strings"

	"github.com/mwhitfield/pydiff/internal/pyast"
)

// ImportedName records one name bound into a module's namespace by an
// import statement: the name as it is actually used in the file
// (LocalName), and the fully qualified path it is shorthand for
// (CanonicalName / CanonicalParts).
type ImportedName struct {
	LocalName      string
	CanonicalName  string
	CanonicalParts []string
}

func newImportedName(local, canonical string) ImportedName {
	return ImportedName{
		LocalName:      local,
		CanonicalName:  canonical,
		CanonicalParts: strings.Split(canonical, "."),
	}
}

// ImportedNames is the per-module import table: local name -> binding.
type ImportedNames struct {
	byLocal       map[string]ImportedName
	hasStarImport bool
}

func newImportedNames() *ImportedNames {
	return &ImportedNames{
		byLocal: make(map[string]ImportedName),
	}
}

// Lookup returns the binding for a local name, if one exists.
func (n *ImportedNames) Lookup(local string) (ImportedName, bool) {
	if n == nil {
		return ImportedName{}, false
	}
	imp, ok := n.byLocal[local]
	return imp, ok
}

// HasStarImport reports whether the module contains a `from x import *`.
// Per spec §4.1/Non-goals, star imports never resolve to a canonical name;
// their presence only means unresolved names must not be treated as
// confidently local (they are left opaque, never rewritten).
func (n *ImportedNames) HasStarImport() bool {
	return n != nil && n.hasStarImport
}

// LocalNames returns the set of local names this table binds.
func (n *ImportedNames) LocalNames() map[string]struct{} {
	out := make(map[string]struct{})
	if n == nil {
		return out
	}
	for local := range n.byLocal {
		out[local] = struct{}{}
	}
	return out
}

func (n *ImportedNames) add(local, canonical string) {
	n.byLocal[local] = newImportedName(local, canonical)
}

// Extract walks the direct statements of a module (top level only — imports
// nested inside a function or class body are not part of the module's
// import table; spec §4.1 scopes extraction to module level) and builds the
// ImportedNames table.
func Extract(module pyast.Node) *ImportedNames {
	table := newImportedNames()
	for _, stmt := range pyast.Body(module) {
		switch stmt.Kind() {
		case "import_statement":
			extractImport(table, stmt)
		case "import_from_statement":
			extractImportFrom(table, stmt)
		}
	}
	return table
}

// extractImport handles `import a`, `import a.b.c`, `import a.b.c as d`,
// and comma-separated combinations of these.
func extractImport(table *ImportedNames, stmt pyast.Node) {
	for _, child := range stmt.NamedChildren() {
		switch child.Kind() {
		case "dotted_name":
			parts := dottedNameParts(child)
			if len(parts) == 0 {
				continue
			}
			// "import a.b.c" binds the first component, "a", with the full
			// dotted path as its canonical name.
			table.add(parts[0], strings.Join(parts, "."))
		case "aliased_import":
			name := child.Field("name")
			alias := child.Field("alias")
			if name.IsNil() || alias.IsNil() {
				continue
			}
			canonical := strings.Join(dottedNameParts(name), ".")
			table.add(alias.Text(), canonical)
		}
	}
}

// extractImportFrom handles `from a.b import c`, `from a.b import c as d`,
// `from a.b import (c, d as e)`, `from . import x`, and `from a import *`.
func extractImportFrom(table *ImportedNames, stmt pyast.Node) {
	moduleNode := stmt.Field("module_name")
	modulePrefix := moduleText(moduleNode)

	for _, child := range stmt.NamedChildren() {
		switch child.Kind() {
		case "wildcard_import":
			table.hasStarImport = true
		case "dotted_name":
			// Tree-sitter returns a fresh *Node per lookup, so the module
			// clause is recognized by its start offset, not by pointer.
			if !moduleNode.IsNil() && child.N.StartByte() == moduleNode.N.StartByte() {
				continue
			}
			parts := dottedNameParts(child)
			if len(parts) == 0 {
				continue
			}
			local := parts[len(parts)-1]
			canonical := joinCanonical(modulePrefix, strings.Join(parts, "."))
			table.add(local, canonical)
		case "aliased_import":
			name := child.Field("name")
			alias := child.Field("alias")
			if name.IsNil() || alias.IsNil() {
				continue
			}
			imported := strings.Join(dottedNameParts(name), ".")
			canonical := joinCanonical(modulePrefix, imported)
			table.add(alias.Text(), canonical)
		}
	}
}

// dottedNameParts splits a dotted_name node's text on ".". Tree-sitter does
// not expose the individual identifier children as separately named, so we
// split the node's own text rather than walk children.
func dottedNameParts(n pyast.Node) []string {
	text := n.Text()
	if text == "" {
		return nil
	}
	return strings.Split(text, ".")
}

// moduleText returns the textual form of a `from X import ...` statement's
// module clause, which may be a dotted_name ("a.b") or a relative_import
// ("." / ".." / ".pkg"). Relative imports are kept as literal leading-dot
// text: this engine never resolves them to an absolute package path (no
// filesystem package graph is available at this layer), but keeping the
// dots makes the canonical name internally consistent within one file,
// which is all the comparator needs.
func moduleText(n pyast.Node) string {
	if n.IsNil() {
		return ""
	}
	return n.Text()
}

func joinCanonical(modulePrefix, name string) string {
	if modulePrefix == "" {
		return name
	}
	if strings.HasSuffix(modulePrefix, ".") {
		return modulePrefix + name
	}
	return modulePrefix + "." + name
}
