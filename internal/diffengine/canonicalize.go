package diffengine

import (
	"fmt"
	"sort"

	"github.com/mwhitfield/pydiff/internal/imports"
	"github.com/mwhitfield/pydiff/internal/pyast"
)

// SingleExternalNameUsageChange records that one side referred to an
// imported entity under a local name different from the other side's local
// name for the exact same canonical (fully qualified) entity.
type SingleExternalNameUsageChange struct {
	OldLocal string
	NewLocal string
}

// ExternalNameUsageChange is the set of renames that, taken together, fully
// explain why two otherwise-identical statements differ only in which local
// names they used for imported entities.
type ExternalNameUsageChange struct {
	Changes []SingleExternalNameUsageChange
}

func (*ExternalNameUsageChange) isStatementChangeReason() {}

// canonicalizer mirrors the original FullyQualifyNames AST transformer, but
// instead of rewriting and re-walking a mutable tree, it produces a
// location-free dump string directly while recording which local names it
// substituted (substitutions) and which canonical paths it encountered
// written under which surface name (references). Tree-sitter's CST is
// immutable and source-backed, so rebuilding a rewritten tree to re-dump
// would mean fabricating byte ranges with no backing source; producing the
// canonical dump in one pass avoids that entirely.
type canonicalizer struct {
	imports       *imports.ImportedNames
	substitutions map[string]string // local name -> canonical name
	references    map[string]string // canonical name -> surface (local) name last seen
}

func newCanonicalizer(imp *imports.ImportedNames) *canonicalizer {
	return &canonicalizer{
		imports:       imp,
		substitutions: make(map[string]string),
		references:    make(map[string]string),
	}
}

// canon returns the canonicalized dump of n, and the canonical dotted path n
// resolves to if n is itself a (possibly rewritten) Name/Attribute chain
// rooted in an import, or "" if it is not.
func (c *canonicalizer) canon(n pyast.Node) (dump string, canonicalPath string) {
	switch n.Kind() {
	case "identifier":
		return c.canonIdentifier(n)
	case "attribute":
		return c.canonAttribute(n)
	case "parenthesized_expression":
		named := n.NamedChildren()
		if len(named) == 1 {
			return c.canon(named[0])
		}
		return c.canonGeneric(n)
	default:
		return c.canonGeneric(n)
	}
}

func (c *canonicalizer) canonGeneric(n pyast.Node) (string, string) {
	children := n.Children()
	if len(children) == 0 {
		return leafDump(n), ""
	}
	dump := "(" + n.Kind()
	for _, child := range children {
		childDump, _ := c.canon(child)
		dump += " " + childDump
	}
	dump += ")"
	return dump, ""
}

func (c *canonicalizer) canonIdentifier(n pyast.Node) (string, string) {
	if !isNameReferenceContext(n) {
		return leafDump(n), ""
	}
	local := n.Text()
	imp, ok := c.imports.Lookup(local)
	if !ok {
		return leafDump(n), ""
	}
	c.references[imp.CanonicalName] = local
	if imp.CanonicalName == local {
		return leafDump(n), imp.CanonicalName
	}
	c.substitutions[local] = imp.CanonicalName
	return canonicalChainDump(imp.CanonicalParts), imp.CanonicalName
}

func (c *canonicalizer) canonAttribute(n pyast.Node) (string, string) {
	objNode := n.Field("object")
	attrNode := n.Field("attribute")
	objDump, objCanonical := c.canon(objNode)
	attrText := attrNode.Text()
	attrDump := fmt.Sprintf("(identifier %q)", attrText)
	dump := fmt.Sprintf("(attribute %s %s)", objDump, attrDump)

	if objCanonical == "" {
		return dump, ""
	}
	canonicalPath := objCanonical + "." + attrText
	surface := c.references[objCanonical]
	c.references[canonicalPath] = surface + "." + attrText
	return dump, canonicalPath
}

// canonicalChainDump produces the same dump shape canonAttribute/
// canonIdentifier would produce for a literal, unaliased dotted reference
// like "os.path.join" — used to stand in for a rewritten Name whose
// canonical form spans multiple dotted components.
func canonicalChainDump(parts []string) string {
	dump := fmt.Sprintf("(identifier %q)", parts[0])
	for _, p := range parts[1:] {
		dump = fmt.Sprintf("(attribute %s (identifier %q))", dump, p)
	}
	return dump
}

func leafDump(n pyast.Node) string {
	children := n.Children()
	if len(children) == 0 {
		return fmt.Sprintf("(%s %q)", n.Kind(), n.Text())
	}
	dump := "(" + n.Kind()
	for _, c := range children {
		dump += " " + leafDump(c)
	}
	return dump + ")"
}

// isNameReferenceContext reports whether an identifier node is used as a
// value reference (a Name load, in ast terms) as opposed to a binding
// occurrence: a def/class name, a parameter name, a keyword argument name,
// the attribute half of an attribute access, an import's module path or
// alias target, or a global/nonlocal declaration. Only reference
// occurrences are eligible for import-table substitution.
func isNameReferenceContext(n pyast.Node) bool {
	parent := n.Parent()
	if parent.IsNil() {
		return true
	}
	switch parent.Kind() {
	case "function_definition", "class_definition":
		return !sameNode(parent.Field("name"), n)
	case "typed_parameter", "default_parameter", "typed_default_parameter":
		return !sameNode(parent.Field("name"), n)
	case "keyword_argument":
		return !sameNode(parent.Field("name"), n)
	case "parameters", "lambda_parameters":
		return false
	case "attribute":
		return !sameNode(parent.Field("attribute"), n)
	case "dotted_name", "relative_import", "aliased_import",
		"import_statement", "import_from_statement",
		"global_statement", "nonlocal_statement":
		return false
	case "as_pattern", "with_item":
		return !sameNode(parent.Field("alias"), n)
	case "except_clause":
		return false
	}
	return true
}

// sameNode reports whether a and b are the same node of one tree.
// Tree-sitter returns a fresh *Node from every lookup, so the pointers are
// never equal; kind and byte span identify the node instead.
func sameNode(a, b pyast.Node) bool {
	return !a.IsNil() && !b.IsNil() && a.Kind() == b.Kind() &&
		a.N.StartByte() == b.N.StartByte() && a.N.EndByte() == b.N.EndByte()
}

// findExternalNameMatches decides whether two structurally different
// statements are in fact identical once every imported name is rewritten to
// its canonical form — and if so, returns exactly which local-name renames
// explain the difference.
func findExternalNameMatches(old, new pyast.Node, oldImports, newImports *imports.ImportedNames) *ExternalNameUsageChange {
	oldCanon := newCanonicalizer(oldImports)
	newCanon := newCanonicalizer(newImports)
	oldDump, _ := oldCanon.canon(old)
	newDump, _ := newCanon.canon(new)
	if oldDump != newDump {
		return nil
	}

	seen := make(map[SingleExternalNameUsageChange]struct{})
	var changes []SingleExternalNameUsageChange
	add := func(oldLocal, newLocal string) {
		if oldLocal == newLocal {
			return
		}
		key := SingleExternalNameUsageChange{OldLocal: oldLocal, NewLocal: newLocal}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		changes = append(changes, key)
	}

	for oldLocal, canonical := range oldCanon.substitutions {
		if newLocal, ok := newCanon.references[canonical]; ok {
			add(oldLocal, newLocal)
		}
	}
	for newLocal, canonical := range newCanon.substitutions {
		if oldLocal, ok := oldCanon.references[canonical]; ok {
			add(oldLocal, newLocal)
		}
	}

	if len(changes) == 0 {
		return nil
	}
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].OldLocal != changes[j].OldLocal {
			return changes[i].OldLocal < changes[j].OldLocal
		}
		return changes[i].NewLocal < changes[j].NewLocal
	})
	return &ExternalNameUsageChange{Changes: changes}
}
