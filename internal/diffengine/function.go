package diffengine

import (
	"sort"

	"github.com/mwhitfield/pydiff/internal/imports"
	"github.com/mwhitfield/pydiff/internal/pyast"
)

// Options controls the optional checks PyffFunction performs, mirroring the
// original implementation's check_typing/check_docstrings keyword arguments.
type Options struct {
	// CheckTyping compares return and parameter type annotations. The zero
	// value false, which is also the CLI flag's default, leaves annotations
	// uncompared, so an annotation-only change is not reported.
	CheckTyping bool
	// CheckDocstrings, when false (the default), strips a leading
	// docstring expression from both bodies before comparing statements,
	// so a changed docstring alone is not reported as an implementation
	// change.
	CheckDocstrings bool
}

// ImplementationChange is a tagged variant of the closed set of reasons a
// function's implementation can differ.
type ImplementationChange interface {
	isImplementationChange()
}

// GenericChange represents an implementation change this engine can
// confirm happened but has no more specific reason to report — a changed
// decorator list, a changed type annotation, an added or removed
// statement, or a statement whose difference could not be explained as
// purely an import rename.
type GenericChange struct{}

func (GenericChange) isImplementationChange() {}

// ExternalUsageChange reports that the set of imported names a function's
// body actually uses changed, independent of any statement-level rewrite.
type ExternalUsageChange struct {
	Gone     []string
	Appeared []string
}

func (*ExternalUsageChange) isImplementationChange() {}

// StatementChange wraps a specific statement-level diff that has something
// concrete to say (at minimum, an explained-away import rename).
type StatementChange struct {
	Diff *StatementDiff
}

func (*StatementChange) isImplementationChange() {}

// FunctionDiff is the result of comparing two function definitions that
// turned out to differ. Name is the new (current) name; OldName is set
// only when the function was renamed.
type FunctionDiff struct {
	Name           string
	OldName        string
	Implementation []ImplementationChange
	noun           string
}

// SetMethod marks this diff as describing a class method rather than a
// module-level function, for rendering purposes ("method" vs "function").
func (d *FunctionDiff) SetMethod() { d.noun = "method" }

// Noun returns "method" or "function" depending on SetMethod.
func (d *FunctionDiff) Noun() string {
	if d.noun == "" {
		return "function"
	}
	return d.noun
}

// changeSet accumulates ImplementationChange values, collapsing repeated
// GenericChange occurrences into at most one — the engine's closed set of
// reasons treats every unexplained change as interchangeable, so recording
// it more than once adds nothing (mirrors the original's use of a Python
// set, where bare FunctionImplementationChange() instances compare equal).
type changeSet struct {
	hasGeneric bool
	rest       []ImplementationChange
}

func (s *changeSet) addGeneric() {
	s.hasGeneric = true
}

func (s *changeSet) add(c ImplementationChange) {
	s.rest = append(s.rest, c)
}

func (s *changeSet) list() []ImplementationChange {
	out := make([]ImplementationChange, 0, len(s.rest)+1)
	if s.hasGeneric {
		out = append(out, GenericChange{})
	}
	out = append(out, s.rest...)
	return out
}

func (s *changeSet) empty() bool {
	return !s.hasGeneric && len(s.rest) == 0
}

// PyffFunction compares two function definitions (optionally wrapped in a
// decorated_definition) and returns nil if they are equivalent. oldTop and
// newTop may be either a bare function_definition or its enclosing
// decorated_definition.
func PyffFunction(oldTop, newTop pyast.Node, oldImports, newImports *imports.ImportedNames, opts Options) *FunctionDiff {
	oldDef, oldDecorators := pyast.Unwrap(oldTop)
	newDef, newDecorators := pyast.Unwrap(newTop)

	oldName := oldDef.Field("name").Text()
	newName := newDef.Field("name").Text()
	var renamedFrom string
	if oldName != newName {
		renamedFrom = oldName
	}

	changes := &changeSet{}

	if !pyast.EqualAll(oldDecorators, newDecorators) {
		changes.addGeneric()
	}

	if opts.CheckTyping {
		compareTyping(oldDef, newDef, changes)
	}

	oldBody := pyast.Body(oldDef)
	newBody := pyast.Body(newDef)
	if !opts.CheckDocstrings {
		oldBody = stripDocstring(oldBody)
		newBody = stripDocstring(newBody)
	}
	compareBodies(oldBody, newBody, oldImports, newImports, changes)

	if usage := compareImportUsage(oldDef, newDef, oldImports, newImports); usage != nil {
		changes.add(usage)
	}

	if renamedFrom == "" && changes.empty() {
		return nil
	}
	return &FunctionDiff{Name: newName, OldName: renamedFrom, Implementation: changes.list()}
}

func compareTyping(oldDef, newDef pyast.Node, changes *changeSet) {
	if !pyast.Equal(oldDef.Field("return_type"), newDef.Field("return_type")) {
		changes.addGeneric()
	}
	oldParams := oldDef.Field("parameters").NamedChildren()
	newParams := newDef.Field("parameters").NamedChildren()
	n := len(oldParams)
	if len(newParams) > n {
		n = len(newParams)
	}
	for i := 0; i < n; i++ {
		var op, np pyast.Node
		if i < len(oldParams) {
			op = oldParams[i]
		}
		if i < len(newParams) {
			np = newParams[i]
		}
		if !pyast.Equal(paramAnnotation(op), paramAnnotation(np)) {
			changes.addGeneric()
		}
	}
}

func paramAnnotation(p pyast.Node) pyast.Node {
	switch p.Kind() {
	case "typed_parameter", "typed_default_parameter":
		return p.Field("type")
	default:
		return pyast.Node{}
	}
}

func stripDocstring(body []pyast.Node) []pyast.Node {
	if len(body) == 0 {
		return body
	}
	if pyast.IsDocstringExpr(body[0]) {
		return body[1:]
	}
	return body
}

func compareBodies(oldBody, newBody []pyast.Node, oldImports, newImports *imports.ImportedNames, changes *changeSet) {
	n := len(oldBody)
	if len(newBody) > n {
		n = len(newBody)
	}
	for i := 0; i < n; i++ {
		var old, new pyast.Node
		if i < len(oldBody) {
			old = oldBody[i]
		}
		if i < len(newBody) {
			new = newBody[i]
		}
		if old.IsNil() || new.IsNil() {
			changes.addGeneric()
			continue
		}
		diff := PyffStatement(old, new, oldImports, newImports)
		if diff == nil {
			continue
		}
		if diff.IsSpecific() {
			changes.add(&StatementChange{Diff: diff})
		} else {
			changes.addGeneric()
		}
	}
}

// compareImportUsage reports the set of imported entities referenced in the
// old body that are no longer referenced in the new one, and vice versa.
// Walks only the function body, mirroring compare_import_usage's
// `for statement in old.body: first_walker.visit(statement)`.
func compareImportUsage(oldDef, newDef pyast.Node, oldImports, newImports *imports.ImportedNames) *ExternalUsageChange {
	oldUsed := externalNamesUsed(pyast.Body(oldDef), oldImports)
	newUsed := externalNamesUsed(pyast.Body(newDef), newImports)

	gone := setDifference(oldUsed, newUsed)
	appeared := setDifference(newUsed, oldUsed)
	if len(gone) == 0 && len(appeared) == 0 {
		return nil
	}
	return &ExternalUsageChange{Gone: gone, Appeared: appeared}
}

// externalNamesWalker is the Go analogue of ExternalNamesExtractor
// (original_source/pyff/functions.py): it records the local name of every
// Name node that resolves through the import table, and separately walks
// Attribute chains by extending an in-progress prefix one level at a time,
// only while that prefix remains unresolved — the moment the extended
// prefix itself resolves through the import table, it is recorded and the
// chain resets. Unlike the statement-level canonicalizer in canonicalize.go,
// this never substitutes or dumps anything; it only collects the set of
// local names actually used.
type externalNamesWalker struct {
	imports     *imports.ImportedNames
	names       map[string]struct{}
	inProgress  string
	hasProgress bool
}

func newExternalNamesWalker(imp *imports.ImportedNames) *externalNamesWalker {
	return &externalNamesWalker{imports: imp, names: make(map[string]struct{})}
}

func (w *externalNamesWalker) visit(n pyast.Node) {
	switch n.Kind() {
	case "identifier":
		w.visitIdentifier(n)
	case "attribute":
		w.visitAttribute(n)
	default:
		for _, c := range n.Children() {
			w.visit(c)
		}
	}
}

func (w *externalNamesWalker) visitIdentifier(n pyast.Node) {
	if !isNameReferenceContext(n) {
		return
	}
	w.inProgress, w.hasProgress = "", false
	local := n.Text()
	if _, ok := w.imports.Lookup(local); ok {
		w.names[local] = struct{}{}
		return
	}
	w.inProgress, w.hasProgress = local, true
}

func (w *externalNamesWalker) visitAttribute(n pyast.Node) {
	w.inProgress, w.hasProgress = "", false
	w.visit(n.Field("object"))
	if !w.hasProgress {
		return
	}
	chain := w.inProgress + "." + n.Field("attribute").Text()
	if _, ok := w.imports.Lookup(chain); ok {
		w.names[chain] = struct{}{}
		w.inProgress, w.hasProgress = "", false
		return
	}
	w.inProgress = chain
}

func externalNamesUsed(body []pyast.Node, imp *imports.ImportedNames) map[string]struct{} {
	w := newExternalNamesWalker(imp)
	for _, stmt := range body {
		w.visit(stmt)
	}
	return w.names
}

func setDifference(a, b map[string]struct{}) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// FunctionSummary names an extracted top-level function or method for the
// purpose of matching old and new functions by name before diffing them.
type FunctionSummary struct {
	Name       string
	Node       pyast.Node
	IsProperty bool
}

// ExtractFunctions collects the direct function definitions in a body
// (module or class), not recursing into nested classes — a method defined
// inside a nested class is that class's concern, not this scope's.
func ExtractFunctions(body []pyast.Node) map[string]FunctionSummary {
	out := make(map[string]FunctionSummary)
	for _, stmt := range body {
		def := stmt
		var decorators []pyast.Node
		if stmt.Kind() == "decorated_definition" {
			def, decorators = pyast.Unwrap(stmt)
		}
		if def.Kind() != "function_definition" {
			continue
		}
		name := def.Field("name").Text()
		isProperty := false
		for _, d := range decorators {
			if pyast.IsBareNameDecorator(d, "property") {
				isProperty = true
			}
		}
		out[name] = FunctionSummary{Name: name, Node: stmt, IsProperty: isProperty}
	}
	return out
}

// FunctionsDiff is the result of comparing two functions/methods
// extractions: which names are brand new, which were removed, and which
// persisted but changed.
type FunctionsDiff struct {
	New     []string
	Removed []string
	Changed map[string]*FunctionDiff
}

// SetMethod propagates method/function noun selection to every changed
// function in this diff.
func (d *FunctionsDiff) SetMethod() {
	for _, c := range d.Changed {
		c.SetMethod()
	}
}

// Empty reports whether this diff carries nothing worth reporting.
func (d *FunctionsDiff) Empty() bool {
	return d == nil || (len(d.New) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0)
}

// PyffFunctions compares two { name -> FunctionSummary } extractions and
// returns nil if nothing changed.
func PyffFunctions(old, new map[string]FunctionSummary, oldImports, newImports *imports.ImportedNames, opts Options) *FunctionsDiff {
	diff := &FunctionsDiff{Changed: make(map[string]*FunctionDiff)}

	for name := range old {
		if _, ok := new[name]; !ok {
			diff.Removed = append(diff.Removed, name)
		}
	}
	for name := range new {
		if _, ok := old[name]; !ok {
			diff.New = append(diff.New, name)
		}
	}
	for name, oldFn := range old {
		newFn, ok := new[name]
		if !ok {
			continue
		}
		if fd := PyffFunction(oldFn.Node, newFn.Node, oldImports, newImports, opts); fd != nil && !onlyImportAliasChanges(fd) {
			diff.Changed[name] = fd
		}
	}

	sort.Strings(diff.New)
	sort.Strings(diff.Removed)

	if diff.Empty() {
		return nil
	}
	return diff
}

// onlyImportAliasChanges reports whether fd (not a rename) holds only
// statement rewrites explained away as import aliasing, plus any usage
// change; PyffFunctions leaves such functions out of Changed.
func onlyImportAliasChanges(fd *FunctionDiff) bool {
	explained := false
	for _, c := range fd.Implementation {
		if _, usage := c.(*ExternalUsageChange); usage {
			continue
		}
		sc, ok := c.(*StatementChange)
		if !ok || sc.Diff.SemanticallyDifferent() {
			return false
		}
		explained = true
	}
	return fd.OldName == "" && explained
}
