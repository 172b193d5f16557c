package diffengine

import (
	"github.com/mwhitfield/pydiff/internal/imports"
	"github.com/mwhitfield/pydiff/internal/pyast"
)

// ImportsDiff is the raw local-name set difference between two modules'
// import tables: which local names the old module bound that the new one
// doesn't, and vice versa. A local name that persists but now points at a
// different canonical path is not reported here — that only ever shows up
// indirectly, as changed behavior in whatever statement actually uses it.
type ImportsDiff struct {
	Removed map[string]imports.ImportedName
	New     map[string]imports.ImportedName
}

// Empty reports whether this diff carries nothing worth reporting.
func (d *ImportsDiff) Empty() bool {
	return d == nil || (len(d.Removed) == 0 && len(d.New) == 0)
}

// PyffImports computes the raw local-name set difference between two
// import tables. Returns nil if the sets of local names are identical.
func PyffImports(old, new *imports.ImportedNames) *ImportsDiff {
	diff := &ImportsDiff{
		Removed: make(map[string]imports.ImportedName),
		New:     make(map[string]imports.ImportedName),
	}
	for local := range old.LocalNames() {
		if _, ok := new.Lookup(local); !ok {
			imp, _ := old.Lookup(local)
			diff.Removed[local] = imp
		}
	}
	for local := range new.LocalNames() {
		if _, ok := old.Lookup(local); !ok {
			imp, _ := new.Lookup(local)
			diff.New[local] = imp
		}
	}
	if diff.Empty() {
		return nil
	}
	return diff
}

// ModuleDiff is the full result of comparing two versions of one module:
// its import table, its top-level classes, and its top-level functions.
type ModuleDiff struct {
	Imports   *ImportsDiff
	Classes   *ClassesDiff
	Functions *FunctionsDiff
}

// Empty reports whether this diff carries nothing worth reporting.
func (d *ModuleDiff) Empty() bool {
	return d == nil || (d.Imports.Empty() && d.Classes.Empty() && d.Functions.Empty())
}

// PyffModule compares two versions of the same module's concrete syntax
// tree (each rooted at a "module" node) and returns nil if they are
// equivalent.
func PyffModule(old, new pyast.Node, opts Options) *ModuleDiff {
	oldImports := imports.Extract(old)
	newImports := imports.Extract(new)

	oldClasses := ExtractClasses(pyast.Body(old))
	newClasses := ExtractClasses(pyast.Body(new))

	oldFunctions := ExtractFunctions(bodyExcludingClasses(old, oldClasses))
	newFunctions := ExtractFunctions(bodyExcludingClasses(new, newClasses))

	diff := &ModuleDiff{
		Imports:   PyffImports(oldImports, newImports),
		Classes:   PyffClasses(oldClasses, newClasses, oldImports, newImports, opts),
		Functions: PyffFunctions(oldFunctions, newFunctions, oldImports, newImports, opts),
	}
	if diff.Empty() {
		return nil
	}
	return diff
}

// bodyExcludingClasses returns a module's top-level statements with class
// definitions removed, so ExtractFunctions only sees module-level
// functions — matching the original FunctionsExtractor, whose visit_ClassDef
// is a no-op specifically to avoid treating a class's methods as
// module-level functions.
func bodyExcludingClasses(module pyast.Node, classes map[string]ClassSummary) []pyast.Node {
	body := pyast.Body(module)
	out := make([]pyast.Node, 0, len(body))
	for _, stmt := range body {
		if def, _ := pyast.Unwrap(stmt); def.Kind() == "class_definition" {
			if _, ok := classes[def.Field("name").Text()]; ok {
				continue
			}
		}
		out = append(out, stmt)
	}
	return out
}
