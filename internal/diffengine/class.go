package diffengine

import (
	"sort"

	"github.com/mwhitfield/pydiff/internal/imports"
	"github.com/mwhitfield/pydiff/internal/pyast"
)

// ClassSummary names an extracted top-level class definition.
type ClassSummary struct {
	Name string
	Node pyast.Node
}

// ExtractClasses collects the direct class definitions in a module body.
func ExtractClasses(body []pyast.Node) map[string]ClassSummary {
	out := make(map[string]ClassSummary)
	for _, stmt := range body {
		def := stmt
		if stmt.Kind() == "decorated_definition" {
			def, _ = pyast.Unwrap(stmt)
		}
		if def.Kind() != "class_definition" {
			continue
		}
		out[def.Field("name").Text()] = ClassSummary{Name: def.Field("name").Text(), Node: stmt}
	}
	return out
}

// ClassDiff is the result of comparing two class bodies: their
// superclasses and decorators compared structurally (folded into the single
// Bases flag when either differs), and their methods compared the same way
// PyffFunctions compares module-level functions.
type ClassDiff struct {
	Bases   bool // true if the superclass/decorator list changed
	Methods *FunctionsDiff
}

// Empty reports whether this diff carries nothing worth reporting.
func (d *ClassDiff) Empty() bool {
	return d == nil || (!d.Bases && d.Methods.Empty())
}

// PyffClass compares two class definitions and returns nil if equivalent.
func PyffClass(oldTop, newTop pyast.Node, oldImports, newImports *imports.ImportedNames, opts Options) *ClassDiff {
	oldDef, oldDecorators := pyast.Unwrap(oldTop)
	newDef, newDecorators := pyast.Unwrap(newTop)

	basesChanged := !pyast.EqualAll(oldDecorators, newDecorators) ||
		!pyast.Equal(oldDef.Field("superclasses"), newDef.Field("superclasses"))

	oldMethods := ExtractFunctions(pyast.Body(oldDef))
	newMethods := ExtractFunctions(pyast.Body(newDef))
	methods := PyffFunctions(oldMethods, newMethods, oldImports, newImports, opts)
	if methods != nil {
		methods.SetMethod()
	}

	diff := &ClassDiff{Bases: basesChanged, Methods: methods}
	if diff.Empty() {
		return nil
	}
	return diff
}

// ClassesDiff is the result of comparing two { name -> ClassSummary }
// extractions: which classes are new, which were removed, and which
// persisted but changed.
type ClassesDiff struct {
	New     []string
	Removed []string
	Changed map[string]*ClassDiff
}

// Empty reports whether this diff carries nothing worth reporting.
func (d *ClassesDiff) Empty() bool {
	return d == nil || (len(d.New) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0)
}

// PyffClasses compares two class extractions and returns nil if nothing changed.
func PyffClasses(old, new map[string]ClassSummary, oldImports, newImports *imports.ImportedNames, opts Options) *ClassesDiff {
	diff := &ClassesDiff{Changed: make(map[string]*ClassDiff)}

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
	for name, oldCls := range old {
		newCls, ok := new[name]
		if !ok {
			continue
		}
		if cd := PyffClass(oldCls.Node, newCls.Node, oldImports, newImports, opts); cd != nil {
			diff.Changed[name] = cd
		}
	}

	sort.Strings(diff.New)
	sort.Strings(diff.Removed)

	if diff.Empty() {
		return nil
	}
	return diff
}
