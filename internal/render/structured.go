package render

import (
	"encoding/json"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/mwhitfield/pydiff/internal/diffengine"
)

// Value converts a *diffengine.ModuleDiff into a plain map/slice/string
// tree, suitable for both encoding/json and gopkg.in/yaml.v3 — the
// supplemental --format=json/--format=yaml output modes share this one
// conversion rather than keeping two parallel struct hierarchies in sync.
func Value(diff *diffengine.ModuleDiff) map[string]any {
	out := map[string]any{}
	if diff == nil {
		return out
	}
	if !diff.Imports.Empty() {
		out["imports"] = importsValue(diff.Imports)
	}
	if !diff.Classes.Empty() {
		out["classes"] = classesValue(diff.Classes)
	}
	if !diff.Functions.Empty() {
		out["functions"] = functionsValue(diff.Functions)
	}
	return out
}

// JSON marshals a module diff to indented JSON.
func JSON(diff *diffengine.ModuleDiff) ([]byte, error) {
	return json.MarshalIndent(Value(diff), "", "  ")
}

// YAML marshals a module diff to YAML.
func YAML(diff *diffengine.ModuleDiff) ([]byte, error) {
	return yaml.Marshal(Value(diff))
}

func importsValue(diff *diffengine.ImportsDiff) map[string]any {
	return map[string]any{
		"removed": sortedKeys(diff.Removed),
		"new":     sortedKeys(diff.New),
	}
}

func sortedKeys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func classesValue(diff *diffengine.ClassesDiff) map[string]any {
	changed := map[string]any{}
	for name, c := range diff.Changed {
		changed[name] = classValue(c)
	}
	return map[string]any{
		"removed": sortStrings(diff.Removed),
		"new":     sortStrings(diff.New),
		"changed": changed,
	}
}

func classValue(diff *diffengine.ClassDiff) map[string]any {
	out := map[string]any{"bases_changed": diff.Bases}
	if !diff.Methods.Empty() {
		out["methods"] = functionsValue(diff.Methods)
	}
	return out
}

func functionsValue(diff *diffengine.FunctionsDiff) map[string]any {
	changed := map[string]any{}
	for name, f := range diff.Changed {
		changed[name] = functionValue(f)
	}
	return map[string]any{
		"removed": sortStrings(diff.Removed),
		"new":     sortStrings(diff.New),
		"changed": changed,
	}
}

func functionValue(diff *diffengine.FunctionDiff) map[string]any {
	out := map[string]any{"name": diff.Name}
	if diff.OldName != "" {
		out["old_name"] = diff.OldName
	}
	changes := make([]any, 0, len(diff.Implementation))
	for _, c := range diff.Implementation {
		changes = append(changes, implementationValue(c))
	}
	out["implementation"] = changes
	return out
}

func implementationValue(change diffengine.ImplementationChange) any {
	switch c := change.(type) {
	case diffengine.GenericChange:
		return map[string]any{"kind": "generic"}
	case *diffengine.ExternalUsageChange:
		return map[string]any{
			"kind":     "external_usage",
			"gone":     c.Gone,
			"appeared": c.Appeared,
		}
	case *diffengine.StatementChange:
		return map[string]any{
			"kind":      "statement",
			"different": c.Diff.SemanticallyDifferent(),
			"specific":  c.Diff.IsSpecific(),
		}
	default:
		return map[string]any{"kind": "unknown"}
	}
}

func sortStrings(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}
