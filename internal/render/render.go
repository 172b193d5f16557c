// Package render turns a *diffengine.ModuleDiff into text a human reads,
// following original_source/pyff/kitchensink.py's highlight-sentinel
// scheme: rendering inserts HLOpen/HLClose markers around anything that
// names a symbol, and a separate post-pass substitutes those markers for
// either ANSI color codes or plain quotes depending on whether stdout is a
// terminal (spec §4.6/§6: "a renderer produces text with highlight
// sentinels ... post-processed into either ANSI color codes or quotes").
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/mwhitfield/pydiff/internal/diffengine"
)

// HLOpen and HLClose bracket a highlighted symbol name in rendered text
// before the color/quotes post-pass runs.
const (
	HLOpen  = "``"
	HLClose = "''"
)

// Mode selects how HLOpen/HLClose are resolved.
type Mode int

const (
	// ModeColor substitutes ANSI red-and-reset around highlighted text.
	ModeColor Mode = iota
	// ModeQuotes substitutes a plain single quote on both ends.
	ModeQuotes
)

// Hl wraps a symbol name in highlight sentinels.
func Hl(name string) string {
	return HLOpen + name + HLClose
}

// Pluralize returns name unchanged when count == 1, otherwise with an "s"
// appended — deliberately simplistic, matching
// original_source/pyff/kitchensink.py's pluralize (it does not attempt
// real English pluralization rules).
func Pluralize(name string, count int) string {
	if count == 1 {
		return name
	}
	return name + "s"
}

// Hlistify renders a set of names, sorted, each highlighted, comma-joined.
func Hlistify(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	parts := make([]string, len(sorted))
	for i, n := range sorted {
		parts[i] = Hl(n)
	}
	return strings.Join(parts, ", ")
}

// Highlight resolves every HLOpen/HLClose pair in msg according to mode.
func Highlight(msg string, mode Mode) string {
	switch mode {
	case ModeColor:
		red := color.New(color.FgRed).SprintFunc()
		msg = strings.ReplaceAll(msg, HLOpen, "\x00OPEN\x00")
		msg = strings.ReplaceAll(msg, HLClose, "\x00CLOSE\x00")
		for strings.Contains(msg, "\x00OPEN\x00") {
			start := strings.Index(msg, "\x00OPEN\x00")
			end := strings.Index(msg, "\x00CLOSE\x00")
			if end == -1 || end < start {
				break
			}
			inner := msg[start+len("\x00OPEN\x00") : end]
			msg = msg[:start] + red(inner) + msg[end+len("\x00CLOSE\x00"):]
		}
		return msg
	case ModeQuotes:
		msg = strings.ReplaceAll(msg, HLOpen, "'")
		msg = strings.ReplaceAll(msg, HLClose, "'")
		return msg
	default:
		return msg
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l == "" {
			continue
		}
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

// Module renders a single module's diff, in the ModulePyfference.__str__
// style of original_source/pyff/modules.py: each non-empty section
// (imports, classes, functions) on its own block.
func Module(diff *diffengine.ModuleDiff) string {
	if diff.Empty() {
		return ""
	}
	var parts []string
	if s := Imports(diff.Imports); s != "" {
		parts = append(parts, s)
	}
	if s := Classes(diff.Classes); s != "" {
		parts = append(parts, s)
	}
	if s := Functions(diff.Functions); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

// Imports renders an *diffengine.ImportsDiff.
func Imports(diff *diffengine.ImportsDiff) string {
	if diff.Empty() {
		return ""
	}
	var lines []string
	if len(diff.Removed) > 0 {
		names := localNames(diff.Removed)
		lines = append(lines, fmt.Sprintf("Removed %s %s", Pluralize("import", len(names)), Hlistify(names)))
	}
	if len(diff.New) > 0 {
		names := localNames(diff.New)
		lines = append(lines, fmt.Sprintf("New %s %s", Pluralize("import", len(names)), Hlistify(names)))
	}
	return strings.Join(lines, "\n")
}

func localNames[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Classes renders a *diffengine.ClassesDiff.
func Classes(diff *diffengine.ClassesDiff) string {
	if diff.Empty() {
		return ""
	}
	var lines []string
	removed := append([]string(nil), diff.Removed...)
	sort.Strings(removed)
	for _, name := range removed {
		lines = append(lines, fmt.Sprintf("Removed class %s", Hl(name)))
	}

	changedNames := make([]string, 0, len(diff.Changed))
	for name := range diff.Changed {
		changedNames = append(changedNames, name)
	}
	sort.Strings(changedNames)
	for _, name := range changedNames {
		lines = append(lines, fmt.Sprintf("Class %s changed:\n%s", Hl(name), indent(Class(diff.Changed[name]))))
	}

	added := append([]string(nil), diff.New...)
	sort.Strings(added)
	for _, name := range added {
		lines = append(lines, fmt.Sprintf("New class %s", Hl(name)))
	}
	return strings.Join(lines, "\n")
}

// Class renders a single *diffengine.ClassDiff.
func Class(diff *diffengine.ClassDiff) string {
	if diff.Empty() {
		return ""
	}
	var parts []string
	if diff.Bases {
		parts = append(parts, "Base classes or decorators changed")
	}
	if s := Functions(diff.Methods); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

// Functions renders a *diffengine.FunctionsDiff, used both for module-level
// functions and (via ClassDiff.Methods) for a class's methods.
func Functions(diff *diffengine.FunctionsDiff) string {
	if diff.Empty() {
		return ""
	}
	var lines []string
	removed := append([]string(nil), diff.Removed...)
	sort.Strings(removed)
	for _, name := range removed {
		lines = append(lines, fmt.Sprintf("Removed %s", Hl(name)))
	}

	changedNames := make([]string, 0, len(diff.Changed))
	for name := range diff.Changed {
		changedNames = append(changedNames, name)
	}
	sort.Strings(changedNames)
	for _, name := range changedNames {
		lines = append(lines, Function(diff.Changed[name]))
	}

	added := append([]string(nil), diff.New...)
	sort.Strings(added)
	for _, name := range added {
		lines = append(lines, fmt.Sprintf("New %s", Hl(name)))
	}
	return strings.Join(lines, "\n")
}

// Function renders a single *diffengine.FunctionDiff.
func Function(diff *diffengine.FunctionDiff) string {
	noun := diff.Noun()
	var header string
	if diff.OldName != "" {
		header = fmt.Sprintf("%s %s renamed from %s", titleCase(noun), Hl(diff.Name), Hl(diff.OldName))
	} else {
		header = fmt.Sprintf("%s %s changed", titleCase(noun), Hl(diff.Name))
	}
	if len(diff.Implementation) == 0 {
		return header
	}
	var lines []string
	for _, change := range diff.Implementation {
		if s := implementationChange(change); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) == 0 {
		return header
	}
	return header + ":\n" + indent(strings.Join(lines, "\n"))
}

func implementationChange(change diffengine.ImplementationChange) string {
	switch c := change.(type) {
	case diffengine.GenericChange:
		return "Implementation changed"
	case *diffengine.ExternalUsageChange:
		var lines []string
		if len(c.Gone) > 0 {
			lines = append(lines, fmt.Sprintf("No longer uses %s", Hlistify(c.Gone)))
		}
		if len(c.Appeared) > 0 {
			lines = append(lines, fmt.Sprintf("Now uses %s", Hlistify(c.Appeared)))
		}
		return strings.Join(lines, "\n")
	case *diffengine.StatementChange:
		return statementDiff(c.Diff)
	default:
		return ""
	}
}

func statementDiff(diff *diffengine.StatementDiff) string {
	var lines []string
	for _, r := range diff.SemanticallyIrrelevant {
		if s := statementChangeReason(r); s != "" {
			lines = append(lines, s)
		}
	}
	for _, r := range diff.SemanticallyRelevant {
		if s := statementChangeReason(r); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) == 0 {
		return "Statement changed"
	}
	return strings.Join(lines, "\n")
}

func statementChangeReason(reason diffengine.StatementChangeReason) string {
	switch r := reason.(type) {
	case *diffengine.ExternalNameUsageChange:
		names := append([]diffengine.SingleExternalNameUsageChange(nil), r.Changes...)
		sort.Slice(names, func(i, j int) bool {
			if names[i].OldLocal != names[j].OldLocal {
				return names[i].OldLocal < names[j].OldLocal
			}
			return names[i].NewLocal < names[j].NewLocal
		})
		lines := make([]string, len(names))
		for i, n := range names {
			lines[i] = fmt.Sprintf("References of %s were changed to %s", Hl(n.OldLocal), Hl(n.NewLocal))
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}
