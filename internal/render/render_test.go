package render_test

import (
	"strings"
	"testing"

	"github.com/mwhitfield/pydiff/internal/diffengine"
	"github.com/mwhitfield/pydiff/internal/parser"
	"github.com/mwhitfield/pydiff/internal/pyast"
	"github.com/mwhitfield/pydiff/internal/render"
)

func diffModule(t *testing.T, oldSrc, newSrc string) *diffengine.ModuleDiff {
	t.Helper()
	p, err := parser.New()
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	t.Cleanup(p.Close)

	parse := func(src string) pyast.Node {
		content := []byte(src)
		tree, err := p.Parse(content)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		t.Cleanup(tree.Close)
		return pyast.Node{N: tree.RootNode(), Content: content}
	}

	return diffengine.PyffModule(parse(oldSrc), parse(newSrc), diffengine.Options{})
}

func TestHighlight_Quotes(t *testing.T) {
	msg := render.Hl("foo") + " changed"
	got := render.Highlight(msg, render.ModeQuotes)
	want := "'foo' changed"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestHighlight_Color(t *testing.T) {
	msg := render.Hl("foo")
	got := render.Highlight(msg, render.ModeColor)
	if strings.Contains(got, render.HLOpen) || strings.Contains(got, render.HLClose) {
		t.Fatalf("expected sentinels to be fully resolved, got %q", got)
	}
	if !strings.Contains(got, "foo") {
		t.Fatalf("expected the highlighted text to survive, got %q", got)
	}
}

func TestPluralize(t *testing.T) {
	if got := render.Pluralize("module", 1); got != "module" {
		t.Fatalf("got %q, want %q", got, "module")
	}
	if got := render.Pluralize("module", 2); got != "modules" {
		t.Fatalf("got %q, want %q", got, "modules")
	}
	if got := render.Pluralize("module", 0); got != "modules" {
		t.Fatalf("got %q, want %q", got, "modules")
	}
}

func TestHlistify_SortsAndHighlights(t *testing.T) {
	got := render.Hlistify([]string{"b", "a"})
	want := render.Hl("a") + ", " + render.Hl("b")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestValue_AndRenderedText_AgreeOnAddedFunction(t *testing.T) {
	diff := diffModule(t, "def f():\n    return 1\n", "def f():\n    return 1\n\n\ndef g():\n    return 2\n")
	if diff == nil {
		t.Fatal("expected a diff")
	}

	text := render.Module(diff)
	if !strings.Contains(text, "g") {
		t.Fatalf("expected rendered text to mention the new function, got %q", text)
	}

	v := render.Value(diff)
	functions, ok := v["functions"].(map[string]any)
	if !ok {
		t.Fatalf("expected a functions key in the structured value, got %+v", v)
	}
	newNames, ok := functions["new"].([]string)
	if !ok || len(newNames) != 1 || newNames[0] != "g" {
		t.Fatalf("expected functions.new == [g], got %+v", functions["new"])
	}

	if _, err := render.JSON(diff); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if _, err := render.YAML(diff); err != nil {
		t.Fatalf("YAML: %v", err)
	}
}
