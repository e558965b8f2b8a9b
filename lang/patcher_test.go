package lang

import (
	"slices"
	"testing"

	"github.com/expr-lang/expr"
)

func TestHyphenPaths(t *testing.T) {
	env := map[string]any{
		"plain":      1.0,
		"unit-price": 2.0,
		"it": map[string]any{
			"unit-price": 2.0,
			"meta": map[string]any{
				"last-seen": "now",
			},
		},
	}

	want := []string{"it.meta.last-seen", "it.unit-price", "unit-price"}
	if got := hyphenPaths(env); !slices.Equal(got, want) {
		t.Errorf("hyphenPaths = %q, want %q", got, want)
	}

	if got := hyphenPaths(map[string]any{"a": 1.0}); len(got) != 0 {
		t.Errorf("expected no paths, got %q", got)
	}
}

func TestWhere_NestedHyphenatedMember(t *testing.T) {
	ctx := mapContext{
		"rows": []any{
			map[string]any{"meta": map[string]any{"last-seen": 5.0}},
			map[string]any{"meta": map[string]any{"last-seen": 50.0}},
		},
	}

	got, ok := eval(t, "rows | where:'it.meta.last-seen > 10'", ctx, nil).([]any)
	if !ok || len(got) != 1 {
		t.Fatalf("where returned %#v, want one row", got)
	}

	if v := member(member(got[0], "meta"), "last-seen"); v != 50.0 {
		t.Errorf("matched row last-seen = %v, want 50", v)
	}
}

func TestHyphenPatcher(t *testing.T) {
	env := map[string]any{
		"unit-price": 3.0,
		"a-b-c":      1.0,
		"it": map[string]any{
			"last-seen": 7.0,
			"x":         10.0,
		},
		"x": 10.0,
		"y": 4.0,
	}

	tests := []struct {
		source string
		want   any
	}{
		{"unit-price", 3.0},
		{"a-b-c", 1.0},
		{"it.last-seen", 7.0},
		{"x-y", 6.0},
		{"it.x-y", 6.0},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			program, err := expr.Compile(tt.source,
				expr.AllowUndefinedVariables(),
				expr.Patch(&hyphenPatcher{env: env}))
			if err != nil {
				t.Fatalf("compile %q: %v", tt.source, err)
			}

			got, err := expr.Run(program, env)
			if err != nil {
				t.Fatalf("run %q: %v", tt.source, err)
			}

			if !DeepEqual(Normalize(got), tt.want) {
				t.Errorf("%s = %v, want %v", tt.source, got, tt.want)
			}
		})
	}
}
