package lang

import (
	"errors"
	"testing"
)

func TestBuilder_Value(t *testing.T) {
	b := NewBuilder()

	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{true, "true"},
		{2, "2"},
		{"it's", `'it\'s'`},
		{[]any{1, "x", nil}, "[1, 'x', null]"},
		{map[string]any{"b": 1, "a": []any{}, "not ident": false}, "{a: [], b: 1, 'not ident': false}"},
		{map[any]any{"k": map[string]any{"v": 1.5}}, "{k: {v: 1.5}}"},
	}

	for _, tt := range tests {
		n, err := b.Value(tt.in)
		if err != nil {
			t.Errorf("Value(%v) failed: %v", tt.in, err)

			continue
		}

		if got := FormatString(n); got != tt.want {
			t.Errorf("Value(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestBuilder_ValueRejectsFunctions(t *testing.T) {
	_, err := NewBuilder().Value([]any{func() {}})
	if !errors.Is(err, ErrEvaluate) {
		t.Errorf("got %v, want ErrEvaluate", err)
	}
}

func TestBuilder_Path(t *testing.T) {
	b := NewBuilder()

	tests := []struct {
		path string
		want string
	}{
		{"a", "a"},
		{"user.name", "user.name"},
		{"items.0.id", "items['0'].id"},
		{"cfg.log-level", "cfg['log-level']"},
	}

	for _, tt := range tests {
		if got := FormatString(b.Path(tt.path)); got != tt.want {
			t.Errorf("Path(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestBuilder_AssignCompiles(t *testing.T) {
	b := NewBuilder()

	v, err := b.Value(map[string]any{"n": 2})
	if err != nil {
		t.Fatal(err)
	}

	e, err := NewParser().Compile(t.Context(), b.Program(b.Assign(b.Path("cfg.opts"), v)))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	ctx := mapContext{}

	if _, err := e.Eval(ctx, nil); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	got, err := MustParse("cfg.opts.n").Eval(ctx, nil)
	if err != nil || got != 2.0 {
		t.Errorf("cfg.opts.n = %v (%v), want 2", got, err)
	}
}
