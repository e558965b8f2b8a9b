package repl

import (
	"slices"
	"testing"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/ardnew/digest/lang"
	"github.com/ardnew/digest/log"
	"github.com/ardnew/digest/scope"
)

func newTestSession(t *testing.T) *session {
	t.Helper()

	loop := scope.NewLoop()
	root := scope.NewRoot(scope.WithScheduler(loop))
	root.Set(lang.HostNamespace, lang.Host())
	root.SetAll(map[string]any{
		"server": map[string]any{
			"http":  map[string]any{"host": "localhost", "port": 8080.0},
			"debug": false,
		},
		"items":  []any{1.0, 2.0},
		"double": func(x float64) float64 { return 2 * x },
	})

	return newSession(root, loop)
}

func TestWordBounds_Operators(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"dot_separated", "bar.baz", 7, "baz", 4, 7},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_minus", "a - fo", 6, "fo", 4, 6},
		{"after_minus_tight", "a-fo", 4, "fo", 2, 4},
		{"after_paren", "double(fo", 9, "fo", 7, 9},
		{"after_comma", "add(a, fo", 9, "fo", 7, 9},
		{"in_ternary", "x ? fo", 6, "fo", 4, 6},
		{"after_comparison", "a > fo", 6, "fo", 4, 6},
		{"after_pipe", "a | fil", 7, "fil", 4, 7},
		{"in_object", "{a: fo", 6, "fo", 4, 6},
		{"empty_at_boundary", "a + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"between_operators", "a+b", 2, "b", 2, 3},
		{"dollar_identifier", "$root.x", 5, "$root", 0, 5},
		// After dot is an empty word (for triggering child completions).
		{"empty_after_dot", "config.", 7, "", 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentPath_WithOperators(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      string
	}{
		{"top_level", "fo", 0, ""},
		{"simple_chain", "bar.baz.", 8, "bar.baz"},
		{"after_operator", "foo + bar.baz.", 14, "bar.baz"},
		{"after_minus", "foo-bar.baz.", 12, "bar.baz"},
		{"after_paren", "(bar.baz.", 9, "bar.baz"},
		{"no_chain", "a + ", 4, ""},
		{"deep_chain", "a.b.c.", 6, "a.b.c"},
		{"after_equals", "x = a.b.", 8, "a.b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parentPath(tt.input, tt.wordStart)
			if got != tt.want {
				t.Errorf("parentPath(%q, %d) = %q, want %q",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func TestFilterPosition(t *testing.T) {
	tests := []struct {
		input     string
		wordStart int
		want      bool
	}{
		{"a | js", 4, true},
		{"a |js", 3, true},
		{"a || b", 5, false},
		{"a + b", 4, false},
		{"js", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := filterPosition(tt.input, tt.wordStart); got != tt.want {
				t.Errorf("filterPosition(%q, %d) = %v, want %v",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func TestChildCandidates(t *testing.T) {
	sess := newTestSession(t)

	tests := []struct {
		name     string
		input    string
		want     []string
		callable string
	}{
		{"top_level", "", []string{"server", "items", "double", "host"}, "double"},
		{"nested", "server.", []string{"debug", "http"}, ""},
		{"deep", "server.http.", []string{"host", "port"}, ""},
		{"array", "items.", []string{"0", "1", "length"}, ""},
		{"host_functions", "host.path.", []string{"abs", "cat", "rel"}, "cat"},
		{"filters", "items | ", []string{"filter", "json", "now", "pathprefix", "where"}, ""},
		{"unknown", "missing.", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names, callable, _ := childCandidates(sess, tt.input, len(tt.input))

			for _, w := range tt.want {
				if !slices.Contains(names, w) {
					t.Errorf("candidates %v missing %q", names, w)
				}
			}

			if tt.want == nil && len(names) != 0 {
				t.Errorf("candidates = %v, want none", names)
			}

			if tt.callable != "" && !callable[tt.callable] {
				t.Errorf("%q should be reported as callable", tt.callable)
			}
		})
	}
}

func TestComputeMatches(t *testing.T) {
	m := newModel(t.Context(), newTestSession(t), NewHistory(""), log.Logger{})

	type want struct {
		first string
		count int
	}

	tests := []struct {
		name  string
		mode  inputMode
		input string
		want  want
	}{
		{"fuzzy", modeEval, "serv", want{"server", 1}},
		{"empty_top_level", modeEval, "", want{"", 0}},
		{"after_dot_lists_all", modeEval, "server.http.", want{"host", 2}},
		{"command", modeCtrl, "unw", want{"unwatch", 1}},
		{"command_argument", modeCtrl, "watch serv", want{"server", 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.mode = tt.mode
			m.input = textinput.New()
			m.input.SetValue(tt.input)
			m.input.SetCursor(len(tt.input))

			matches := m.complete().matches
			if len(matches) != tt.want.count {
				t.Fatalf("got %d matches %v, want %d", len(matches), matches, tt.want.count)
			}

			if tt.want.count > 0 && matches[0].Str != tt.want.first {
				t.Errorf("first match = %q, want %q", matches[0].Str, tt.want.first)
			}
		})
	}
}
