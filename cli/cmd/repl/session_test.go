package repl

import (
	"slices"
	"strings"
	"testing"
)

func TestSession_EvalAndWatch(t *testing.T) {
	sess := newTestSession(t)

	id, err := sess.watch("counter", watchReference)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	if err := sess.digest(); err != nil {
		t.Fatalf("digest failed: %v", err)
	}

	if got := sess.flush(); len(got) != 1 || got[0] != "#1 counter: undefined -> undefined" {
		t.Errorf("initial firing = %q", got)
	}

	result, err := sess.eval("counter = 1")
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}

	if result != 1.0 {
		t.Errorf("result = %v, want 1", result)
	}

	if got := sess.flush(); len(got) != 1 || got[0] != "#1 counter: undefined -> 1" {
		t.Errorf("firing after assignment = %q", got)
	}

	if got := sess.flush(); len(got) != 0 {
		t.Errorf("flush should clear pending output, got %q", got)
	}

	if !sess.unwatch(id) {
		t.Fatal("unwatch reported the watch missing")
	}

	if sess.unwatch(id) {
		t.Error("second unwatch should report false")
	}

	if _, err := sess.eval("counter = 2"); err != nil {
		t.Fatalf("eval failed: %v", err)
	}

	if got := sess.flush(); len(got) != 0 {
		t.Errorf("removed watch fired: %q", got)
	}
}

func TestSession_WatchModes(t *testing.T) {
	sess := newTestSession(t)

	if _, err := sess.watch("items", watchCollection); err != nil {
		t.Fatal(err)
	}

	if _, err := sess.watch("server", watchDeep); err != nil {
		t.Fatal(err)
	}

	if _, err := sess.watch("a +", watchReference); err == nil {
		t.Error("watch should reject a syntax error")
	}

	if err := sess.digest(); err != nil {
		t.Fatal(err)
	}

	sess.flush()

	if _, err := sess.eval("items[0] = 5; server.debug = true"); err != nil {
		t.Fatalf("eval failed: %v", err)
	}

	got := sess.flush()
	if len(got) != 2 {
		t.Fatalf("firings = %q, want one per watch", got)
	}

	if !strings.HasPrefix(got[0], "#1 items: [1, 2] -> [5, 2]") {
		t.Errorf("collection firing = %q", got[0])
	}

	if !strings.HasPrefix(got[1], "#2 server: ") {
		t.Errorf("deep firing = %q", got[1])
	}

	want := []string{"#1 items (collection)", "#2 server (deep)"}
	if lines := sess.listWatches(); !slices.Equal(lines, want) {
		t.Errorf("listWatches = %q, want %q", lines, want)
	}
}

func TestSession_Members(t *testing.T) {
	sess := newTestSession(t)

	names, callable := sess.members("")
	if !slices.Contains(names, "server") || !callable["double"] {
		t.Errorf("members() = %v, callable %v", names, callable)
	}

	names, _ = sess.members("host.platform")
	if !slices.Contains(names, "OS") || !slices.Contains(names, "Arch") {
		t.Errorf("struct members = %v, want OS and Arch", names)
	}

	if names, _ := sess.members("nothing.here"); len(names) != 0 {
		t.Errorf("members of undefined = %v", names)
	}
}

func TestParseWatchArgs(t *testing.T) {
	tests := []struct {
		args     string
		wantMode watchMode
		wantExpr string
	}{
		{"a + b", watchReference, "a + b"},
		{"--deep user", watchDeep, "user"},
		{"-c items", watchCollection, "items"},
		{"--collection", watchCollection, ""},
	}

	for _, tt := range tests {
		mode, expr := parseWatchArgs(tt.args)
		if mode != tt.wantMode || expr != tt.wantExpr {
			t.Errorf("parseWatchArgs(%q) = (%s, %q), want (%s, %q)",
				tt.args, mode, expr, tt.wantMode, tt.wantExpr)
		}
	}
}

func TestPreview(t *testing.T) {
	if got := preview(func() {}, 10); got != "function" {
		t.Errorf("preview(func) = %q", got)
	}

	if got := preview(strings.Repeat("x", 20), 10); got != "\"xxxxxx..." {
		t.Errorf("preview(long) = %q", got)
	}

	if got := preview(map[string]any{"a": 1.0}, 40); got != "{a: 1}" {
		t.Errorf("preview(map) = %q", got)
	}
}
