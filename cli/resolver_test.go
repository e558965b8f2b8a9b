package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func resolveFlag(t *testing.T, r kong.Resolver, name string) any {
	t.Helper()

	val, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: name}})
	if err != nil {
		t.Fatalf("Resolve(%q) failed: %v", name, err)
	}

	return val
}

func TestResolve_Namespace(t *testing.T) {
	doc := `
config:
  log_level: debug
  log-format: text
other:
  foo: bar
`

	r, err := resolve(t.Context(), "config")(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if val := resolveFlag(t, r, "log-level"); val != "debug" {
		t.Errorf("log-level = %v, want debug", val)
	}

	if val := resolveFlag(t, r, "log-format"); val != "text" {
		t.Errorf("log-format = %v, want text", val)
	}

	if val := resolveFlag(t, r, "foo"); val != nil {
		t.Errorf("foo = %v, want nil (belongs to another namespace)", val)
	}
}

func TestResolve_FlatDocument(t *testing.T) {
	doc := `
log-pretty: false
pprof-dir: /tmp/profiles
`

	r, err := resolve(t.Context(), "config")(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if val := resolveFlag(t, r, "log-pretty"); val != false {
		t.Errorf("log-pretty = %v, want false", val)
	}

	if val := resolveFlag(t, r, "pprof-dir"); val != "/tmp/profiles" {
		t.Errorf("pprof-dir = %v, want /tmp/profiles", val)
	}
}

func TestResolve_NestedAndNumbers(t *testing.T) {
	doc := `
log:
  level: warn
  caller: true
count: 42
ratio: 0.5
negative: -3
`

	r, err := resolve(t.Context(), "config")(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	tests := []struct {
		name string
		want any
	}{
		{"log-level", "warn"},
		{"log-caller", true},
		{"count", "42"},
		{"ratio", "0.5"},
		{"negative", "-3"},
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if val := resolveFlag(t, r, tt.name); val != tt.want {
				t.Errorf("%s = %#v, want %#v", tt.name, val, tt.want)
			}
		})
	}
}

func TestResolve_InvalidDocument(t *testing.T) {
	for _, doc := range []string{"{ unbalanced: [", "- just\n- a list\n"} {
		r, err := resolve(t.Context(), "config")(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("resolve(%q) failed: %v", doc, err)
		}

		if val := resolveFlag(t, r, "log-level"); val != nil {
			t.Errorf("resolve(%q): log-level = %v, want nil", doc, val)
		}
	}
}

func TestResolve_ReadError(t *testing.T) {
	r, err := resolve(t.Context(), "config")(&errorReader{err: bytes.ErrTooLarge})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if err := r.Validate(nil); err != nil {
		t.Errorf("Validate failed: %v", err)
	}

	if val := resolveFlag(t, r, "log-level"); val != nil {
		t.Errorf("log-level = %v, want nil", val)
	}
}

// errorReader is a reader that always returns an error.
type errorReader struct {
	err error
}

func (e *errorReader) Read([]byte) (int, error) {
	return 0, e.err
}
