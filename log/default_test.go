package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// swapDefault points the process-wide logger at buf for the rest of the test.
func swapDefault(t *testing.T, buf *bytes.Buffer, opts ...Option) {
	t.Helper()

	prev := SetDefault(Make(buf, append([]Option{WithPretty(false)}, opts...)...))
	t.Cleanup(func() { SetDefault(prev) })
}

func TestDefault_PackageFunctions(t *testing.T) {
	var buf bytes.Buffer

	swapDefault(t, &buf, WithLevel(LevelTrace))

	tests := []struct {
		name  string
		fn    func()
		level string
	}{
		{"Trace", func() { Trace("m", slog.String("key", "value")) }, "TRACE"},
		{"TraceContext", func() { TraceContext(t.Context(), "m", slog.String("key", "value")) }, "TRACE"},
		{"Debug", func() { Debug("m", slog.String("key", "value")) }, "DEBUG"},
		{"DebugContext", func() { DebugContext(t.Context(), "m", slog.String("key", "value")) }, "DEBUG"},
		{"Info", func() { Info("m", slog.String("key", "value")) }, "INFO"},
		{"InfoContext", func() { InfoContext(t.Context(), "m", slog.String("key", "value")) }, "INFO"},
		{"Warn", func() { Warn("m", slog.String("key", "value")) }, "WARN"},
		{"WarnContext", func() { WarnContext(t.Context(), "m", slog.String("key", "value")) }, "WARN"},
		{"Error", func() { Error("m", slog.String("key", "value")) }, "ERROR"},
		{"ErrorContext", func() { ErrorContext(t.Context(), "m", slog.String("key", "value")) }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn()

			m := decode(t, buf.String())
			if m["level"] != tt.level || m["key"] != "value" {
				t.Errorf("record = %v, want level %s", m, tt.level)
			}
		})
	}
}

func TestDefault_Config(t *testing.T) {
	var buf bytes.Buffer

	swapDefault(t, &buf, WithLevel(LevelDebug))

	Trace("hidden")

	if buf.Len() != 0 {
		t.Fatalf("trace written at debug level: %s", buf.String())
	}

	Config(WithLevel(LevelTrace), WithFormat(FormatText))
	Named("cli").Trace("visible")

	out := buf.String()
	if !strings.Contains(out, "level=TRACE") || !strings.Contains(out, "component=cli") {
		t.Errorf("unexpected output %q", out)
	}

	if Default().Level() != LevelTrace || Default().Format() != FormatText {
		t.Errorf("Default() = %v %v", Default().Level(), Default().Format())
	}
}

func TestDefault_Caller(t *testing.T) {
	var buf bytes.Buffer

	swapDefault(t, &buf, WithCaller(true))

	With(slog.Int("n", 1)).Info("method")
	Info("function")
	WarnContext(t.Context(), "context function")
	Named("test").ErrorContext(t.Context(), "context method")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d records, want 4", len(lines))
	}

	for _, line := range lines {
		if !strings.Contains(line, "default_test.go") || strings.Contains(line, "tRunner") {
			t.Errorf("source should name the calling file: %s", line)
		}
	}
}
