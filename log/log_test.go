package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// plain returns a logger writing undecorated JSON records to buf.
func plain(buf *bytes.Buffer, opts ...Option) Logger {
	return Make(buf, append([]Option{WithPretty(false)}, opts...)...)
}

func decode(t *testing.T, line string) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid JSON record %q: %v", line, err)
	}

	return m
}

func TestMake_Defaults(t *testing.T) {
	l := Make(nil)

	if l.Level() != DefaultLevel {
		t.Errorf("Level() = %v, want %v", l.Level(), DefaultLevel)
	}

	if l.Format() != DefaultFormat {
		t.Errorf("Format() = %v, want %v", l.Format(), DefaultFormat)
	}

	if l.caller != DefaultCaller || l.pretty != DefaultPretty {
		t.Errorf("caller = %v, pretty = %v", l.caller, l.pretty)
	}

	l.Info("discarded")
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level Level
		log   func(Logger)
		want  bool
	}{
		{LevelInfo, func(l Logger) { l.Trace("m") }, false},
		{LevelInfo, func(l Logger) { l.Debug("m") }, false},
		{LevelInfo, func(l Logger) { l.Info("m") }, true},
		{LevelTrace, func(l Logger) { l.TraceContext(t.Context(), "m") }, true},
		{LevelDebug, func(l Logger) { l.DebugContext(t.Context(), "m") }, true},
		{LevelError, func(l Logger) { l.WarnContext(t.Context(), "m") }, false},
		{LevelError, func(l Logger) { l.ErrorContext(t.Context(), "m") }, true},
		{LevelWarn, func(l Logger) { l.Warn("m") }, true},
		{LevelWarn, func(l Logger) { l.Error("m") }, true},
		{LevelWarn, func(l Logger) { l.InfoContext(t.Context(), "m") }, false},
	}

	for _, tt := range tests {
		var buf bytes.Buffer

		tt.log(plain(&buf, WithLevel(tt.level)))

		if got := buf.Len() > 0; got != tt.want {
			t.Errorf("at level %v: wrote %v, want %v (%q)", tt.level, got, tt.want, buf.String())
		}
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer

	plain(&buf, WithLevel(LevelTrace)).Trace("digest round",
		slog.Int("round", 2), slog.Bool("dirty", true))

	m := decode(t, buf.String())

	if m["level"] != "TRACE" || m["msg"] != "digest round" {
		t.Errorf("record = %v", m)
	}

	if m["round"] != 2.0 || m["dirty"] != true {
		t.Errorf("attributes = %v", m)
	}
}

func TestLogger_Text(t *testing.T) {
	var buf bytes.Buffer

	plain(&buf, WithFormat(FormatText), WithTimeLayout("none")).
		Warn("slow digest", slog.Int("rounds", 9))

	want := "level=WARN msg=\"slow digest\" rounds=9\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestLogger_TimeLayout(t *testing.T) {
	tests := []struct {
		layout string
		check  func(string) bool
	}{
		{"RFC3339", func(s string) bool { _, err := time.Parse(time.RFC3339, s); return err == nil }},
		{"rfc-3339-nano", func(s string) bool { _, err := time.Parse(time.RFC3339Nano, s); return err == nil }},
		{"ms", func(s string) bool { _, err := time.Parse(time.StampMilli, s); return err == nil }},
		{"2006", func(s string) bool { return len(s) == 4 }},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			var buf bytes.Buffer

			plain(&buf, WithTimeLayout(tt.layout)).Info("m")

			stamp, ok := decode(t, buf.String())["time"].(string)
			if !ok || !tt.check(stamp) {
				t.Errorf("time = %q, does not match layout %q", stamp, tt.layout)
			}
		})
	}

	for _, layout := range []string{"", "none", " "} {
		var buf bytes.Buffer

		plain(&buf, WithTimeLayout(layout)).Info("m")

		if _, ok := decode(t, buf.String())["time"]; ok {
			t.Errorf("layout %q should omit time: %s", layout, buf.String())
		}
	}
}

func TestLogger_Caller(t *testing.T) {
	var buf bytes.Buffer

	plain(&buf, WithCaller(true)).Info("m")

	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("source should name the calling file: %s", buf.String())
	}

	buf.Reset()
	plain(&buf).Info("m")

	if strings.Contains(buf.String(), "source") {
		t.Errorf("source should be omitted by default: %s", buf.String())
	}
}

func TestLogger_NamedAndWith(t *testing.T) {
	var buf bytes.Buffer

	base := plain(&buf)
	l := base.Named("scope").With(slog.String("id", "root"))

	l.Info("m", slog.Int("n", 1))

	m := decode(t, buf.String())
	if m[ComponentKey] != "scope" || m["id"] != "root" || m["n"] != 1.0 {
		t.Errorf("record = %v", m)
	}

	buf.Reset()
	base.Info("m")

	if _, ok := decode(t, buf.String())[ComponentKey]; ok {
		t.Error("Named should not modify the receiver")
	}

	if got := base.With(); got.Logger != base.Logger {
		t.Error("With() without attributes should return the receiver")
	}
}

func TestLogger_Wrap(t *testing.T) {
	var buf bytes.Buffer

	base := plain(&buf)
	traced := base.Wrap(WithLevel(LevelTrace), WithFormat(FormatText))

	if base.Level() != LevelInfo || base.Format() != FormatJSON {
		t.Errorf("Wrap modified the receiver: %v %v", base.Level(), base.Format())
	}

	if traced.Level() != LevelTrace || traced.Format() != FormatText {
		t.Errorf("wrapped = %v %v", traced.Level(), traced.Format())
	}

	traced.Trace("visible")

	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("wrapped logger should share the output: %q", buf.String())
	}

	var zero Logger

	if w := zero.Wrap(WithLevel(LevelDebug)); w.Level() != LevelDebug {
		t.Errorf("zero.Wrap level = %v", w.Level())
	}
}

func TestLogger_Zero(t *testing.T) {
	var l Logger

	l.Trace("m")
	l.InfoContext(t.Context(), "m")
	l.Error("m", slog.String("k", "v"))

	if l.Emits(t.Context(), LevelError) {
		t.Error("zero logger should emit nothing")
	}

	if l.Named("x").Logger != nil {
		t.Error("Named on a zero logger should stay zero")
	}

	if l.Level() != DefaultLevel || l.Format() != DefaultFormat {
		t.Errorf("zero logger reports %v %v", l.Level(), l.Format())
	}
}

func TestLogger_Emits(t *testing.T) {
	l := Make(nil, WithLevel(LevelDebug))

	if l.Emits(t.Context(), LevelTrace) {
		t.Error("trace should not be emitted at debug level")
	}

	if !l.Emits(t.Context(), LevelDebug) || !l.Emits(t.Context(), LevelError) {
		t.Error("debug and error should be emitted at debug level")
	}
}

func TestLogger_Concurrent(t *testing.T) {
	var (
		buf bytes.Buffer
		wg  sync.WaitGroup
	)

	l := Make(&buf, WithFormat(FormatText))

	const n = 50

	for i := range n {
		wg.Go(func() {
			l.Named("worker").Info("tick", slog.Int("i", i))
		})
	}

	wg.Wait()

	if got := strings.Count(buf.String(), "\n"); got != n {
		t.Errorf("wrote %d records, want %d", got, n)
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	l := Make(nil, WithPretty(false))

	for b.Loop() {
		l.Info("digest round", slog.Int("round", 1), slog.Bool("dirty", false))
	}
}

func BenchmarkLogger_TraceDisabled(b *testing.B) {
	l := Make(nil)

	for b.Loop() {
		l.Trace("cache lookup", slog.String("source", "a + b"))
	}
}
