package log

import (
	"fmt"
	"iter"
	"log/slog"
	"strings"
)

// Level is the severity of a record. It extends [slog.Level] with
// [LevelTrace] for per-round and per-lookup detail.
type Level slog.Level

const (
	LevelTrace = Level(slog.LevelDebug - 4)
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// DefaultLevel is the level of a logger made without [WithLevel].
const DefaultLevel = LevelInfo

var levelNames = []struct {
	level Level
	name  string
}{
	{LevelTrace, "trace"},
	{LevelDebug, "debug"},
	{LevelInfo, "info"},
	{LevelWarn, "warn"},
	{LevelError, "error"},
}

// Levels yields the level names in increasing severity.
func Levels() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, n := range levelNames {
			if !yield(n.name) {
				return
			}
		}
	}
}

func (l Level) String() string {
	for _, n := range levelNames {
		if n.level == l {
			return n.name
		}
	}

	return fmt.Sprintf("Level(%d)", int(l))
}

// label is the upper-case form written to log output. Levels between the
// named ones use slog's offset notation, e.g. "INFO+2".
func (l Level) label() string {
	if l == LevelTrace {
		return "TRACE"
	}

	return slog.Level(l).String()
}

// MarshalText implements [encoding.TextMarshaler].
func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText implements [encoding.TextUnmarshaler]. It accepts the names
// yielded by [Levels] in any case, and anything [slog.Level] accepts.
func (l *Level) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))

	if strings.EqualFold(s, "trace") {
		*l = LevelTrace

		return nil
	}

	var sl slog.Level
	if err := sl.UnmarshalText([]byte(s)); err != nil {
		return fmt.Errorf("log level %q: %w", s, err)
	}

	*l = Level(sl)

	return nil
}

// ParseLevel returns the level named by s, or [DefaultLevel] if s names
// none.
func ParseLevel(s string) Level {
	var l Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return DefaultLevel
	}

	return l
}

// Format selects the record encoding.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// DefaultFormat is the format of a logger made without [WithFormat].
const DefaultFormat = FormatJSON

var formatNames = [...]string{
	FormatText: "text",
	FormatJSON: "json",
}

// Formats yields the format names, default first.
func Formats() iter.Seq[string] {
	return func(yield func(string) bool) {
		if !yield(DefaultFormat.String()) {
			return
		}

		for f, name := range formatNames {
			if Format(f) != DefaultFormat && !yield(name) {
				return
			}
		}
	}
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Format(%d)", int(f))
	}

	return formatNames[f]
}

// ParseFormat returns the format named by s, or [DefaultFormat] if s names
// none.
func ParseFormat(s string) Format {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range formatNames {
		if name == s {
			return Format(f)
		}
	}

	return DefaultFormat
}
