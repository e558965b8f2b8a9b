package log

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// DefaultTimeLayout is the timestamp layout of a logger made without
// [WithTimeLayout].
const DefaultTimeLayout = time.RFC3339

// DefaultCaller reports whether records carry their source position by
// default.
const DefaultCaller = false

// DefaultPretty reports whether output is colorized by default.
const DefaultPretty = true

// settings is the configuration a [Logger] was built from. It is copied,
// never shared, so reconfiguring one logger cannot affect another.
type settings struct {
	output io.Writer
	stamp  func(time.Time) string
	level  Level
	format Format
	caller bool
	pretty bool
}

// Option configures a [Logger].
type Option func(*settings)

func defaults(w io.Writer) settings {
	if w == nil {
		w = io.Discard
	}

	return settings{
		output: w,
		stamp:  stamper(DefaultTimeLayout),
		level:  DefaultLevel,
		format: DefaultFormat,
		caller: DefaultCaller,
		pretty: DefaultPretty,
	}
}

func (s settings) with(opts ...Option) settings {
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}

	return s
}

func (s settings) handler() slog.Handler {
	opts := &slog.HandlerOptions{
		AddSource:   s.caller,
		Level:       slog.Level(s.level),
		ReplaceAttr: s.replace,
	}

	switch {
	case s.pretty:
		return newPrettyHandler(s.output, opts, s.format == FormatJSON, s.stamp)
	case s.format == FormatText:
		return slog.NewTextHandler(s.output, opts)
	default:
		return slog.NewJSONHandler(s.output, opts)
	}
}

// replace rewrites the built-in time and level attributes of the plain
// handlers.
func (s settings) replace(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}

	switch a.Key {
	case slog.TimeKey:
		t, ok := a.Value.Any().(time.Time)
		if !ok {
			return a
		}

		stamp := s.stamp(t)
		if stamp == "" {
			return slog.Attr{}
		}

		return slog.String(a.Key, stamp)

	case slog.LevelKey:
		if l, ok := a.Value.Any().(slog.Level); ok {
			return slog.String(a.Key, Level(l).label())
		}
	}

	return a
}

// WithOutput sets the destination of records. A nil writer discards them.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w == nil {
			w = io.Discard
		}

		s.output = w
	}
}

// WithLevel sets the minimum level that is written.
func WithLevel(level Level) Option {
	return func(s *settings) { s.level = level }
}

// WithFormat sets the record encoding.
func WithFormat(format Format) Option {
	return func(s *settings) { s.format = format }
}

// WithTimeLayout sets the timestamp layout. The layout is either a name from
// the [time] package matched loosely ("rfc3339", "RFC-3339-nano", "kitchen",
// "ms") or a literal layout string. An empty layout or "none" omits
// timestamps.
func WithTimeLayout(layout string) Option {
	stamp := stamper(layout)

	return func(s *settings) { s.stamp = stamp }
}

// WithCaller includes the source position of the logging call.
func WithCaller(enable bool) Option {
	return func(s *settings) { s.caller = enable }
}

// WithPretty enables colorized output. Text records keep their key=value
// layout without quoting; JSON records are written one field per line.
func WithPretty(enable bool) Option {
	return func(s *settings) { s.pretty = enable }
}

var namedLayouts = func() map[string]string {
	m := map[string]string{"none": ""}

	for layout, names := range map[string][]string{
		time.RFC3339:     {"rfc3339"},
		time.RFC3339Nano: {"rfc3339nano"},
		time.ANSIC:       {"ansic"},
		time.UnixDate:    {"unixdate"},
		time.RubyDate:    {"rubydate"},
		time.RFC822:      {"rfc822"},
		time.RFC822Z:     {"rfc822z"},
		time.RFC850:      {"rfc850"},
		time.Kitchen:     {"kitchen"},
		time.DateTime:    {"datetime"},
		time.TimeOnly:    {"timeonly", "clock"},
		time.Stamp:       {"stamp"},
		time.StampMilli:  {"stampmilli", "milli", "millis", "ms"},
		time.StampMicro:  {"stampmicro", "micro", "micros", "us"},
		time.StampNano:   {"stampnano", "nano", "nanos", "ns"},
	} {
		for _, name := range names {
			m[name] = layout
		}
	}

	return m
}()

func stamper(layout string) func(time.Time) string {
	key := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}

		return -1
	}, strings.ToLower(layout))

	if named, ok := namedLayouts[key]; ok {
		layout = named
	} else if key == "" {
		layout = ""
	}

	if layout == "" {
		return func(time.Time) string { return "" }
	}

	return func(t time.Time) string { return t.Format(layout) }
}
