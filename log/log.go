package log

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"
)

// ComponentKey is the attribute key added by [Logger.Named].
const ComponentKey = "component"

// Logger is a [slog.Logger] with a trace level and typed attributes. It is
// a value; copies share the underlying handler. The zero Logger discards
// every record.
type Logger struct {
	*slog.Logger
	settings
}

// Make returns a Logger writing to w, configured by opts on top of
// [DefaultLevel], [DefaultFormat], [DefaultTimeLayout], [DefaultCaller] and
// [DefaultPretty].
func Make(w io.Writer, opts ...Option) Logger {
	return build(defaults(w).with(opts...))
}

func build(s settings) Logger {
	return Logger{Logger: slog.New(s.handler()), settings: s}
}

// Wrap returns a Logger with l's settings changed by opts. Attributes added
// with [Logger.With] are not carried over.
func (l Logger) Wrap(opts ...Option) Logger {
	s := l.settings
	if s.output == nil {
		s = defaults(nil)
	}

	return build(s.with(opts...))
}

// With returns a Logger that adds attrs to every record.
func (l Logger) With(attrs ...slog.Attr) Logger {
	if l.Logger == nil || len(attrs) == 0 {
		return l
	}

	return Logger{
		Logger:   slog.New(l.Handler().WithAttrs(attrs)),
		settings: l.settings,
	}
}

// Named returns a Logger that tags every record with the component name.
func (l Logger) Named(component string) Logger {
	return l.With(slog.String(ComponentKey, component))
}

// Level returns the minimum level l writes.
func (l Logger) Level() Level {
	if l.Logger == nil {
		return DefaultLevel
	}

	return l.level
}

// Format returns the encoding l writes.
func (l Logger) Format() Format {
	if l.Logger == nil {
		return DefaultFormat
	}

	return l.format
}

// Emits reports whether a record at level would be written. Callers use it
// to skip building attributes on hot paths.
func (l Logger) Emits(ctx context.Context, level Level) bool {
	if l.Logger == nil {
		return false
	}

	if ctx == nil {
		ctx = DefaultContextProvider()
	}

	return l.Handler().Enabled(ctx, slog.Level(level))
}

func (l Logger) TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, callerDepth, LevelTrace, msg, attrs)
}

func (l Logger) Trace(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), callerDepth, LevelTrace, msg, attrs)
}

func (l Logger) DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, callerDepth, LevelDebug, msg, attrs)
}

func (l Logger) Debug(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), callerDepth, LevelDebug, msg, attrs)
}

func (l Logger) InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, callerDepth, LevelInfo, msg, attrs)
}

func (l Logger) Info(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), callerDepth, LevelInfo, msg, attrs)
}

func (l Logger) WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, callerDepth, LevelWarn, msg, attrs)
}

func (l Logger) Warn(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), callerDepth, LevelWarn, msg, attrs)
}

func (l Logger) ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, callerDepth, LevelError, msg, attrs)
}

func (l Logger) Error(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), callerDepth, LevelError, msg, attrs)
}

// callerDepth is the number of frames between runtime.Callers and the
// caller of a logging method or a package-level logging function, both of
// which call emit directly.
const callerDepth = 3

func (l Logger) emit(
	ctx context.Context,
	depth int,
	level Level,
	msg string,
	attrs []slog.Attr,
) {
	if l.Logger == nil {
		return
	}

	h := l.Handler()
	if !h.Enabled(ctx, slog.Level(level)) {
		return
	}

	var pc uintptr

	if l.caller {
		var pcs [1]uintptr

		runtime.Callers(depth, pcs[:])
		pc = pcs[0]
	}

	r := slog.NewRecord(time.Now(), slog.Level(level), msg, pc)
	r.AddAttrs(attrs...)

	_ = h.Handle(ctx, r)
}
