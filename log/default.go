package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// DefaultContextProvider supplies the context of records logged without
// one.
//
//nolint:gochecknoglobals
var DefaultContextProvider = context.TODO

//nolint:gochecknoglobals
var defaultLogger = func() *atomic.Pointer[Logger] {
	var p atomic.Pointer[Logger]

	l := Make(os.Stderr)
	p.Store(&l)

	return &p
}()

// Default returns the process-wide logger. It writes to standard error
// until reconfigured with [Config] or replaced with [SetDefault].
func Default() Logger { return *defaultLogger.Load() }

// SetDefault replaces the process-wide logger and returns the previous one.
func SetDefault(l Logger) Logger { return *defaultLogger.Swap(&l) }

// Config reconfigures the process-wide logger with opts.
func Config(opts ...Option) {
	for {
		old := defaultLogger.Load()

		l := old.Wrap(opts...)
		if defaultLogger.CompareAndSwap(old, &l) {
			return
		}
	}
}

// With returns the process-wide logger with attrs added to every record.
func With(attrs ...slog.Attr) Logger { return Default().With(attrs...) }

// Named returns the process-wide logger tagged with a component name.
func Named(component string) Logger { return Default().Named(component) }

func TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, callerDepth, LevelTrace, msg, attrs)
}

func Trace(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), callerDepth, LevelTrace, msg, attrs)
}

func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, callerDepth, LevelDebug, msg, attrs)
}

func Debug(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), callerDepth, LevelDebug, msg, attrs)
}

func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, callerDepth, LevelInfo, msg, attrs)
}

func Info(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), callerDepth, LevelInfo, msg, attrs)
}

func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, callerDepth, LevelWarn, msg, attrs)
}

func Warn(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), callerDepth, LevelWarn, msg, attrs)
}

func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, callerDepth, LevelError, msg, attrs)
}

func Error(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), callerDepth, LevelError, msg, attrs)
}
