// Package log is the structured logging layer shared by the scope runtime,
// the expression compiler and the command-line tool. It wraps [log/slog]
// with a trace level, typed attributes and colorized output.
//
// A [Logger] is a value. Its zero value discards everything, so components
// that accept a Logger in their options need no nil checks:
//
//	root := scope.NewRoot(scope.WithLogger(log.Default().Named("scope")))
//
// Loggers are built with [Make] and functional options, and derived with
// [Logger.Wrap] (new settings), [Logger.With] (extra attributes) and
// [Logger.Named] (a component tag):
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("ms"))
//
// [LevelTrace] sits below [LevelDebug]. The digest loop logs each round and
// the parser logs each cache lookup at trace level; [Logger.Emits] lets hot
// paths skip building attributes when nothing would be written.
//
// Package-level functions such as [Info] and [TraceContext] write to the
// process-wide logger returned by [Default]. The command-line tool adjusts it
// with [Config] while flags are parsed.
package log
