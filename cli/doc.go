// Package cli contains the command line interface for digest.
//
// # Usage
//
//	digest [flags] <command>
//
//	  init   write config.yaml from the current flag values
//	  eval   compile and evaluate expressions against a root scope (default)
//	  ast    print the annotated syntax tree and watch delegate of an expression
//	  run    run a watch script, printing every listener firing
//	  repl   interactive scope console
//
// In the repl, expressions are $apply'd to the root scope. Lines starting
// with ':' are commands, such as ":watch EXPR", ":keys", ":digest", ":help"
// and ":quit".
//
// The --scope (-s) flag names YAML or JSON documents whose top-level keys
// seed the root scope, next to the "host" namespace describing
// the machine. It may be repeated; later documents override earlier
// ones. Use '-' to read a document from stdin.
//
// # Configuration Loader
//
// Flag defaults are read from config.yaml (or config.json) in the user
// configuration directory. The YAML loader ([resolve]) accepts flat keys
// ("log-level: debug"), underscore keys ("log_level: debug"), or nested
// mappings ("log: {level: debug}"). Keys may also be grouped under a
// top-level "config" mapping.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// Digest rounds are logged at trace level; errors raised by watchers,
// listeners and other callbacks are logged at error level.
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o digest .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: ~/.cache/digest/pprof)
//   - --pprof-addr: Serve net/http/pprof on an address such as localhost:6060
//
// # Examples
//
//	# Evaluate against a scope document
//	digest -s scope.yaml 'items | filter:{done: false} | json'
//
//	# Evaluate a script of one expression per line from stdin
//	digest eval -q -f - < setup.txt
//
//	# Inspect how an expression would be watched
//	digest ast '::user.name'
//
//	# Run a watch script with trace logging and CPU profiling
//	digest --log-level=trace --pprof-mode=cpu run script.yaml
package cli
