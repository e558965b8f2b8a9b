// Package profile collects runtime profiles of the digest command with
// [github.com/pkg/profile].
//
// Profiling is compiled in only with the "pprof" build tag ([Tag]). Without
// it, [Profiler.Start] returns a no-op [Session] and [Modes] is empty:
//
//	go build -tags pprof -o digest .
//	./digest --pprof-mode cpu run watches.yaml
//	go tool pprof -http=: ./digest ~/.cache/digest/pprof/cpu.pprof
//
// A [Profiler] with an Addr also serves the [net/http/pprof] endpoints for
// the life of the session, which is useful for watching a long REPL session:
//
//	./digest --pprof-addr localhost:6060 repl
//	go tool pprof http://localhost:6060/debug/pprof/heap
package profile
