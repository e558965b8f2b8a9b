//go:build pprof

package profile

import (
	"maps"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof on http.DefaultServeMux
	"slices"
	"time"

	"github.com/pkg/profile"
)

const enabled = true

const readHeaderTimeout = 5 * time.Second

var modes = map[string]func(*profile.Profile){
	"allocs":    profile.MemProfileAllocs,
	"block":     profile.BlockProfile,
	"clock":     profile.ClockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"heap":      profile.MemProfileHeap,
	"mem":       profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

// Modes returns the supported profile kinds in sorted order.
func Modes() []string { return slices.Sorted(maps.Keys(modes)) }

// session stops its parts in reverse order of starting.
type session []func()

func (s session) Stop() {
	for _, stop := range slices.Backward(s) {
		stop()
	}
}

func start(p Profiler) Session {
	var s session

	if mode, ok := modes[p.Mode]; ok {
		opts := []func(*profile.Profile){mode, profile.NoShutdownHook}

		if p.Dir != "" {
			opts = append(opts, profile.ProfilePath(p.Dir))
		}

		if p.Quiet {
			opts = append(opts, profile.Quiet)
		}

		s = append(s, profile.Start(opts...).Stop)
	}

	if p.Addr != "" {
		srv := &http.Server{Addr: p.Addr, ReadHeaderTimeout: readHeaderTimeout}

		go func() { _ = srv.ListenAndServe() }()

		s = append(s, func() { _ = srv.Close() })
	}

	return s
}
