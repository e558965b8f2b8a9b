package profile

// Tag is the build tag that compiles profiling in.
const Tag = `pprof`

// Session is a running profile. Stop flushes and closes it.
type Session interface{ Stop() }

// Profiler describes what to collect.
type Profiler struct {
	// Mode is one of [Modes]. Unknown modes collect nothing.
	Mode string
	// Dir receives the profile file. Empty means the working directory.
	Dir string
	// Addr, when set, serves net/http/pprof on this address.
	Addr  string
	Quiet bool
}

// Start begins collecting. Stop on the returned Session is always safe to
// call, including when profiling is not compiled in.
func (p Profiler) Start() Session {
	if !Enabled() || (p.Mode == "" && p.Addr == "") {
		return noop{}
	}

	return start(p)
}

// Enabled reports whether the binary was built with [Tag].
func Enabled() bool { return enabled }

type noop struct{}

func (noop) Stop() {}
