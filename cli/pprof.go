//go:build pprof

package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/digest/log"
	"github.com/ardnew/digest/pkg"
	"github.com/ardnew/digest/profile"
)

type pprofConfig struct {
	Mode string `default:""            enum:",${pprofModeEnum}" help:"Collect a profile of this kind."                    placeholder:"${enum}" short:"p"`
	Dir  string `default:"${pprofDir}"                          help:"Profile output directory."                                                   type:"path"`
	Addr string `default:""                                     help:"Serve net/http/pprof on this address (e.g. localhost:6060)."`
}

func (pprofConfig) vars() kong.Vars {
	return kong.Vars{
		"pprofModeEnum": strings.Join(profile.Modes(), ","),
		"pprofDir":      filepath.Join(pkg.CacheDir(), profile.Tag),
	}
}

func (pprofConfig) group() kong.Group {
	return kong.Group{Key: "pprof", Title: "Profiling (pprof)"}
}

// start begins the configured profile and returns the function that ends
// it.
func (f pprofConfig) start(ctx context.Context) (stop func()) {
	p := profile.Profiler{Mode: f.Mode, Dir: f.Dir, Addr: f.Addr, Quiet: true}
	if p.Mode == "" && p.Addr == "" {
		return func() {}
	}

	logger := log.Named(profile.Tag)
	attrs := []slog.Attr{
		slog.String("mode", f.Mode),
		slog.String("dir", f.Dir),
		slog.String("addr", f.Addr),
	}

	logger.DebugContext(ctx, "profile start", attrs...)

	session := p.Start()

	return func() {
		session.Stop()
		logger.DebugContext(ctx, "profile stop", attrs...)
	}
}
