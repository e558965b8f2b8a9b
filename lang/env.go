package lang

import (
	"bufio"
	"io/fs"
	"maps"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// HostNamespace is the name a root scope binds [Host] to.
const HostNamespace = "host"

// Host returns a namespace of host facts and functions for seeding a root
// scope, for example:
//
//	host.platform.OS == 'linux' && host.file.isDir(host.path.cat(host.cwd(), 'bin'))
//
// The facts are gathered once per process. Each call returns a fresh
// top-level map, so callers may rebind its entries, and reads the process
// environment anew into host.env.
func Host() map[string]any {
	host := maps.Clone(hostFacts())
	host["env"] = processEnv(nil)

	return host
}

// HostKeys returns the top-level names of [Host] in lexical order.
func HostKeys() []string {
	return sortedKeys(Host())
}

//nolint:gochecknoglobals
var hostFacts = sync.OnceValue(func() map[string]any {
	platform := goPlatform()
	account := currentUser()

	return map[string]any{
		"target":   platform.toolchain(),
		"platform": platform,
		"hostname": orEmpty(os.Hostname()),
		"user":     account,
		"shell":    loginShell(account),
		"cwd":      workingDir,
		"file": map[string]any{
			"exists":    fileExists,
			"isDir":     fileIsDir,
			"isRegular": statIs(os.Stat, func(fi fs.FileInfo) bool { return fi.Mode().IsRegular() }),
			"isSymlink": statIs(os.Lstat, func(fi fs.FileInfo) bool { return fi.Mode()&fs.ModeSymlink != 0 }),
		},
		"path": map[string]any{
			"abs": absPath,
			"cat": filepath.Join,
			"rel": relPath,
		},
	}
})

// target names an operating system and instruction set architecture. The
// naming convention depends on where the value came from.
type target struct {
	OS   string
	Arch string
}

// goPlatform returns the host in Go's GOOS/GOARCH naming. The GOHOST* and
// GO* environment variables take precedence over the running binary.
func goPlatform() target {
	return target{
		OS:   firstEnv(runtime.GOOS, "GOHOSTOS", "GOOS"),
		Arch: firstEnv(runtime.GOARCH, "GOHOSTARCH", "GOARCH"),
	}
}

// toolchain returns t in GNU/LLVM triple naming, e.g. x86_64 for amd64.
func (t target) toolchain() target {
	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "mipsle":
		t.Arch = "mipsel"
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "arm":
		v, _, _ := strings.Cut(os.Getenv("GOARM"), ",")
		if v = strings.TrimSpace(v); v >= "5" && v <= "7" && len(v) == 1 {
			t.Arch = "armv" + v
		}
	}

	return t
}

func firstEnv(fallback string, keys ...string) string {
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			return v
		}
	}

	return fallback
}

func orEmpty(s string, err error) string {
	if err != nil {
		return ""
	}

	return s
}

// currentUser describes the account running the process as plain strings,
// or nil if it cannot be determined.
func currentUser() map[string]any {
	u, err := user.Current()
	if err != nil {
		return nil
	}

	return map[string]any{
		"name":     u.Username,
		"fullName": u.Name,
		"uid":      u.Uid,
		"gid":      u.Gid,
		"home":     u.HomeDir,
	}
}

// loginShell returns $SHELL, or the shell field of account's passwd entry.
func loginShell(account map[string]any) string {
	if shell, ok := os.LookupEnv("SHELL"); ok {
		return shell
	}

	name, _ := account["name"].(string)
	if name == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}

	defer f.Close()

	for s := bufio.NewScanner(f); s.Scan(); {
		if fields := strings.Split(s.Text(), ":"); len(fields) == 7 && fields[0] == name {
			return fields[6]
		}
	}

	return ""
}

func workingDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}

	return absPath(".")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

func fileIsDir(path string) bool {
	fi, err := os.Stat(path)

	return err == nil && fi.IsDir()
}

// statIs returns a predicate that is false for paths stat cannot describe.
func statIs(stat func(string) (fs.FileInfo, error), is func(fs.FileInfo) bool) func(string) bool {
	return func(path string) bool {
		fi, err := stat(path)

		return err == nil && is(fi)
	}
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}

	return path
}

func relPath(from, to string) string {
	if rel, err := filepath.Rel(absPath(from), absPath(to)); err == nil {
		return rel
	}

	return filepath.Join(from, to)
}

// processEnv maps "KEY=VALUE" entries, or os.Environ() when env is empty.
// Entries without '=' are skipped.
func processEnv(env []string) map[string]any {
	if len(env) == 0 {
		env = os.Environ()
	}

	m := make(map[string]any, len(env))

	for _, entry := range env {
		if k, v, ok := strings.Cut(entry, "="); ok {
			m[k] = v
		}
	}

	return m
}
