package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Environment variables that override [ConfigDir] and [CacheDir].
const (
	EnvConfigDir = "DIGEST_CONFIG_DIR"
	EnvCacheDir  = "DIGEST_CACHE_DIR"
)

// Prefix returns the name of the running executable without extension or
// leading dots. It names the configuration and cache directories, so a
// renamed binary keeps separate settings. Debugger builds report [Name].
//
//nolint:gochecknoglobals
var Prefix = sync.OnceValue(func() string {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}

	return prefixOf(exe)
})

// ConfigDir returns the directory holding the configuration file.
//
//nolint:gochecknoglobals
var ConfigDir = sync.OnceValue(func() string {
	return userDir(EnvConfigDir, os.UserConfigDir, ".config")
})

// CacheDir returns the directory holding REPL history and profiles.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(func() string {
	return userDir(EnvCacheDir, os.UserCacheDir, ".cache")
})

var debugBin = regexp.MustCompile(`^__debug_bin\d*$`)

func prefixOf(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	if debugBin.MatchString(base) {
		return Name
	}

	if base = strings.TrimLeft(base, "."); base == "" {
		return Name
	}

	return base
}

// userDir resolves a per-user directory: the value of env if set, otherwise
// [Prefix] under the platform directory, under fallback in the home
// directory, or under the working directory, in that order.
func userDir(env string, platform func() (string, error), fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}

	if dir, err := platform(); err == nil {
		return filepath.Join(dir, Prefix())
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, fallback, Prefix())
	}

	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, Prefix())
	}

	return Prefix()
}
