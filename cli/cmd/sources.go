package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/klauspost/readahead"
)

// stdinSource names standard input on the command line.
const stdinSource = "-"

// ScopeFiles is the ordered set of scope documents given on the command
// line.
type ScopeFiles interface {
	IsZero() bool
	Each(fn func(name string, r io.Reader) error) error
}

type scopeFilesKey struct{}

type scopeFiles struct {
	paths []string
	stdin io.Reader
}

// WithScopeFiles returns ctx carrying the scope documents named by sources.
//
// Each file is read once however it is named; symlinks and relative paths
// resolve to the first occurrence. Missing files and directories are
// skipped. Standard input, named "-", is read last so it overrides the
// files before it.
func WithScopeFiles(ctx context.Context, sources []string) context.Context {
	return context.WithValue(ctx, scopeFilesKey{}, buildScopeFiles(sources))
}

func scopeFilesFrom(ctx context.Context) ScopeFiles {
	files, _ := ctx.Value(scopeFilesKey{}).(ScopeFiles)

	return files
}

func buildScopeFiles(sources []string) ScopeFiles {
	var (
		files    scopeFiles
		seen     []os.FileInfo
		useStdin bool
	)

	stdin, _ := os.Stdin.Stat()

	for _, src := range sources {
		if src == stdinSource {
			useStdin = true

			continue
		}

		path, info, ok := resolveFile(src)
		if !ok || slices.ContainsFunc(seen, func(fi os.FileInfo) bool { return os.SameFile(fi, info) }) {
			continue
		}

		seen = append(seen, info)

		if stdin != nil && os.SameFile(stdin, info) {
			useStdin = true

			continue
		}

		files.paths = append(files.paths, path)
	}

	if useStdin {
		files.stdin = os.Stdin
	}

	if files.IsZero() {
		return nil
	}

	return &files
}

// resolveFile returns the real path of a readable regular file.
func resolveFile(name string) (string, os.FileInfo, bool) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", nil, false
	}

	path, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", nil, false
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", nil, false
	}

	return path, info, true
}

func (s *scopeFiles) IsZero() bool { return len(s.paths) == 0 && s.stdin == nil }

// Each calls fn with every document in order, stopping at the first error.
func (s *scopeFiles) Each(fn func(name string, r io.Reader) error) error {
	for _, path := range s.paths {
		if err := visitFile(path, fn); err != nil {
			return err
		}
	}

	if s.stdin == nil {
		return nil
	}

	return fn(stdinSource, s.stdin)
}

func visitFile(path string, fn func(name string, r io.Reader) error) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	ra := readahead.NewReader(f)
	defer func() { err = errors.Join(err, ra.Close(), f.Close()) }()

	return fn(path, ra)
}

// openSource opens the named file, or standard input for "-". The returned
// function closes whatever was opened.
func openSource(name string) (io.Reader, func() error, error) {
	if name == stdinSource {
		return os.Stdin, func() error { return nil }, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}

	return f, f.Close, nil
}
