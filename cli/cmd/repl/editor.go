package repl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/digest/lang"
	"github.com/ardnew/digest/log"
	"github.com/ardnew/digest/scope"
)

const (
	defaultEditor = "vi"
	editIndent    = 2
)

// editScopeCommand is a [tea.ExecCommand] that opens the root's own data
// as YAML in $EDITOR. Content that fails to decode is offered for another
// edit; declining yields [ErrEditDeclined].
type editScopeCommand struct {
	root    *scope.Scope
	ctxFunc func() context.Context
	logger  log.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	before map[string]any // entries offered for editing
	after  map[string]any // decoded result; nil if the buffer was emptied
}

func (c *editScopeCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *editScopeCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *editScopeCommand) SetStderr(w io.Writer) { c.stderr = w }

// editable returns the root's own entries that survive a YAML round trip,
// leaving out functions and the host namespace.
func editable(root *scope.Scope) map[string]any {
	out := make(map[string]any)

	for _, k := range root.Keys() {
		if k == lang.HostNamespace {
			continue
		}

		if v, ok := root.Own(k); ok && !isFunc(v) {
			out[k] = lang.Plain(v)
		}
	}

	return out
}

func (c *editScopeCommand) Run() error {
	ctx := c.ctxFunc()

	c.before = editable(c.root)

	content, err := yaml.MarshalContext(ctx, c.before, yaml.Indent(editIndent))
	if err != nil {
		return fmt.Errorf("marshal scope: %w", err)
	}

	path, cleanup, err := scratchFile()
	if err != nil {
		return err
	}
	defer cleanup()

	for attempt := 1; ; attempt++ {
		if err := os.WriteFile(path, content, 0o600); err != nil {
			return err
		}

		if err := c.editor(ctx, path); err != nil {
			return err
		}

		if content, err = os.ReadFile(path); err != nil {
			return err
		}

		if len(bytes.TrimSpace(content)) == 0 {
			return nil
		}

		after, err := decodeEdit(ctx, bytes.NewReader(content))

		c.logger.TraceContext(ctx, "edit decoded",
			slog.Int("attempt", attempt),
			slog.Int("keys", len(after)),
			slog.Any("error", err),
		)

		if err == nil {
			c.after = after

			return nil
		}

		if !c.retry(err) {
			return ErrEditDeclined
		}
	}
}

// retry reports the decode error and asks whether to edit again.
func (c *editScopeCommand) retry(err error) bool {
	fmt.Fprintf(c.stderr, "\ndecode error: %v\n", err)
	fmt.Fprint(c.stdout, "edit again? [Y/n] ")

	sc := bufio.NewScanner(c.stdin)
	if !sc.Scan() {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(sc.Text())) {
	case "n", "no":
		return false
	}

	return true
}

func (c *editScopeCommand) editor(ctx context.Context, path string) error {
	name := os.Getenv("EDITOR")
	if name == "" {
		name = defaultEditor
	}

	cmd := exec.CommandContext(ctx, name, path)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = c.stdin, c.stdout, c.stderr

	return cmd.Run()
}

func scratchFile() (path string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "digest-repl-*.yaml")
	if err != nil {
		return "", nil, err
	}

	path = f.Name()
	cleanup = func() { _ = os.Remove(path) }

	if err := errors.Join(f.Chmod(0o600), f.Close()); err != nil {
		cleanup()

		return "", nil, err
	}

	return path, cleanup, nil
}

// decodeEdit parses the edited document as a mapping. An empty document
// is an empty mapping.
func decodeEdit(ctx context.Context, r io.Reader) (map[string]any, error) {
	var doc any

	err := yaml.NewDecoder(r).DecodeContext(ctx, &doc)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	switch m := lang.Normalize(doc).(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return m, nil
	}

	return nil, fmt.Errorf("%w: got %T", ErrNotMapping, doc)
}

// apply writes the edited entries back to the root in one digest, deleting
// those removed in the editor.
func (c *editScopeCommand) apply() error {
	_, err := c.root.Apply(func(s *scope.Scope) {
		for k := range c.before {
			if _, kept := c.after[k]; !kept {
				s.Delete(k)
			}
		}

		s.SetAll(c.after)
	})

	return err
}
