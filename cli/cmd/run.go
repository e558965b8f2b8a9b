package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/ardnew/digest/lang"
	"github.com/ardnew/digest/log"
	"github.com/ardnew/digest/metrics"
	"github.com/ardnew/digest/scope"
)

// Run executes a watch script.
//
// A script is a YAML document:
//
//	scope: {a: 1}          # merged into the root after the --scope documents
//	watch:
//	  - expr: a + b        # reference watch
//	  - expr: items
//	    collection: true   # shallow collection watch
//	  - expr: user
//	    deep: true         # value equality
//	  - group: [a, b]      # one listener for several expressions
//	on: [ping]             # events whose firings are printed
//	steps:
//	  - b = 2              # $apply an expression
//	  - set: {user.name: ada}  # $apply assignments of literal values
//	  - async: c = 3       # queue with $evalAsync and let the scheduler digest
//	  - emit: ping         # $emit inside $apply
//	    args: [1]
//	  - broadcast: ping
//	  - digest: true       # digest without applying anything
//
// The watches are registered, the root is digested once, and then each
// step runs in order. Every listener firing prints "<expr>: <old> -> <new>".
type Run struct {
	Script  string `arg:"" default:"-" help:"Watch script (YAML), or '-' for stdin" name:"script"`
	Metrics bool   `help:"Print digest metrics in Prometheus text format after the run"`
}

type script struct {
	Scope map[string]any `yaml:"scope"`
	Watch []watchSpec    `yaml:"watch"`
	On    []string       `yaml:"on"`
	Steps []step         `yaml:"steps"`
}

type watchSpec struct {
	Expr       string   `yaml:"expr"`
	Group      []string `yaml:"group"`
	Deep       bool     `yaml:"deep"`
	Collection bool     `yaml:"collection"`
}

// label names the watch in printed firings.
func (w watchSpec) label() string {
	if len(w.Group) > 0 {
		return "[" + strings.Join(w.Group, ", ") + "]"
	}

	return w.Expr
}

type step struct {
	Set       map[string]any `yaml:"set"`
	Apply     string         `yaml:"apply"`
	Async     string         `yaml:"async"`
	Emit      string         `yaml:"emit"`
	Broadcast string         `yaml:"broadcast"`
	Args      []any          `yaml:"args"`
	Digest    bool           `yaml:"digest"`
}

// UnmarshalYAML accepts either a bare scalar, which is applied as an
// expression, or a mapping of step fields.
func (s *step) UnmarshalYAML(data []byte) error {
	var v any

	err := yaml.Unmarshal(data, &v)
	if err != nil {
		return err
	}

	switch t := v.(type) {
	case map[string]any:
		type fields step

		var f fields

		err := yaml.Unmarshal(data, &f)
		if err != nil {
			return err
		}

		*s = step(f)

	case []any, nil:
		return ErrInvalidScript.With(slog.String("step", strings.TrimSpace(string(data))))

	default:
		*s = step{Apply: lang.ToString(lang.Normalize(t))}
	}

	return nil
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	sc, err := r.load(ctx)
	if err != nil {
		return err
	}

	var (
		opts     []scope.Option
		recorder *metrics.Recorder
	)

	if r.Metrics {
		recorder = metrics.New()
		opts = append(opts, scope.WithRecorder(recorder))
	}

	root, loop, err := newRoot(ctx, opts...)
	if err != nil {
		return err
	}

	root.SetAll(sc.Scope)

	out := outputFrom(ctx)

	for i, w := range sc.Watch {
		err := watch(root, w, out)
		if err != nil {
			return ErrWatch.With(slog.Int("watch", i), slog.String("expr", w.label())).Wrap(err)
		}
	}

	for _, name := range sc.On {
		root.On(name, func(e *scope.Event, args ...any) {
			fmt.Fprintf(out, "event %s: %s\n", e.Name, lang.FormatValue(args))
		})
	}

	err = root.Digest()
	if err != nil {
		return err
	}

	for i, st := range sc.Steps {
		err := runStep(ctx, root, loop, st)
		if err != nil {
			return WrapError(err).With(slog.String("command", "run"), slog.Int("step", i))
		}

		log.TraceContext(ctx, "step complete", slog.Int("step", i))
	}

	if recorder != nil {
		return recorder.WriteText(out)
	}

	return nil
}

// load reads and validates the script.
func (r *Run) load(ctx context.Context) (*script, error) {
	in, closeIn, err := openSource(r.Script)
	if err != nil {
		return nil, ErrReadScript.With(slog.String("file", r.Script)).Wrap(err)
	}
	defer closeIn()

	ra := readahead.NewReader(in)
	defer ra.Close()

	var sc script

	err = yaml.NewDecoder(ra).DecodeContext(ctx, &sc)
	if err != nil {
		return nil, ErrReadScript.With(slog.String("file", r.Script)).Wrap(err)
	}

	for i, w := range sc.Watch {
		if (w.Expr == "") == (len(w.Group) == 0) {
			return nil, ErrInvalidScript.With(
				slog.Int("watch", i),
				slog.String("reason", "exactly one of expr or group is required"),
			)
		}
	}

	for i, st := range sc.Steps {
		if len(st.Set) == 0 && st.Apply == "" && st.Async == "" &&
			st.Emit == "" && st.Broadcast == "" && !st.Digest {
			return nil, ErrInvalidScript.With(
				slog.Int("step", i),
				slog.String("reason", "empty step"),
			)
		}
	}

	if m, ok := lang.Normalize(sc.Scope).(map[string]any); ok {
		sc.Scope = m
	}

	return &sc, nil
}

// watch registers w on root with a listener that prints every firing to out.
func watch(root *scope.Scope, w watchSpec, out io.Writer) error {
	label := w.label()
	report := func(newValue, oldValue any, _ *scope.Scope) {
		fmt.Fprintf(out, "%s: %s -> %s\n",
			label, lang.FormatValue(oldValue), lang.FormatValue(newValue))
	}

	var err error

	switch {
	case len(w.Group) > 0:
		exprs := make([]any, len(w.Group))
		for i, e := range w.Group {
			exprs[i] = e
		}

		_, err = root.WatchGroup(exprs, func(newValues, oldValues []any, s *scope.Scope) {
			report(newValues, oldValues, s)
		})

	case w.Collection:
		_, err = root.WatchCollection(w.Expr, report)

	default:
		_, err = root.Watch(w.Expr, report, w.Deep)
	}

	return err
}

// runStep performs one script step and drains any work it scheduled.
func runStep(ctx context.Context, root *scope.Scope, loop *scope.Loop, st step) (err error) {
	defer loop.Drain()

	switch {
	case len(st.Set) > 0:
		var expr *lang.Expression

		expr, err = assignments(ctx, root.Parser(), st.Set)
		if err == nil {
			_, err = root.Apply(expr)
		}

	case st.Apply != "":
		_, err = root.Apply(st.Apply)

	case st.Async != "":
		err = root.EvalAsync(st.Async)

	case st.Emit != "":
		args := normalizeArgs(st.Args)
		_, err = root.Apply(func(s *scope.Scope) { s.Emit(st.Emit, args...) })

	case st.Broadcast != "":
		args := normalizeArgs(st.Args)
		_, err = root.Apply(func(s *scope.Scope) { s.Broadcast(st.Broadcast, args...) })

	case st.Digest:
		err = root.Digest()
	}

	return err
}

// assignments compiles one statement per entry of values, in key order,
// assigning the literal value to the dotted path named by the key.
func assignments(ctx context.Context, p *lang.Parser, values map[string]any) (*lang.Expression, error) {
	b := lang.NewBuilder()
	body := make([]lang.Node, 0, len(values))

	for _, path := range slices.Sorted(maps.Keys(values)) {
		v, err := b.Value(values[path])
		if err != nil {
			return nil, WrapError(err).With(slog.String("path", path))
		}

		body = append(body, b.Assign(b.Path(path), v))
	}

	return p.Compile(ctx, b.Program(body...))
}

func normalizeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = lang.Normalize(a)
	}

	return out
}
