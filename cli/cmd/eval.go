package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/digest/lang"
	"github.com/ardnew/digest/log"
	"github.com/ardnew/digest/scope"
)

// Eval compiles each expression and applies it to a root scope.
//
// Expressions run in order against the same root, so assignments made by one
// are visible to the next, and each is followed by a digest. The lines of
// a --file script run before the expressions given as arguments.
type Eval struct {
	Exprs  []string `arg:""           help:"Expressions to evaluate"                                name:"expr" optional:""`
	File   string   `                 help:"Script of expressions, one per line ('-' for stdin)"               placeholder:"FILE" short:"f"`
	Output string   `default:"native" enum:"native,json,yaml"                                       help:"Result format"         short:"o"`
	Quiet  bool     `                 help:"Print only the result of the last expression"                                       short:"q"`
}

// evaluation applies expressions to one root and prints their results.
type evaluation struct {
	*Eval
	root  *scope.Scope
	loop  *scope.Loop
	out   io.Writer
	index int
	total int
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	root, loop, err := newRoot(ctx)
	if err != nil {
		return err
	}

	ev := &evaluation{Eval: e, root: root, loop: loop, out: outputFrom(ctx), total: len(e.Exprs)}

	if e.File != "" {
		in, closeIn, err := openSource(e.File)
		if err != nil {
			return ErrReadScript.With(slog.String("file", e.File)).Wrap(err)
		}
		defer closeIn()

		err = ev.script(ctx, lang.NewStream(in, root.Parser()))
		if err != nil {
			return err
		}
	}

	for _, src := range e.Exprs {
		err := ev.apply(ctx, src, src)
		if err != nil {
			return err
		}
	}

	if ev.total == 0 {
		return ErrNoExpressions
	}

	return nil
}

// script applies every expression of s.
func (ev *evaluation) script(ctx context.Context, s *lang.Stream) error {
	n, err := s.Len()
	if err != nil {
		return ErrReadScript.With(slog.String("file", ev.File)).Wrap(err)
	}

	ev.total += n

	for expr, err := range s.Expressions(ctx) {
		if err != nil {
			return ErrInvalidScript.With(slog.String("file", ev.File)).Wrap(err)
		}

		err = ev.apply(ctx, expr, expr.Source)
		if err != nil {
			return err
		}
	}

	return nil
}

// apply applies task, drains the loop and prints the result unless quiet
// output suppresses it.
func (ev *evaluation) apply(ctx context.Context, task any, src string) error {
	i := ev.index
	ev.index++

	result, err := ev.root.Apply(task)
	if err != nil {
		return WrapError(err).With(
			slog.String("command", "eval"),
			slog.String("expression", src),
		)
	}

	ev.loop.Drain()

	log.TraceContext(ctx, "evaluated",
		slog.String("expression", src),
		slog.Int("index", i),
	)

	if ev.Quiet && i < ev.total-1 {
		return nil
	}

	return writeValue(ctx, ev.out, result, ev.Output)
}
