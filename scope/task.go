package scope

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ardnew/digest/lang"
	"github.com/ardnew/digest/log"
)

// WatchFunc computes the watched value of a scope.
type WatchFunc func(s *Scope) (any, error)

// taskFunc is a normalized watch or task.
type taskFunc func(s *Scope, locals lang.Locals) (any, error)

// compileTask normalizes task. The expression is returned when task was
// given as source text or a compiled expression.
//
// Accepted forms are string, *lang.Expression, WatchFunc,
// func(*Scope) (any, error), func(*Scope) any, func(*Scope), func() and
// nil, which evaluates to [lang.Undefined].
func (s *Scope) compileTask(task any) (taskFunc, *lang.Expression, error) {
	switch t := task.(type) {
	case nil:
		return func(*Scope, lang.Locals) (any, error) {
			return lang.Undefined, nil
		}, nil, nil

	case string:
		e, err := s.digest.parser.Parse(log.DefaultContextProvider(), t)
		if err != nil {
			return nil, nil, err
		}

		return expressionTask(e), e, nil

	case *lang.Expression:
		if t == nil {
			break
		}

		return expressionTask(t), t, nil

	case WatchFunc:
		return func(sc *Scope, _ lang.Locals) (any, error) { return t(sc) }, nil, nil

	case func(*Scope) (any, error):
		return func(sc *Scope, _ lang.Locals) (any, error) { return t(sc) }, nil, nil

	case func(*Scope) any:
		return func(sc *Scope, _ lang.Locals) (any, error) { return t(sc), nil }, nil, nil

	case func(*Scope):
		return func(sc *Scope, _ lang.Locals) (any, error) {
			t(sc)

			return lang.Undefined, nil
		}, nil, nil

	case func():
		return func(*Scope, lang.Locals) (any, error) {
			t()

			return lang.Undefined, nil
		}, nil, nil
	}

	return nil, nil, ErrInvalidTask.With(slog.String("type", fmt.Sprintf("%T", task)))
}

func expressionTask(e *lang.Expression) taskFunc {
	return func(sc *Scope, locals lang.Locals) (any, error) {
		return e.Eval(sc, locals)
	}
}

// Eval runs task against s with locals taking precedence over the frame
// chain. Task forms are described on [Scope.Watch].
func (s *Scope) Eval(task any, locals lang.Locals) (any, error) {
	fn, _, err := s.compileTask(task)
	if err != nil {
		return lang.Undefined, err
	}

	return fn(s, locals)
}

// Apply enters the "$apply" phase, evaluates task, then digests from the
// root whatever the outcome. Errors from both are joined.
func (s *Scope) Apply(task any) (result any, err error) {
	dc := s.digest
	if err := dc.beginPhase(PhaseApply); err != nil {
		return lang.Undefined, err
	}

	defer func() {
		dc.clearPhase()

		if derr := s.root.Digest(); derr != nil {
			err = errors.Join(err, derr)
		}
	}()

	return s.Eval(task, nil)
}

// ApplyAsync queues task to run in a single deferred [Scope.Apply] with
// every other task queued before that apply runs. A digest that starts
// first runs the queue itself and cancels the deferred apply.
func (s *Scope) ApplyAsync(task any) error {
	fn, _, err := s.compileTask(task)
	if err != nil {
		return err
	}

	dc := s.digest
	dc.applyAsyncQueue = append(dc.applyAsyncQueue, func() {
		if _, err := fn(s, nil); err != nil {
			s.callbackError("applyAsync", err)
		}
	})

	if dc.applyAsyncCancel == nil {
		root := s.root
		dc.applyAsyncCancel = dc.scheduler.Defer(func() {
			if _, err := root.Apply(func() { root.flushApplyAsync() }); err != nil {
				root.callbackError("applyAsync", err)
			}
		})
	}

	return nil
}

// EvalAsync queues task to run on s at the start of the next digest round.
// When no digest is running, one is scheduled on the root.
func (s *Scope) EvalAsync(task any) error {
	fn, _, err := s.compileTask(task)
	if err != nil {
		return err
	}

	dc := s.digest
	if dc.phase == PhaseIdle && len(dc.asyncQueue) == 0 {
		root := s.root
		dc.scheduler.Defer(func() {
			if len(dc.asyncQueue) == 0 {
				return
			}

			if err := root.Digest(); err != nil {
				root.callbackError("evalAsync", err)
			}
		})
	}

	dc.asyncQueue = append(dc.asyncQueue, asyncTask{scope: s, run: fn})

	return nil
}

// PostDigest queues fn to run once after the next digest completes.
func (s *Scope) PostDigest(fn func()) {
	s.digest.postDigestQueue = append(s.digest.postDigestQueue, fn)
}

type asyncTask struct {
	scope *Scope
	run   taskFunc
}

func (s *Scope) flushApplyAsync() {
	dc := s.digest

	for len(dc.applyAsyncQueue) > 0 {
		fn := dc.applyAsyncQueue[0]
		dc.applyAsyncQueue = dc.applyAsyncQueue[1:]

		s.guard("applyAsync", fn)
	}

	dc.applyAsyncCancel = nil
}
