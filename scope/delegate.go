package scope

import (
	"github.com/ardnew/digest/lang"
)

// Delegate names the strategy a watched expression runs under.
type Delegate string

// Watch strategies, in order of precedence.
const (
	// DelegateConstant runs once and removes itself after the first
	// listener call.
	DelegateConstant Delegate = "constant"
	// DelegateOneTimeLiteral compares structurally and removes itself once
	// every element or value of the literal is defined.
	DelegateOneTimeLiteral Delegate = "oneTimeLiteral"
	// DelegateOneTime removes itself once the value is defined.
	DelegateOneTime Delegate = "oneTime"
	// DelegateInputs re-evaluates the expression only when one of its
	// inputs changed.
	DelegateInputs Delegate = "inputs"
	// DelegateDefault re-evaluates the expression on every round.
	DelegateDefault Delegate = "default"
)

// DelegateOf returns the strategy [Scope.Watch] uses for e.
func DelegateOf(e *lang.Expression) Delegate {
	switch {
	case e.Constant:
		return DelegateConstant
	case e.OneTime && e.Literal:
		return DelegateOneTimeLiteral
	case e.OneTime:
		return DelegateOneTime
	case len(e.Inputs) > 0:
		return DelegateInputs
	default:
		return DelegateDefault
	}
}

func (s *Scope) watchExpression(
	e *lang.Expression,
	listener ListenerFunc,
	valueEq bool,
) func() {
	w := &watcher{
		get:      expressionTask(e),
		listener: listener,
		valueEq:  valueEq,
		label:    e.String(),
	}

	switch DelegateOf(e) {
	case DelegateConstant:
		var unwatch func()

		w.listener = func(newValue, oldValue any, sc *Scope) {
			listener(newValue, oldValue, sc)
			unwatch()
		}

		unwatch = s.addWatcher(w)

		return unwatch

	case DelegateOneTimeLiteral:
		w.valueEq = true

		return s.watchOnce(w, allDefined)

	case DelegateOneTime:
		return s.watchOnce(w, func(v any) bool { return !lang.IsUndefined(v) })

	case DelegateInputs:
		w.get = inputsTask(e)
	}

	return s.addWatcher(w)
}

// watchOnce removes w after a digest in which its value satisfied
// settled, provided that value still does once the digest completes.
func (s *Scope) watchOnce(w *watcher, settled func(any) bool) func() {
	var (
		unwatch  func()
		last     any
		listener = w.listener
	)

	w.listener = func(newValue, oldValue any, sc *Scope) {
		last = newValue
		listener(newValue, oldValue, sc)

		if settled(newValue) {
			sc.PostDigest(func() {
				if settled(last) {
					unwatch()
				}
			})
		}
	}

	unwatch = s.addWatcher(w)

	return unwatch
}

func allDefined(v any) bool {
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			if lang.IsUndefined(e) {
				return false
			}
		}

	case map[string]any:
		for _, e := range t {
			if lang.IsUndefined(e) {
				return false
			}
		}
	}

	return true
}

// inputsTask evaluates e only when the value of one of its inputs is not
// identical to the value seen on the previous call.
func inputsTask(e *lang.Expression) taskFunc {
	var (
		last   any = lang.Undefined
		inputs     = make([]any, len(e.Inputs))
	)

	for i := range inputs {
		inputs[i] = initWatchVal
	}

	return func(sc *Scope, _ lang.Locals) (any, error) {
		changed := false

		for i, in := range e.Inputs {
			v, err := in.Eval(sc, nil)
			if err != nil {
				return lang.Undefined, err
			}

			if changed || !lang.Identical(v, inputs[i]) {
				changed = true
				inputs[i] = v
			}
		}

		if changed {
			v, err := e.Eval(sc, nil)
			if err != nil {
				return lang.Undefined, err
			}

			last = v
		}

		return last, nil
	}
}
