package scope

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/ardnew/digest/lang"
)

// ListenerFunc reacts to a change of a watched value. On the first call
// oldValue is the same as newValue.
type ListenerFunc func(newValue, oldValue any, s *Scope)

// GroupListenerFunc reacts to changes of a group of watched values.
type GroupListenerFunc func(newValues, oldValues []any, s *Scope)

type watcher struct {
	get      taskFunc
	listener ListenerFunc
	last     any
	label    string
	valueEq  bool
	removed  bool
}

type initial struct{ _ int }

// initWatchVal is the last value of a watcher that has never run. It is
// unequal to every value a watch function can return.
var initWatchVal any = &initial{}

func (w *watcher) changed(value any) bool {
	if w.valueEq {
		return !lang.DeepEqual(value, w.last)
	}

	return !lang.Identical(value, w.last)
}

func noopListener(any, any, *Scope) {}

// Watch registers a watcher on s and returns a function that removes it.
//
// watch is one of string (compiled with the tree's parser),
// *lang.Expression, WatchFunc, func(*Scope) (any, error) or
// func(*Scope) any. Expressions select a specialized strategy, see
// [DelegateOf].
//
// With valueEq set the watched value is compared structurally against a
// deep copy of its previous value. Otherwise values must be identical,
// with NaN equal to itself.
func (s *Scope) Watch(watch any, listener ListenerFunc, valueEq bool) (func(), error) {
	if s.destroyed {
		return nil, ErrDestroyed.With(slog.String("scope", s.id))
	}

	fn, e, err := s.compileTask(watch)
	if err != nil {
		return nil, err
	}

	if listener == nil {
		listener = noopListener
	}

	if e != nil {
		return s.watchExpression(e, listener, valueEq), nil
	}

	return s.addWatcher(&watcher{
		get:      fn,
		listener: listener,
		valueEq:  valueEq,
		label:    fmt.Sprintf("%T", watch),
	}), nil
}

func (s *Scope) addWatcher(w *watcher) func() {
	w.last = initWatchVal
	s.watchers = append(s.watchers, w)
	s.digest.lastDirty = nil

	return func() {
		if w.removed {
			return
		}

		w.removed = true
		s.watchers = slices.DeleteFunc(slices.Clone(s.watchers),
			func(x *watcher) bool { return x == w })
		s.digest.lastDirty = nil
	}
}

// WatchGroup watches every element of watches and calls listener at most
// once per digest with the values of all of them. An empty group calls
// listener once, asynchronously, unless it is removed before then.
func (s *Scope) WatchGroup(watches []any, listener GroupListenerFunc) (func(), error) {
	if s.destroyed {
		return nil, ErrDestroyed.With(slog.String("scope", s.id))
	}

	if listener == nil {
		listener = func([]any, []any, *Scope) {}
	}

	newValues := make([]any, len(watches))
	oldValues := make([]any, len(watches))

	if len(watches) == 0 {
		call := true
		err := s.EvalAsync(func(sc *Scope) {
			if call {
				listener(newValues, newValues, sc)
			}
		})

		return func() { call = false }, err
	}

	var scheduled, started bool

	react := func(*Scope) {
		values := slices.Clone(newValues)

		if !started {
			started = true
			listener(values, values, s)
		} else {
			listener(values, slices.Clone(oldValues), s)
		}

		scheduled = false
	}

	unwatchers := make([]func(), 0, len(watches))
	unwatchAll := func() {
		for _, unwatch := range unwatchers {
			unwatch()
		}
	}

	for i, watch := range watches {
		unwatch, err := s.Watch(watch, func(newValue, oldValue any, _ *Scope) {
			newValues[i] = newValue
			oldValues[i] = oldValue

			if !scheduled {
				scheduled = true
				_ = s.EvalAsync(react)
			}
		}, false)
		if err != nil {
			unwatchAll()

			return nil, err
		}

		unwatchers = append(unwatchers, unwatch)
	}

	return unwatchAll, nil
}

// WatchCollection watches the shallow contents of a slice, an array or a
// map with string keys: its length or key set and the identity of each
// element. Other values are compared by identity. The listener receives a
// shallow copy of the previous collection, as a []any or map[string]any,
// as its old value.
func (s *Scope) WatchCollection(watch any, listener ListenerFunc) (func(), error) {
	if s.destroyed {
		return nil, ErrDestroyed.With(slog.String("scope", s.id))
	}

	fn, e, err := s.compileTask(watch)
	if err != nil {
		return nil, err
	}

	if listener == nil {
		listener = noopListener
	}

	label := fmt.Sprintf("%T", watch)
	if e != nil {
		label = e.String()
	}

	var (
		newValue, oldValue, veryOldValue any
		changes                          float64
		started                          bool
	)

	get := func(sc *Scope, _ lang.Locals) (any, error) {
		v, err := fn(sc, nil)
		if err != nil {
			return nil, err
		}

		newValue = v

		switch nv := lang.Collection(v).(type) {
		case []any:
			old, ok := oldValue.([]any)
			if !ok {
				changes++
				old = []any{}
			}

			if len(nv) != len(old) {
				changes++
				old = resize(old, len(nv))
			}

			for i, item := range nv {
				if !lang.Identical(item, old[i]) {
					changes++
					old[i] = item
				}
			}

			oldValue = old

		case map[string]any:
			old, ok := oldValue.(map[string]any)
			if !ok {
				changes++
				old = make(map[string]any, len(nv))
			}

			for k, item := range nv {
				if prev, ok := old[k]; !ok || !lang.Identical(item, prev) {
					changes++
					old[k] = item
				}
			}

			if len(old) > len(nv) {
				changes++

				for k := range old {
					if _, ok := nv[k]; !ok {
						delete(old, k)
					}
				}
			}

			oldValue = old

		default:
			if !lang.Identical(v, oldValue) {
				changes++
			}

			oldValue = v
		}

		return changes, nil
	}

	return s.addWatcher(&watcher{
		get: get,
		listener: func(_, _ any, sc *Scope) {
			if !started {
				started = true
				listener(newValue, newValue, sc)
			} else {
				listener(newValue, veryOldValue, sc)
			}

			veryOldValue = lang.ShallowClone(lang.Collection(newValue))
		},
		label: label,
	}), nil
}

func resize(s []any, n int) []any {
	if n <= len(s) {
		return s[:n]
	}

	for len(s) < n {
		s = append(s, lang.Undefined)
	}

	return s
}
