package scope

import (
	"log/slog"
	"slices"
)

// EventListener handles an event dispatched with [Scope.Emit] or
// [Scope.Broadcast].
type EventListener func(e *Event, args ...any)

// Event is passed to every listener of one dispatch.
type Event struct {
	Name string
	// TargetScope is the scope the event was dispatched from.
	TargetScope *Scope
	// CurrentScope is the scope whose listeners are running. It is nil
	// once dispatch completes.
	CurrentScope     *Scope
	DefaultPrevented bool

	stopped bool
}

// PreventDefault sets DefaultPrevented.
func (e *Event) PreventDefault() { e.DefaultPrevented = true }

// StopPropagation ends an emitted event after the listeners of the
// current scope. Broadcasts ignore it.
func (e *Event) StopPropagation() { e.stopped = true }

// Stopped reports whether StopPropagation was called.
func (e *Event) Stopped() bool { return e.stopped }

type listenerEntry struct {
	fn      EventListener
	removed bool
}

// On registers fn for events named name on s and returns a function that
// removes it.
func (s *Scope) On(name string, fn EventListener) func() {
	if s.listeners == nil {
		s.listeners = make(map[string][]*listenerEntry)
	}

	entry := &listenerEntry{fn: fn}
	s.listeners[name] = append(s.listeners[name], entry)

	return func() { entry.removed = true }
}

// ListenerCount returns the number of live listeners for name on s.
func (s *Scope) ListenerCount(name string) (n int) {
	for _, entry := range s.listeners[name] {
		if !entry.removed {
			n++
		}
	}

	return n
}

// Emit dispatches an event on s and then on each of its ancestors,
// stopping after the scope on which a listener called StopPropagation.
func (s *Scope) Emit(name string, args ...any) *Event {
	e := &Event{Name: name, TargetScope: s}

	for sc := s; sc != nil; sc = sc.parent {
		sc.fire(e, args)

		if e.stopped {
			break
		}
	}

	e.CurrentScope = nil

	return e
}

// Broadcast dispatches an event on s and every descendant in pre-order.
func (s *Scope) Broadcast(name string, args ...any) *Event {
	e := &Event{Name: name, TargetScope: s}

	s.everyScope(func(sc *Scope) bool {
		sc.fire(e, args)

		return true
	})

	e.CurrentScope = nil

	return e
}

func (s *Scope) fire(e *Event, args []any) {
	entries := s.listeners[e.Name]
	if len(entries) == 0 {
		return
	}

	e.CurrentScope = s
	compact := false

	for _, entry := range entries {
		if entry.removed {
			compact = true

			continue
		}

		s.guard("event", func() { entry.fn(e, args...) },
			slog.String("event", e.Name))
	}

	if compact && s.listeners != nil {
		live := slices.DeleteFunc(slices.Clone(s.listeners[e.Name]),
			func(entry *listenerEntry) bool { return entry.removed })
		if len(live) == 0 {
			delete(s.listeners, e.Name)
		} else {
			s.listeners[e.Name] = live
		}
	}
}
