// Package scope implements a tree of variable scopes with dirty-checking
// change detection.
//
// A tree is created with [NewRoot] and extended with [Scope.New]. Watchers
// registered with [Scope.Watch] observe a value computed from a scope,
// usually a compiled [lang.Expression], and a listener runs whenever that
// value changes. [Scope.Digest] evaluates every watcher of a subtree
// repeatedly until a full round sees no change:
//
//	root := scope.NewRoot()
//	root.Set("first", "Ada")
//	root.Watch("first + ' ' + last", func(n, o any, s *scope.Scope) {
//		s.Set("full", n)
//	}, false)
//	root.Apply("last = 'Lovelace'")
//
// A digest that keeps finding changes after [TTL] rounds fails with
// [ErrNotConverging]. Errors and panics raised by watch functions,
// listeners and deferred tasks are logged with [ErrCallback] and never
// interrupt a digest.
//
// # Deferred Work
//
// [Scope.EvalAsync] and [Scope.ApplyAsync] defer work through the tree's
// [Scheduler]. The default [Loop] only runs callbacks when drained, so a
// program using it calls [Loop.Drain] or [Loop.Run] from the goroutine
// that owns the tree.
//
// # Events
//
// [Scope.Emit] dispatches an event upward through the ancestors of a
// scope and [Scope.Broadcast] dispatches it downward through the subtree.
package scope
