package scope

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ardnew/digest/lang"
	"github.com/ardnew/digest/log"
)

func (dc *digestContext) beginPhase(phase string) error {
	if dc.phase != PhaseIdle {
		return ErrPhaseConflict.With(
			slog.String("phase", dc.phase),
			slog.String("requested", phase))
	}

	dc.phase = phase

	return nil
}

func (dc *digestContext) clearPhase() { dc.phase = PhaseIdle }

// Digest runs watchers on s and its descendants until none reports a
// change, then runs the post-digest queue. It returns [ErrNotConverging]
// when changes persist after [TTL] rounds.
func (s *Scope) Digest() error {
	dc := s.digest
	if err := dc.beginPhase(PhaseDigest); err != nil {
		return err
	}

	dc.lastDirty = nil
	start := time.Now()

	if dc.applyAsyncCancel != nil {
		dc.applyAsyncCancel()
		s.root.flushApplyAsync()
	}

	var (
		ttl    = TTL
		rounds int
	)

	for {
		s.drainAsync()

		dirty := s.digestOnce()
		rounds++
		ttl--

		if dc.logger.Emits(log.DefaultContextProvider(), log.LevelTrace) {
			dc.logger.Trace("digest round",
				slog.String("scope", s.id),
				slog.Int("round", rounds),
				slog.Bool("dirty", dirty),
				slog.Int("async", len(dc.asyncQueue)))
		}

		if !dirty && len(dc.asyncQueue) == 0 {
			break
		}

		if ttl == 0 {
			dc.clearPhase()

			err := ErrNotConverging.With(slog.Int("ttl", TTL))
			dc.recorder.ObserveDigest(rounds, time.Since(start), err)

			return err
		}
	}

	dc.clearPhase()

	for len(dc.postDigestQueue) > 0 {
		fn := dc.postDigestQueue[0]
		dc.postDigestQueue = dc.postDigestQueue[1:]

		s.guard("postDigest", fn)
	}

	dc.recorder.ObserveDigest(rounds, time.Since(start), nil)

	return nil
}

func (s *Scope) drainAsync() {
	dc := s.digest

	for len(dc.asyncQueue) > 0 {
		task := dc.asyncQueue[0]
		dc.asyncQueue = dc.asyncQueue[1:]

		s.guard("async", func() {
			if _, err := task.run(task.scope, nil); err != nil {
				task.scope.callbackError("async", err)
			}
		})
	}
}

// digestOnce runs one dirty-check pass over s's subtree and reports
// whether any watcher changed. The pass stops early on reaching the
// watcher that was last dirty without finding it changed again.
func (s *Scope) digestOnce() (dirty bool) {
	dc := s.digest
	evaluated := 0

	s.everyScope(func(sc *Scope) bool {
		for _, w := range sc.watchers {
			if w.removed {
				continue
			}

			evaluated++

			value, err := sc.evalWatcher(w)
			if err != nil {
				sc.callbackError("watch", err, slog.String("watch", w.label))

				continue
			}

			if !w.changed(value) {
				if dc.lastDirty == w {
					return false
				}

				continue
			}

			dc.lastDirty = w
			dirty = true

			old := w.last
			if w.valueEq {
				w.last = lang.DeepClone(value)
			} else {
				w.last = value
			}

			if old == initWatchVal {
				old = value
			}

			sc.guard("listener", func() { w.listener(value, old, sc) },
				slog.String("watch", w.label))
		}

		return true
	})

	dc.recorder.AddWatchEvaluations(evaluated)

	return dirty
}

func (s *Scope) evalWatcher(w *watcher) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()

	return w.get(s, nil)
}

// everyScope visits s and its descendants in pre-order until fn returns
// false. It reports whether the traversal completed.
func (s *Scope) everyScope(fn func(*Scope) bool) bool {
	if !fn(s) {
		return false
	}

	for _, c := range s.children {
		if c.destroyed {
			continue
		}

		if !c.everyScope(fn) {
			return false
		}
	}

	return true
}

// guard runs fn, logging any panic as a callback error of kind.
func (s *Scope) guard(kind string, fn func(), attrs ...slog.Attr) {
	defer func() {
		if r := recover(); r != nil {
			s.callbackError(kind, panicError(r), attrs...)
		}
	}()

	fn()
}

func (s *Scope) callbackError(kind string, err error, attrs ...slog.Attr) {
	dc := s.digest
	dc.recorder.IncCallbackErrors(kind)

	attrs = append(attrs,
		slog.String("kind", kind),
		slog.String("scope", s.id),
		slog.Any("error", ErrCallback.Wrap(err)))

	dc.logger.Error("callback error", attrs...)
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}

	return fmt.Errorf("panic: %v", r)
}
