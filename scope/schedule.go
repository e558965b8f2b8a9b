package scope

import (
	"context"
	"sync"
)

// Scheduler defers work until after the current call stack unwinds.
// The returned function cancels fn if it has not yet run.
type Scheduler interface {
	Defer(fn func()) (cancel func())
}

// Loop is a [Scheduler] backed by a FIFO queue. Any goroutine may defer
// work, but callbacks only run on the goroutine that calls [Loop.Drain]
// or [Loop.Run].
type Loop struct {
	mu      sync.Mutex
	pending []*deferred
	wake    chan struct{}
}

type deferred struct {
	fn       func()
	canceled bool
}

// NewLoop returns an empty Loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Defer appends fn to the queue.
func (l *Loop) Defer(fn func()) (cancel func()) {
	d := &deferred{fn: fn}

	l.mu.Lock()
	l.pending = append(l.pending, d)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}

	return func() {
		l.mu.Lock()
		d.canceled = true
		l.mu.Unlock()
	}
}

// Len returns the number of callbacks waiting to run, including any that
// were canceled but not yet discarded.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.pending)
}

// Drain runs queued callbacks until the queue is empty, including those
// deferred by the callbacks themselves. It returns the number run.
func (l *Loop) Drain() (n int) {
	for {
		d, ok := l.next()
		if !ok {
			return n
		}

		if d != nil {
			d.fn()
			n++
		}
	}
}

// Run drains the queue each time work arrives until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// next pops the head of the queue. It returns a nil callback with ok set
// when the head was canceled.
func (l *Loop) next() (*deferred, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.pending) == 0 {
		return nil, false
	}

	d := l.pending[0]
	l.pending[0] = nil
	l.pending = l.pending[1:]

	if d.canceled {
		return nil, true
	}

	return d, true
}
