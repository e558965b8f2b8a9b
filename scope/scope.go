package scope

import (
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/ardnew/digest/lang"
	"github.com/ardnew/digest/log"
)

// Phase names reported by [Scope.Phase].
const (
	PhaseIdle   = ""
	PhaseDigest = "$digest"
	PhaseApply  = "$apply"
)

// TTL is the number of dirty-check rounds a digest runs before it reports
// [ErrNotConverging].
const TTL = 10

// Scope is a node in a tree of variable frames. Every scope of a tree
// shares one digest context holding the phase, the deferred work queues
// and the collaborators configured on the root.
//
// A scope tree is not safe for concurrent use. One goroutine drives it,
// and deferred work runs on the goroutine draining its [Scheduler].
type Scope struct {
	id     string
	frame  map[string]any
	proto  *Scope // read-through parent, nil for roots and isolated scopes
	parent *Scope
	root   *Scope

	children  []*Scope
	watchers  []*watcher
	listeners map[string][]*listenerEntry

	digest    *digestContext
	destroyed bool
}

type digestContext struct {
	phase     string
	lastDirty *watcher

	asyncQueue       []asyncTask
	applyAsyncQueue  []func()
	applyAsyncCancel func()
	postDigestQueue  []func()

	scheduler Scheduler
	logger    log.Logger
	recorder  Recorder
	parser    *lang.Parser
}

// Option configures the digest context of a root scope.
type Option func(*digestContext)

// WithLogger sets the logger for callback errors and digest tracing.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(dc *digestContext) {
		dc.logger = logger.Named("scope")
	}
}

// WithScheduler sets the scheduler for deferred digests.
// The default is a new [Loop].
func WithScheduler(s Scheduler) Option {
	return func(dc *digestContext) {
		if s != nil {
			dc.scheduler = s
		}
	}
}

// WithParser sets the parser used to compile string watches and tasks.
func WithParser(p *lang.Parser) Option {
	return func(dc *digestContext) {
		if p != nil {
			dc.parser = p
		}
	}
}

// WithRecorder sets the sink for digest measurements.
func WithRecorder(r Recorder) Option {
	return func(dc *digestContext) {
		if r != nil {
			dc.recorder = r
		}
	}
}

// NewRoot returns the root of a new scope tree.
func NewRoot(opts ...Option) *Scope {
	dc := &digestContext{
		scheduler: NewLoop(),
		recorder:  nopRecorder{},
		parser:    lang.NewParser(),
	}

	for _, opt := range opts {
		opt(dc)
	}

	s := &Scope{
		id:     uuid.NewString(),
		frame:  make(map[string]any),
		digest: dc,
	}
	s.root = s

	return s
}

// NewOption configures a child created by [Scope.New].
type NewOption func(*newOptions)

type newOptions struct {
	parent   *Scope
	isolated bool
}

// Isolated gives the child a fresh frame that does not read through to
// the scope it was created from.
func Isolated() NewOption {
	return func(o *newOptions) {
		o.isolated = true
	}
}

// WithParent registers the child under p for digests, broadcasts and
// destruction instead of under the scope it was created from.
func WithParent(p *Scope) NewOption {
	return func(o *newOptions) {
		if p != nil {
			o.parent = p
		}
	}
}

// New creates a child scope sharing s's digest context.
func (s *Scope) New(opts ...NewOption) *Scope {
	o := newOptions{parent: s}
	for _, opt := range opts {
		opt(&o)
	}

	child := &Scope{
		id:     uuid.NewString(),
		frame:  make(map[string]any),
		parent: o.parent,
		root:   s.root,
		digest: s.digest,
	}

	if !o.isolated {
		child.proto = s
	}

	o.parent.children = append(o.parent.children, child)

	return child
}

// Destroy broadcasts "$destroy" over s's subtree, detaches s from its
// parent and drops its watchers and listeners. Destroying a root does
// nothing.
func (s *Scope) Destroy() {
	if s.parent == nil || s.destroyed {
		return
	}

	s.Broadcast("$destroy")

	p := s.parent
	p.children = slices.DeleteFunc(slices.Clone(p.children),
		func(c *Scope) bool { return c == s })

	for _, w := range s.watchers {
		w.removed = true
	}

	s.watchers = nil
	s.listeners = nil
	s.destroyed = true
}

// Destroyed reports whether [Scope.Destroy] was called on s.
func (s *Scope) Destroyed() bool { return s.destroyed }

// ID returns the unique identifier of s.
func (s *Scope) ID() string { return s.id }

// Parent returns the structural parent of s, or nil for a root.
func (s *Scope) Parent() *Scope { return s.parent }

// Root returns the root of s's tree.
func (s *Scope) Root() *Scope { return s.root }

// Children returns a copy of the children registered under s.
func (s *Scope) Children() []*Scope { return slices.Clone(s.children) }

// WatcherCount returns the number of watchers registered on s itself.
func (s *Scope) WatcherCount() int { return len(s.watchers) }

// Phase returns the phase of s's tree.
func (s *Scope) Phase() string { return s.digest.phase }

// Scheduler returns the scheduler of s's tree.
func (s *Scope) Scheduler() Scheduler { return s.digest.scheduler }

// Parser returns the parser of s's tree.
func (s *Scope) Parser() *lang.Parser { return s.digest.parser }

// Logger returns the logger of s's tree.
func (s *Scope) Logger() log.Logger { return s.digest.logger }

// Lookup resolves name through the frame chain of s.
func (s *Scope) Lookup(name string) (any, bool) {
	for sc := s; sc != nil; sc = sc.proto {
		if v, ok := sc.frame[name]; ok {
			return v, true
		}
	}

	return nil, false
}

// Assign sets name on the frame of s.
func (s *Scope) Assign(name string, value any) { s.frame[name] = value }

// Get returns the value of name visible from s, or [lang.Undefined].
func (s *Scope) Get(name string) any {
	if v, ok := s.Lookup(name); ok {
		return v
	}

	return lang.Undefined
}

// Set creates or overwrites name on the frame of s.
func (s *Scope) Set(name string, value any) { s.Assign(name, value) }

// SetAll copies every entry of values onto the frame of s.
func (s *Scope) SetAll(values map[string]any) { maps.Copy(s.frame, values) }

// Delete removes name from the frame of s. Values inherited through the
// frame chain are not affected.
func (s *Scope) Delete(name string) { delete(s.frame, name) }

// Has reports whether name is visible from s.
func (s *Scope) Has(name string) bool {
	_, ok := s.Lookup(name)

	return ok
}

// Own returns the value of name on the frame of s only.
func (s *Scope) Own(name string) (any, bool) {
	v, ok := s.frame[name]

	return v, ok
}

// Keys returns the sorted names visible from s.
func (s *Scope) Keys() []string {
	seen := make(map[string]struct{})

	for sc := s; sc != nil; sc = sc.proto {
		for k := range sc.frame {
			seen[k] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(seen))
}
