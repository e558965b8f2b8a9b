package repl

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/digest/lang"
	"github.com/ardnew/digest/scope"
)

// watchMode selects the comparison a REPL watch uses.
type watchMode int

const (
	watchReference watchMode = iota
	watchDeep
	watchCollection
)

func (w watchMode) String() string {
	switch w {
	case watchDeep:
		return "deep"
	case watchCollection:
		return "collection"
	default:
		return "reference"
	}
}

type watchEntry struct {
	id      int
	expr    string
	mode    watchMode
	unwatch func()
}

// session is the live state a REPL drives: the root scope, the loop its
// deferred work runs on, and the watches registered from the prompt.
// Listener firings are buffered until the model prints them.
type session struct {
	root    *scope.Scope
	loop    *scope.Loop
	watches []*watchEntry
	nextID  int
	pending []string
}

func newSession(root *scope.Scope, loop *scope.Loop) *session {
	return &session{root: root, loop: loop, nextID: 1}
}

// eval applies src to the root and runs any work it scheduled.
func (s *session) eval(src string) (any, error) {
	result, err := s.root.Apply(src)

	s.loop.Drain()

	return result, err
}

func (s *session) digest() error {
	err := s.root.Digest()

	s.loop.Drain()

	return err
}

// watch registers expr on the root and returns its ID. Firings are
// reported as "#<id> <expr>: <old> -> <new>".
func (s *session) watch(expr string, mode watchMode) (int, error) {
	id := s.nextID

	report := func(newValue, oldValue any, _ *scope.Scope) {
		s.pending = append(s.pending, fmt.Sprintf("#%d %s: %s -> %s",
			id, expr, lang.FormatValue(oldValue), lang.FormatValue(newValue)))
	}

	var (
		unwatch func()
		err     error
	)

	if mode == watchCollection {
		unwatch, err = s.root.WatchCollection(expr, report)
	} else {
		unwatch, err = s.root.Watch(expr, report, mode == watchDeep)
	}

	if err != nil {
		return 0, err
	}

	s.nextID++
	s.watches = append(s.watches, &watchEntry{
		id:      id,
		expr:    expr,
		mode:    mode,
		unwatch: unwatch,
	})

	return id, nil
}

// unwatch removes the watch with the given ID and reports whether it
// existed.
func (s *session) unwatch(id int) bool {
	i := slices.IndexFunc(s.watches, func(w *watchEntry) bool { return w.id == id })
	if i < 0 {
		return false
	}

	s.watches[i].unwatch()
	s.watches = slices.Delete(s.watches, i, i+1)

	return true
}

// flush returns and clears the buffered listener output.
func (s *session) flush() []string {
	out := s.pending
	s.pending = nil

	return out
}

func (s *session) listWatches() []string {
	lines := make([]string, len(s.watches))
	for i, w := range s.watches {
		lines[i] = fmt.Sprintf("#%d %s (%s)", w.id, w.expr, w.mode)
	}

	return lines
}

// members returns the sorted names reachable with '.' from the value of
// expr, or the names visible from the root when expr is empty. Names whose
// values are functions are reported in callable.
func (s *session) members(expr string) (names []string, callable map[string]bool) {
	callable = make(map[string]bool)

	if expr == "" {
		names = s.root.Keys()
		for _, k := range names {
			if isFunc(s.root.Get(k)) {
				callable[k] = true
			}
		}

		return names, callable
	}

	v, ok := s.lookup(expr)
	if !ok {
		return nil, callable
	}

	switch t := v.(type) {
	case map[string]any:
		return membersOf(t, callable)

	case lang.Locals:
		return membersOf(map[string]any(t), callable)

	case []any:
		names = append(names, "length")
		for i := range t {
			names = append(names, strconv.Itoa(i))
		}

		return names, callable
	}

	return structFields(v), callable
}

func membersOf(m map[string]any, callable map[string]bool) ([]string, map[string]bool) {
	names := make([]string, 0, len(m))
	for k, e := range m {
		names = append(names, k)

		if isFunc(e) {
			callable[k] = true
		}
	}

	slices.Sort(names)

	return names, callable
}

// filterNames returns the filters known to the root's parser.
func (s *session) filterNames() []string {
	if r, ok := s.root.Parser().Filters().(interface{ Names() []string }); ok {
		return r.Names()
	}

	return nil
}

// lookup evaluates a dotted path on the root without side effects beyond
// member access.
func (s *session) lookup(path string) (any, bool) {
	v, err := s.root.Eval(path, nil)
	if err != nil || lang.IsUndefined(v) {
		return nil, false
	}

	return v, true
}

// structFields returns the exported field names of a struct or pointer to
// struct.
func structFields(v any) []string {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return nil
	}

	t := rv.Type()

	var names []string

	for i := range t.NumField() {
		if f := t.Field(i); f.IsExported() {
			names = append(names, f.Name)
		}
	}

	return names
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

// preview renders v on one line, truncated to width runes.
func preview(v any, width int) string {
	var s string
	if isFunc(v) {
		s = "function"
	} else {
		s = strings.ReplaceAll(lang.FormatValue(v), "\n", " ")
	}

	r := []rune(s)
	if width > 3 && len(r) > width {
		return string(r[:width-3]) + "..."
	}

	return s
}
