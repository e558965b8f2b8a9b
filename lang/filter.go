package lang

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"time"
)

// FilterFunc transforms input using the arguments that follow it in a
// filter pipe.
type FilterFunc func(input any, args ...any) (any, error)

// Filter is a named transformation applied with the '|' operator.
type Filter struct {
	Func FilterFunc
	// Stateful filters may return different results for the same
	// arguments, so expressions using them are never treated as constant
	// and are always re-evaluated in full.
	Stateful bool
}

// FilterRegistry resolves filter names at compile time.
type FilterRegistry interface {
	Lookup(name string) (Filter, bool)
}

// Filters is a [FilterRegistry] backed by a map.
type Filters map[string]Filter

// Lookup implements [FilterRegistry].
func (f Filters) Lookup(name string) (Filter, bool) {
	filter, ok := f[name]

	return filter, ok
}

// Register adds or replaces the filter with the given name.
func (f Filters) Register(name string, filter Filter) Filters {
	f[name] = filter

	return f
}

// RegisterAll adds or replaces every filter in all.
func (f Filters) RegisterAll(all map[string]Filter) Filters {
	maps.Copy(f, all)

	return f
}

// Names returns the registered filter names in lexical order.
func (f Filters) Names() []string {
	return slices.Sorted(maps.Keys(f))
}

// Builtins returns a new registry holding the builtin filters.
func Builtins() Filters {
	return Filters{}.RegisterAll(map[string]Filter{
		"filter":     {Func: filterFilter},
		"where":      {Func: whereFilter},
		"pathprefix": {Func: pathPrefixFilter},
		"json":       {Func: jsonFilter},
		"now":        {Func: nowFilter, Stateful: true},
	})
}

// maxJSONIndent caps the indent of the json filter.
const maxJSONIndent = 10

// jsonFilter renders input as JSON, indented by the optional number of
// spaces given as its argument, at most [maxJSONIndent].
func jsonFilter(input any, args ...any) (any, error) {
	var (
		data []byte
		err  error
	)

	indent := 0
	if len(args) > 0 {
		if n := ToNumber(args[0]); n > 0 {
			indent = int(min(n, maxJSONIndent))
		}
	}

	if indent > 0 {
		data, err = json.MarshalIndent(Plain(input), "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(Plain(input))
	}

	if err != nil {
		return nil, ErrFilter.Wrap(err)
	}

	return string(data), nil
}

// nowFilter ignores its input and returns the current Unix time in
// milliseconds.
func nowFilter(any, ...any) (any, error) {
	return float64(time.Now().UnixMilli()), nil
}
