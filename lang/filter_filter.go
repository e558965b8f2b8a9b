package lang

import (
	"strconv"
	"strings"
)

// filterFilter selects the elements of an array that match expr.
//
// A callable expr is used as a predicate. A primitive, null or object expr
// is matched against each element by a case-insensitive, recursive
// substring comparison. A string expr prefixed with '!' negates the match.
// Any other expr, or an input that is not an array, is returned unchanged.
func filterFilter(input any, args ...any) (any, error) {
	arr, ok := input.([]any)
	if !ok {
		return input, nil
	}

	var expr any = Undefined
	if len(args) > 0 {
		expr = args[0]
	}

	var match func(item any) (bool, error)

	switch {
	case IsUndefined(expr):
		return input, nil

	case callable(expr):
		if err := RejectUnsafeFunction(expr); err != nil {
			return nil, err
		}

		match = func(item any) (bool, error) {
			v, err := call(expr, []any{item})

			return Truthy(v), err
		}

	default:
		match = func(item any) (bool, error) {
			return deepCompare(item, expr), nil
		}
	}

	out := make([]any, 0, len(arr))

	for _, item := range arr {
		ok, err := match(item)
		if err != nil {
			return nil, ErrFilter.Wrap(err)
		}

		if ok {
			out = append(out, item)
		}
	}

	return out, nil
}

func deepCompare(actual, expected any) bool {
	if s, ok := expected.(string); ok && strings.HasPrefix(s, "!") {
		return !deepCompare(actual, s[1:])
	}

	switch a := actual.(type) {
	case []any:
		for _, item := range a {
			if deepCompare(item, expected) {
				return true
			}
		}

		return false

	case map[string]any:
		switch e := expected.(type) {
		case map[string]any:
			for key, want := range e {
				if IsUndefined(want) {
					continue
				}

				if !deepCompare(member(a, key), want) {
					return false
				}
			}

			return true

		case []any:
			for i, want := range e {
				if IsUndefined(want) {
					continue
				}

				if !deepCompare(member(a, strconv.Itoa(i)), want) {
					return false
				}
			}

			return true
		}

		for _, value := range a {
			if deepCompare(value, expected) {
				return true
			}
		}

		return false
	}

	return compareSubstring(actual, expected)
}

// compareSubstring reports whether expected, as a string, occurs in actual
// ignoring case. Null only matches null.
func compareSubstring(actual, expected any) bool {
	if IsUndefined(actual) {
		return false
	}

	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}

	return strings.Contains(
		strings.ToLower(ToString(actual)),
		strings.ToLower(ToString(expected)),
	)
}
