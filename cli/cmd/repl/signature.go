package repl

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// filterSignatures names the arguments of the builtin filters, in the order
// they follow the filter name.
var filterSignatures = map[string][]string{
	"filter":     {"expression"},
	"where":      {"predicate", "params"},
	"pathprefix": {"dirs", "existing"},
	"json":       {"indent"},
	"now":        nil,
}

var (
	signatureStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	calleeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	currentParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// functionCall is the call enclosing the cursor. A filter call is written
// "value | name:arg0:arg1".
type functionCall struct {
	name     string // dotted path of the callee
	argIndex int    // 0-based argument under the cursor
	inCall   bool
	filter   bool
}

func isIdentRune(r rune) bool {
	switch {
	case r == '.', r == '_', r == '$':
		return true
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}

	return false
}

// detectFunctionCall finds the innermost unclosed call or filter before
// cursor and the argument the cursor is in.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	open, filter := openCall(input, cursor)
	switch {
	case open < 0:
		return functionCall{}
	case filter:
		return filterCall(input[open+1 : cursor])
	}

	callee := input[identStart(input, open):open]
	if callee == "" {
		return functionCall{}
	}

	return functionCall{
		name:     callee,
		argIndex: countTopLevel(input[open+1:cursor], ','),
		inCall:   true,
	}
}

// openCall scans backward from cursor for an unmatched '(' or a single '|'
// and returns its offset, or -1.
func openCall(input string, cursor int) (pos int, filter bool) {
	depth := 0

	for i := cursor - 1; i >= 0; i-- {
		switch input[i] {
		case ')', ']', '}':
			depth++

		case '[', '{':
			depth--

		case '(':
			if depth == 0 {
				return i, false
			}

			depth--

		case '|':
			if depth != 0 {
				continue
			}

			if i > 0 && input[i-1] == '|' {
				i--

				continue
			}

			if i+1 < len(input) && input[i+1] == '|' {
				continue
			}

			return i, true
		}
	}

	return -1, false
}

// identStart returns the offset of the identifier path ending at end.
func identStart(s string, end int) int {
	i := strings.LastIndexFunc(s[:end], func(r rune) bool { return !isIdentRune(r) })
	if i < 0 {
		return 0
	}

	_, size := utf8.DecodeRuneInString(s[i:])

	return i + size
}

// filterCall describes the text after a '|'. The cursor is inside the call
// once a ':' follows the filter name.
func filterCall(text string) functionCall {
	text = strings.TrimLeft(text, " \t")

	n := strings.IndexFunc(text, func(r rune) bool { return !isIdentRune(r) })
	if n <= 0 {
		return functionCall{}
	}

	args := strings.TrimLeft(text[n:], " \t")
	if !strings.HasPrefix(args, ":") {
		return functionCall{}
	}

	return functionCall{
		name:     text[:n],
		argIndex: countTopLevel(args, ':') - 1,
		inCall:   true,
		filter:   true,
	}
}

// countTopLevel counts occurrences of sep in s outside brackets and quoted
// strings.
func countTopLevel(s string, sep byte) int {
	var (
		count, depth int
		quote        byte
	)

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}

		case c == '\'' || c == '"':
			quote = c

		case strings.IndexByte("([{", c) >= 0:
			depth++

		case strings.IndexByte(")]}", c) >= 0:
			depth--

		case c == sep && depth == 0:
			count++
		}
	}

	return count
}

// getSignature returns the parameters of the called function or filter.
// Functions are found on the root scope and described by reflection;
// unknown callees yield an empty name.
func getSignature(sess *session, call functionCall) (name string, params []string) {
	if call.filter {
		if params, ok := filterSignatures[call.name]; ok {
			return call.name, params
		}

		if _, ok := sess.root.Parser().Filters().Lookup(call.name); ok {
			return call.name, []string{"...args"}
		}

		return "", nil
	}

	v, ok := sess.lookup(call.name)
	if !ok {
		return "", nil
	}

	if params, ok = funcParams(v); !ok {
		return "", nil
	}

	return call.name, params
}

// funcParams names the parameters of fn by type.
func funcParams(fn any) ([]string, bool) {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return nil, false
	}

	params := make([]string, t.NumIn())
	for i := range params {
		params[i] = formatTypeName(t.In(i))
	}

	if t.IsVariadic() {
		last := len(params) - 1
		params[last] = "..." + formatTypeName(t.In(last).Elem())
	}

	return params, true
}

// formatTypeName gives t the name the expression language would use.
func formatTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch k := t.Kind(); {
	case k >= reflect.Int && k <= reflect.Float64:
		return "number"
	case k == reflect.Bool:
		return "bool"
	case k == reflect.String:
		return "string"
	case k == reflect.Func:
		return "func"
	case k == reflect.Slice, k == reflect.Array:
		return "array"
	case k == reflect.Map:
		return "object"
	case t.Name() != "":
		return t.Name()
	}

	return "arg"
}

// renderSignatureHint renders name with its parameters, highlighting the
// one at argIdx. A variadic parameter stays highlighted past its position.
// Filters render as "name:a:b", functions as "name(a, b)".
func renderSignatureHint(name string, params []string, argIdx int, filter bool) string {
	if name == "" {
		return ""
	}

	open, sep, closing := "(", ", ", ")"
	if filter {
		open, sep, closing = ":", ":", ""
	}

	if len(params) == 0 {
		if filter {
			return calleeStyle.Render(name)
		}

		return calleeStyle.Render(name) + signatureStyle.Render("()")
	}

	parts := make([]string, len(params))

	for i, p := range params {
		current := i == argIdx || (strings.HasPrefix(p, "...") && argIdx >= i)
		if current {
			parts[i] = currentParamStyle.Render(p)
		} else {
			parts[i] = signatureStyle.Render(p)
		}
	}

	return calleeStyle.Render(name) +
		signatureStyle.Render(open) +
		strings.Join(parts, signatureStyle.Render(sep)) +
		signatureStyle.Render(closing)
}
