package repl

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// boundaries delimit the word being completed. All are single-byte.
const boundaries = ".\t ()[]{}+-*/%<>=!&|,?:;"

func isWordBoundary(r rune) bool { return strings.ContainsRune(boundaries, r) }

// completion is the candidate list for the word under the cursor.
type completion struct {
	matches    fuzzy.Matches
	callable   map[string]bool
	saved      draft // input before cycling began
	start, end int   // byte span of the word
	selected   int   // -1 unless cycling
	cycling    bool
}

func (c *completion) dismiss() {
	c.matches = nil
	c.selected = -1
	c.cycling = false
}

// wordBounds returns the word containing cursor and its byte span. The word
// is empty when the cursor sits between two boundaries.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))
	start = strings.LastIndexFunc(input[:cursor], isWordBoundary) + 1

	end = len(input)
	if i := strings.IndexFunc(input[cursor:], isWordBoundary); i >= 0 {
		end = cursor + i
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain before the word at wordStart,
// so "x + server.http.ho" yields "server.http". Top-level words have none.
func parentPath(input string, wordStart int) string {
	prefix := strings.TrimRight(input[:wordStart], ".")
	i := strings.LastIndexFunc(prefix, func(r rune) bool {
		return r != '.' && isWordBoundary(r)
	})

	return strings.TrimSpace(prefix[i+1:])
}

// filterPosition reports whether the word at wordStart follows a single
// '|' and so names a filter.
func filterPosition(input string, wordStart int) bool {
	prefix := strings.TrimRight(input[:wordStart], " \t")

	return strings.HasSuffix(prefix, "|") && !strings.HasSuffix(prefix, "||")
}

// commandWord reports whether the word at wordStart is the command name.
func commandWord(input string, wordStart int) bool {
	return strings.TrimSpace(input[:wordStart]) == ""
}

// childCandidates returns the names the word at wordStart may complete to:
// filter names after '|', the members of the parent chain, or every name
// visible from the root.
func childCandidates(
	sess *session,
	input string,
	wordStart int,
) (names []string, callable map[string]bool, parent string) {
	if filterPosition(input, wordStart) {
		return sess.filterNames(), nil, ""
	}

	parent = parentPath(input, wordStart)
	names, callable = sess.members(parent)

	return names, callable, parent
}

// complete ranks the candidates for the word under the cursor. An empty
// word offers nothing at the top level, so the hint stays visible, and
// every member after a dot.
func (m model) complete() completion {
	input := m.input.Value()
	word, start, end := wordBounds(input, m.input.Position())

	c := completion{start: start, end: end, selected: -1}

	var names []string

	if m.mode == modeCtrl && commandWord(input, start) {
		if word == "" {
			return c
		}

		names = commandNames()
	} else {
		var parent string

		names, c.callable, parent = childCandidates(m.sess, input, start)

		if word == "" {
			if parent != "" {
				for i, name := range names {
					c.matches = append(c.matches, fuzzy.Match{Str: name, Index: i})
				}
			}

			return c
		}
	}

	if len(names) > 0 {
		c.matches = fuzzy.Find(word, names)
	}

	return c
}

// refresh recomputes the candidates, keeping any cycling state. With
// confirm set, a sole candidate equal to the typed word is accepted.
func (m *model) refresh(confirm bool) {
	next := m.complete()
	next.saved, next.cycling = m.comp.saved, m.comp.cycling

	if next.cycling {
		next.selected = m.comp.selected
	}

	m.comp = next

	if !confirm || len(next.matches) != 1 {
		return
	}

	if only := next.matches[0].Str; m.input.Value()[next.start:next.end] == only {
		m.accept(only)
		m.comp.dismiss()
	}
}

// accept replaces the word being completed with text.
func (m *model) accept(text string) {
	input := m.input.Value()
	cursor := m.comp.start + len(text)

	m.input.SetValue(input[:m.comp.start] + text + input[m.comp.end:])
	m.input.SetCursor(cursor)
	m.comp.end = cursor
}

// cycle selects the next candidate in direction step and writes it into the
// line. A sole candidate is accepted outright.
func (m *model) cycle(step int) {
	c := &m.comp

	switch n := len(c.matches); {
	case n == 0:
		return

	case n == 1:
		m.accept(c.matches[0].Str)
		c.dismiss()

		return

	case !c.cycling:
		c.cycling = true
		c.saved = m.current()
		c.selected = 0

		if step < 0 {
			c.selected = n - 1
		}

	default:
		c.selected = (c.selected + step + n) % n
	}

	m.accept(c.matches[c.selected].Str)
}

var (
	matchStyle         = suggestionStyle.Bold(true)
	selectedMatchStyle = selectedStyle.Bold(true)
)

// renderCandidateBar lays the candidates out on one line, cut off with an
// ellipsis where they would exceed width.
func renderCandidateBar(c completion, width int) string {
	if len(c.matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	more := hintStyle.Render("...")
	parts := make([]string, 0, len(c.matches))
	used := 0

	for i, match := range c.matches {
		item := renderCandidate(match, c.cycling && i == c.selected, c.callable[match.Str])

		w := lipgloss.Width(item)
		if i > 0 {
			w += len(sep)
		}

		if i > 0 && used+w+lipgloss.Width(more) > width {
			parts = append(parts, more)

			break
		}

		parts = append(parts, item)
		used += w
	}

	return strings.Join(parts, sep)
}

// renderCandidate highlights the matched characters of a candidate.
// Functions get a "()" suffix.
func renderCandidate(match fuzzy.Match, selected, function bool) string {
	base, hit := suggestionStyle, matchStyle
	if selected {
		base, hit = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		style := base
		if slices.Contains(match.MatchedIndexes, i) {
			style = hit
		}

		b.WriteString(style.Render(string(r)))
	}

	if function {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}
