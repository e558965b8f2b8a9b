package repl

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type command struct {
	name    string
	args    string
	summary string
	aliases []string
}

var commands = []command{
	{"help", "", "show this help", []string{"h"}},
	{"keys", "[EXPR]", "list root names, or the members of EXPR", []string{"k", "list", "l"}},
	{"watch", "[--deep|--collection] EXPR", "watch EXPR and print each change", []string{"w"}},
	{"unwatch", "ID", "remove a watch", []string{"u"}},
	{"watches", "", "list active watches", nil},
	{"digest", "", "run a digest without evaluating anything", []string{"d"}},
	{"edit", "", "edit root scope data in $EDITOR", []string{"e"}},
	{"clear", "", "clear the screen", []string{"c"}},
	{"quit", "", "exit", []string{"q", "exit"}},
}

// lookupCommand resolves a command name or alias to its canonical name.
func lookupCommand(name string) (string, bool) {
	for _, c := range commands {
		if c.name == name || slices.Contains(c.aliases, name) {
			return c.name, true
		}
	}

	return "", false
}

func commandNames() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.name
	}

	return names
}

func commandList() string { return strings.Join(commandNames(), ", ") }

func helpText() string {
	usage := func(c command) string { return strings.TrimSpace(c.name + " " + c.args) }

	width := 0
	for _, c := range commands {
		width = max(width, len(usage(c)))
	}

	var b strings.Builder

	b.WriteString("Commands (Esc switches to command mode; prefix ':' runs one from eval mode):\n\n")

	for _, c := range commands {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, usage(c), c.summary)
	}

	b.WriteString(`
Expressions are $apply'd to the root scope and followed by a digest, so
assignments persist and watches fire. Completions follow the cursor; Tab
and Shift+Tab cycle them and Space keeps the current one. Up/Down browse
history, Shift+Up/Down stay within the current mode, and Alt+Up/Down
browse commands only. Ctrl+C on an empty line or Ctrl+D exits.`)

	return b.String()
}

// runCommand executes a control-mode line.
func (m model) runCommand(line string) (model, tea.Cmd) {
	word, args, _ := strings.Cut(line, " ")
	args = strings.TrimSpace(args)

	name, ok := lookupCommand(word)
	if !ok {
		return m, tea.Println(errorStyle.Render("unknown command " + strconv.Quote(word) + " (try help)"))
	}

	m.logger.TraceContext(m.ctxFunc(), "repl command",
		slog.String("command", name),
		slog.String("args", args),
	)

	out, err := m.dispatch(name, args)
	if err != nil {
		out = tea.Sequence(failure(err), m.printWatches())
	}

	return m, tea.Sequence(echo(modeCtrl, line), out)
}

func (m *model) dispatch(name, args string) (tea.Cmd, error) {
	switch name {
	case "help":
		return tea.Println(helpText()), nil

	case "keys":
		return tea.Println(m.listKeys(args)), nil

	case "watch":
		mode, expr := parseWatchArgs(args)
		if expr == "" {
			return nil, ErrMissingArgument
		}

		id, err := m.sess.watch(expr, mode)
		if err != nil {
			return nil, err
		}

		if err := m.sess.digest(); err != nil {
			return nil, err
		}

		return tea.Sequence(
			tea.Println(resultStyle.Render(fmt.Sprintf("watch #%d added", id))),
			m.printWatches(),
		), nil

	case "unwatch":
		id, err := strconv.Atoi(strings.TrimPrefix(args, "#"))
		if err != nil {
			return nil, ErrMissingArgument
		}

		if !m.sess.unwatch(id) {
			return nil, fmt.Errorf("%w: #%d", ErrNoWatch, id)
		}

		return tea.Println(resultStyle.Render(fmt.Sprintf("watch #%d removed", id))), nil

	case "watches":
		lines := m.sess.listWatches()
		if len(lines) == 0 {
			return tea.Println(hintStyle.Render("no watches")), nil
		}

		return tea.Println("  " + strings.Join(lines, "\n  ")), nil

	case "digest":
		if err := m.sess.digest(); err != nil {
			return nil, err
		}

		return m.printWatches(), nil

	case "edit":
		return m.startEdit(), nil

	case "clear":
		return tea.ClearScreen, nil

	case "quit":
		m.quitting = true

		return tea.Quit, nil
	}

	return nil, nil
}

// parseWatchArgs splits the arguments of the watch command into its mode
// flag and expression.
func parseWatchArgs(args string) (watchMode, string) {
	flag, rest, _ := strings.Cut(args, " ")

	switch flag {
	case "--deep", "-d":
		return watchDeep, strings.TrimSpace(rest)
	case "--collection", "-c":
		return watchCollection, strings.TrimSpace(rest)
	}

	return watchReference, args
}

// listKeys lists the names on the root scope, or the members of expr, each
// with a one-line preview of its value.
func (m model) listKeys(expr string) string {
	names, _ := m.sess.members(expr)
	if len(names) == 0 {
		return hintStyle.Render("  (none)")
	}

	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}

	rows := make([]string, len(names))

	for i, name := range names {
		path := name
		if expr != "" {
			path = expr + "[" + strconv.Quote(name) + "]"
		}

		v, _ := m.sess.lookup(path)
		rows[i] = fmt.Sprintf("  %-*s %s", width, name, hintStyle.Render(preview(v, previewWidth)))
	}

	return strings.Join(rows, "\n")
}
