package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/digest/lang"
	"github.com/ardnew/digest/log"
)

const (
	defaultWidth = 80
	previewWidth = 60
	inputLimit   = 1024
)

// draft is the unsubmitted text of the input line.
type draft struct {
	text   string
	cursor int
}

// recall tracks history browsing. pos equals the history length while the
// user is editing a fresh line.
type recall struct {
	saved  draft
	pos    int
	origin inputMode
	detour bool // Alt browsing switched to command mode
}

// editResult is delivered when the external editor exits.
type editResult struct {
	cmd *editScopeCommand
	err error
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc  func() context.Context
	sess     *session
	history  *History
	logger   log.Logger
	input    textinput.Model
	comp     completion
	nav      recall
	drafts   [2]draft // per inputMode
	mode     inputMode
	width    int
	quitting bool
}

func newModel(
	ctx context.Context,
	sess *session,
	history *History,
	logger log.Logger,
) model {
	in := textinput.New()
	in.Prompt = modeEval.prompt()
	in.CharLimit = inputLimit
	in.Width = defaultWidth
	in.Focus()

	return model{
		ctxFunc: func() context.Context { return ctx },
		sess:    sess,
		history: history,
		logger:  logger,
		input:   in,
		comp:    completion{selected: -1},
		nav:     recall{pos: history.Len()},
		mode:    modeEval,
		width:   defaultWidth,
	}
}

func (m model) Init() tea.Cmd { return textinput.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - lipgloss.Width(prompts[modeEval].text) - 2

		return m, nil

	case editResult:
		return m.finishEdit(msg)
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	return m.input.View() + "\n" + m.status() + "\n"
}

// status renders the line below the prompt: the history position, a usage
// hint, a call signature, or the completion candidates.
func (m model) status() string {
	if n := m.history.Len(); m.nav.pos < n {
		pos := lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.nav.pos + 1))

		return hintStyle.Render(fmt.Sprintf("%s/%d", pos, n))
	}

	input := m.input.Value()
	if strings.TrimSpace(input) == "" {
		return hintStyle.Render(m.mode.hint())
	}

	if m.mode == modeEval {
		if call := detectFunctionCall(input, m.input.Position()); call.inCall {
			if name, params := getSignature(m.sess, call); name != "" {
				return renderSignatureHint(name, params, call.argIndex, call.filter)
			}
		}
	}

	return renderCandidateBar(m.comp, m.width)
}

func (m model) current() draft {
	return draft{text: m.input.Value(), cursor: m.input.Position()}
}

func (m *model) setInput(d draft) {
	m.input.SetValue(d.text)
	m.input.SetCursor(d.cursor)
}

// switchTo changes the input mode. Each mode keeps its own draft.
func (m *model) switchTo(mode inputMode) {
	m.drafts[m.mode] = m.current()
	m.mode = mode
	m.input.Prompt = mode.prompt()
	m.setInput(m.drafts[mode])
	m.refresh(false)
}

// submit records the input line in history and runs it. A leading ':' runs
// a command from either mode; a leading "::" is a one-time expression.
func (m model) submit() (model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}

	m.drafts = [2]draft{}
	m.setInput(draft{})

	mode := m.mode

	switch {
	case strings.HasPrefix(line, "::"):
		mode = modeEval
	case strings.HasPrefix(line, ":"):
		mode, line = modeCtrl, strings.TrimSpace(line[1:])
	}

	if err := m.history.Add(line, mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "history write failed", slog.Any("error", err))
	}

	m.nav.pos = m.history.Len()

	if mode == modeCtrl {
		return m.runCommand(line)
	}

	return m.evaluate(line)
}

func (m model) evaluate(src string) (model, tea.Cmd) {
	ctx := m.ctxFunc()

	m.logger.TraceContext(ctx, "repl eval", slog.String("input", src))

	result, err := m.sess.eval(src)
	if err != nil {
		m.logger.TraceContext(ctx, "repl eval failed", slog.Any("error", err))

		return m, tea.Sequence(echo(modeEval, src), failure(err), m.printWatches())
	}

	m.logger.TraceContext(ctx, "repl eval result", slog.String("type", typeName(result)))

	return m, tea.Sequence(
		echo(modeEval, src),
		tea.Println(resultStyle.Render(lang.FormatValue(result))),
		m.printWatches(),
	)
}

// printWatches prints the listener firings buffered since the last call.
func (m model) printWatches() tea.Cmd {
	lines := m.sess.flush()
	if len(lines) == 0 {
		return nil
	}

	return tea.Println(hintStyle.Render(strings.Join(lines, "\n")))
}

func (m model) startEdit() tea.Cmd {
	cmd := &editScopeCommand{
		root:    m.sess.root,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg { return editResult{cmd: cmd, err: err} })
}

func (m model) finishEdit(r editResult) (model, tea.Cmd) {
	switch {
	case errors.Is(r.err, ErrEditDeclined):
		m.quitting = true

		return m, tea.Quit

	case r.err != nil:
		return m, failure(r.err)

	case r.cmd.after == nil:
		return m, tea.Println(hintStyle.Render("edit cancelled"))
	}

	err := r.cmd.apply()

	m.logger.TraceContext(m.ctxFunc(), "repl edit applied",
		slog.Int("keys", len(r.cmd.after)),
		slog.Any("error", err),
	)

	if err != nil {
		return m, tea.Sequence(failure(err), m.printWatches())
	}

	return m, tea.Sequence(
		tea.Println(resultStyle.Render("scope updated")),
		m.printWatches(),
	)
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}

	return fmt.Sprintf("%T", v)
}
