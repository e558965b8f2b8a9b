package repl

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

// Key bindings:
//
//	Tab, Shift+Tab       cycle completion candidates
//	Enter                accept the selected candidate, or submit
//	Esc                  cancel cycling, or toggle the input mode
//	Up, Down             browse all history, switching mode to match
//	Shift+Up, Shift+Down browse history of the current mode
//	Alt+Up, Alt+Down     browse command history, returning to the original
//	                     mode and text past either end
//	Ctrl+C               clear the line, or quit on an empty line
//	Ctrl+D               quit on an empty line
func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl key", slog.String("key", msg.String()))

	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		if msg.Type == tea.KeyCtrlC {
			m.comp.cycling, m.nav.detour = false, false
			m.nav.pos = m.history.Len()
			m.setInput(draft{})
			m.refresh(false)
		}

	case tea.KeyEnter:
		m.nav.detour = false

		if !m.comp.cycling || len(m.comp.matches) == 0 {
			return m.submit()
		}

		m.comp.cycling = false
		m.refresh(true)

	case tea.KeyTab:
		m.cycle(1)

	case tea.KeyShiftTab:
		m.cycle(-1)

	case tea.KeyUp:
		if msg.Alt {
			m.browseCommands(-1)
		} else {
			m.browse(-1, nil)
		}

	case tea.KeyDown:
		switch {
		case msg.Alt:
			m.browseCommands(1)
		case !m.browse(1, nil):
			m.leaveHistory()
		}

	case tea.KeyShiftUp:
		m.browse(-1, inMode(m.mode))

	case tea.KeyShiftDown:
		if !m.browse(1, inMode(m.mode)) {
			m.leaveHistory()
		}

	case tea.KeyEsc:
		if m.comp.cycling {
			m.comp.cycling = false
			m.setInput(m.comp.saved)
			m.refresh(false)

			break
		}

		m.nav.detour = false
		m.switchTo(m.mode.other())

	default:
		return m.edit(msg)
	}

	return m, nil
}

// edit passes msg to the input line. Typed characters may auto-confirm a
// completion; any other key ends cycling and Alt browsing.
func (m model) edit(msg tea.KeyMsg) (model, tea.Cmd) {
	typed := msg.Type == tea.KeyRunes
	if !typed {
		m.comp.cycling, m.nav.detour = false, false
	}

	m.nav.pos = m.history.Len()

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	m.refresh(typed)

	return m, cmd
}

func inMode(mode inputMode) func(HistoryEntry) bool {
	return func(e HistoryEntry) bool { return e.Mode == mode }
}

// browse shows the next history entry in direction dir that keep accepts,
// switching to its mode. It reports whether one was found.
func (m *model) browse(dir int, keep func(HistoryEntry) bool) bool {
	i, ok := m.history.seek(m.nav.pos, dir, keep)
	if !ok {
		return false
	}

	e, err := m.history.At(i)
	if err != nil {
		return false
	}

	m.nav.pos = i

	if e.Mode != m.mode {
		m.switchTo(e.Mode)
	}

	m.setInput(draft{text: e.Line, cursor: len(e.Line)})
	m.refresh(false)

	return true
}

// leaveHistory returns from a history entry to an empty line.
func (m *model) leaveHistory() {
	if m.nav.pos >= m.history.Len() {
		return
	}

	m.nav.pos = m.history.Len()
	m.setInput(draft{})
	m.refresh(false)
}

// browseCommands browses command history from either mode. Running past
// either end restores the mode and line that were active when it began.
func (m *model) browseCommands(dir int) {
	if !m.nav.detour {
		m.nav.detour = true
		m.nav.origin = m.mode
		m.nav.saved = m.current()
		m.switchTo(modeCtrl)
	}

	if m.browse(dir, inMode(modeCtrl)) {
		return
	}

	m.nav.detour = false
	m.switchTo(m.nav.origin)
	m.setInput(m.nav.saved)
	m.nav.pos = m.history.Len()
	m.refresh(false)
}
