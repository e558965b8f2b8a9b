package repl

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/digest/log"
)

func newTestModel(t *testing.T, entries ...HistoryEntry) model {
	t.Helper()

	h := NewHistory("")
	for _, e := range entries {
		if err := h.Add(e.Line, e.Mode); err != nil {
			t.Fatal(err)
		}
	}

	return newModel(t.Context(), newTestSession(t), h, log.Logger{})
}

func (m model) press(keys ...tea.KeyMsg) model {
	for _, k := range keys {
		m, _ = m.handleKey(k)
	}

	return m
}

func TestModel_Browse(t *testing.T) {
	var (
		up        = tea.KeyMsg{Type: tea.KeyUp}
		down      = tea.KeyMsg{Type: tea.KeyDown}
		shiftUp   = tea.KeyMsg{Type: tea.KeyShiftUp}
		shiftDown = tea.KeyMsg{Type: tea.KeyShiftDown}
		altUp     = tea.KeyMsg{Type: tea.KeyUp, Alt: true}
	)

	history := []HistoryEntry{
		{Line: "a = 1", Mode: modeEval},
		{Line: "digest", Mode: modeCtrl},
		{Line: "a + 1", Mode: modeEval},
	}

	tests := []struct {
		name     string
		typed    string
		keys     []tea.KeyMsg
		wantLine string
		wantMode inputMode
	}{
		{"latest", "", []tea.KeyMsg{up}, "a + 1", modeEval},
		{"switches mode", "", []tea.KeyMsg{up, up}, "digest", modeCtrl},
		{"stops at oldest", "", []tea.KeyMsg{up, up, up, up}, "a = 1", modeEval},
		{"back to fresh line", "", []tea.KeyMsg{up, up, down, down}, "", modeEval},
		{"same mode skips commands", "", []tea.KeyMsg{up, shiftUp}, "a = 1", modeEval},
		{"same mode past end", "", []tea.KeyMsg{up, up, up, shiftDown, shiftDown}, "", modeEval},
		{"commands only", "x", []tea.KeyMsg{altUp}, "digest", modeCtrl},
		{"commands restore", "x", []tea.KeyMsg{altUp, altUp}, "x", modeEval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, history...)
			m.setInput(draft{text: tt.typed, cursor: len(tt.typed)})

			m = m.press(tt.keys...)

			if got := m.input.Value(); got != tt.wantLine || m.mode != tt.wantMode {
				t.Errorf("line = %q in mode %d, want %q in mode %d",
					got, m.mode, tt.wantLine, tt.wantMode)
			}
		})
	}
}

func TestModel_ToggleKeepsDrafts(t *testing.T) {
	m := newTestModel(t)
	esc := tea.KeyMsg{Type: tea.KeyEsc}

	m.setInput(draft{text: "a +", cursor: 3})
	m = m.press(esc)

	if m.mode != modeCtrl || m.input.Value() != "" {
		t.Fatalf("after Esc: mode %d line %q", m.mode, m.input.Value())
	}

	m.setInput(draft{text: "watch", cursor: 5})
	m = m.press(esc)

	if m.mode != modeEval || m.input.Value() != "a +" {
		t.Errorf("after second Esc: mode %d line %q", m.mode, m.input.Value())
	}

	if m.drafts[modeCtrl].text != "watch" {
		t.Errorf("command draft = %q, want watch", m.drafts[modeCtrl].text)
	}
}

func TestModel_Cycle(t *testing.T) {
	m := newTestModel(t)
	m.setInput(draft{text: "s", cursor: 1})
	m.refresh(false)

	if len(m.comp.matches) < 2 {
		t.Fatalf("want several matches for %q, got %v", "s", m.comp.matches)
	}

	first, last := m.comp.matches[0].Str, m.comp.matches[len(m.comp.matches)-1].Str

	m = m.press(tea.KeyMsg{Type: tea.KeyTab})
	if got := m.input.Value(); got != first {
		t.Errorf("Tab: line = %q, want %q", got, first)
	}

	m = m.press(tea.KeyMsg{Type: tea.KeyShiftTab})
	if got := m.input.Value(); got != last {
		t.Errorf("Shift+Tab: line = %q, want %q", got, last)
	}

	m = m.press(tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.input.Value(); got != "s" || m.comp.cycling {
		t.Errorf("Esc: line = %q cycling = %v, want the original word", got, m.comp.cycling)
	}
}

func TestModel_Submit(t *testing.T) {
	tests := []struct {
		name      string
		mode      inputMode
		line      string
		wantEntry HistoryEntry
		watches   int
	}{
		{"eval", modeEval, "n = 1", HistoryEntry{Line: "n = 1", Mode: modeEval}, 0},
		{"colon command", modeEval, ":watch server.debug", HistoryEntry{Line: "watch server.debug", Mode: modeCtrl}, 1},
		{"command mode", modeCtrl, "w items", HistoryEntry{Line: "w items", Mode: modeCtrl}, 1},
		{"one-time expression", modeCtrl, "::server.debug", HistoryEntry{Line: "::server.debug", Mode: modeEval}, 0},
		{"unknown command", modeCtrl, "bogus", HistoryEntry{Line: "bogus", Mode: modeCtrl}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t)
			m.mode = tt.mode
			m.setInput(draft{text: tt.line, cursor: len(tt.line)})

			m, _ = m.submit()

			if m.input.Value() != "" {
				t.Errorf("line not cleared: %q", m.input.Value())
			}

			if got, err := m.history.At(m.history.Len() - 1); err != nil || got != tt.wantEntry {
				t.Errorf("last history entry = %+v (%v), want %+v", got, err, tt.wantEntry)
			}

			if got := len(m.sess.listWatches()); got != tt.watches {
				t.Errorf("%d watches, want %d", got, tt.watches)
			}
		})
	}
}

func TestLookupCommand(t *testing.T) {
	tests := []struct {
		word   string
		want   string
		wantOK bool
	}{
		{"watch", "watch", true},
		{"w", "watch", true},
		{"list", "keys", true},
		{"exit", "quit", true},
		{"watchez", "", false},
	}

	for _, tt := range tests {
		got, ok := lookupCommand(tt.word)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("lookupCommand(%q) = %q, %v, want %q, %v", tt.word, got, ok, tt.want, tt.wantOK)
		}
	}
}
