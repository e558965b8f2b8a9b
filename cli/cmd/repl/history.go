package repl

import (
	"bufio"
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

const (
	baseHistory = "history.utf8"
	maxHistory  = 1000
)

// HistoryEntry is one line submitted at the prompt and the mode it was
// submitted in.
type HistoryEntry struct {
	Line string
	Mode inputMode
}

var modeTags = [...]string{modeEval: "E:", modeCtrl: "C:"}

// String encodes e as a line of the history file, without the newline.
func (e HistoryEntry) String() string { return modeTags[e.Mode] + e.Line }

// parseEntry decodes a line of the history file. Untagged lines are eval
// entries.
func parseEntry(line string) HistoryEntry {
	for mode, tag := range modeTags {
		if s, ok := strings.CutPrefix(line, tag); ok {
			return HistoryEntry{Line: s, Mode: inputMode(mode)}
		}
	}

	return HistoryEntry{Line: line, Mode: modeEval}
}

// History is the list of submitted lines, oldest first, mirrored to a file.
// Each (line, mode) pair appears at most once; resubmitting moves it to the
// end. A History with an empty path lives only in memory.
type History struct {
	mu      sync.RWMutex
	path    string
	entries []HistoryEntry
}

// NewHistory returns an empty History backed by path.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Load replaces the entries with the contents of the history file. A
// missing file is not an error.
func (h *History) Load() error {
	if h.path == "" {
		return nil
	}

	data, err := os.ReadFile(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}

	var loaded []HistoryEntry

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			loaded = append(loaded, parseEntry(line))
		}
	}

	h.mu.Lock()
	h.entries = trim(loaded)
	h.mu.Unlock()

	return sc.Err()
}

// Add records line under mode and persists the change.
func (h *History) Add(line string, mode inputMode) error {
	e := HistoryEntry{Line: strings.TrimSpace(line), Mode: mode}
	if e.Line == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.entries)
	if n > 0 && h.entries[n-1] == e {
		return nil
	}

	moved := false
	if i := slices.Index(h.entries, e); i >= 0 {
		h.entries = slices.Delete(h.entries, i, i+1)
		moved = true
	}

	h.entries = append(h.entries, e)

	if len(h.entries) > maxHistory {
		h.entries = trim(h.entries)
		moved = true
	}

	switch {
	case h.path == "":
		return nil
	case moved:
		return h.store()
	default:
		return h.append(e)
	}
}

// At returns the entry at index i, where 0 is the oldest.
func (h *History) At(i int) (HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return HistoryEntry{}, ErrOutOfBounds
	}

	return h.entries[i], nil
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Entries returns a copy of all entries.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return slices.Clone(h.entries)
}

// seek walks from index from in direction step (+1 or -1) and returns the
// index of the first entry that keep accepts. A nil keep accepts all.
func (h *History) seek(from, step int, keep func(HistoryEntry) bool) (int, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i := from + step; i >= 0 && i < len(h.entries); i += step {
		if keep == nil || keep(h.entries[i]) {
			return i, true
		}
	}

	return 0, false
}

func (h *History) append(e HistoryEntry) error {
	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}

	_, err = f.WriteString(e.String() + "\n")

	return errors.Join(err, f.Close())
}

// store replaces the history file with the current entries. The caller
// holds h.mu.
func (h *History) store() error {
	var buf bytes.Buffer
	for _, e := range h.entries {
		buf.WriteString(e.String())
		buf.WriteByte('\n')
	}

	tmp, err := os.CreateTemp(filepath.Dir(h.path), baseHistory+".*")
	if err != nil {
		return err
	}

	_, err = tmp.Write(buf.Bytes())
	if err = errors.Join(err, tmp.Close()); err == nil {
		err = os.Rename(tmp.Name(), h.path)
	}

	if err != nil {
		_ = os.Remove(tmp.Name())
	}

	return err
}

func trim(entries []HistoryEntry) []HistoryEntry {
	if n := len(entries); n > maxHistory {
		return slices.Clone(entries[n-maxHistory:])
	}

	return entries
}
