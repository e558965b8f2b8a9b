package repl

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/digest/log"
	"github.com/ardnew/digest/scope"
)

// inputMode selects how a submitted line is interpreted.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

func (i inputMode) other() inputMode {
	if i == modeEval {
		return modeCtrl
	}

	return modeEval
}

var prompts = [...]struct {
	text  string
	style lipgloss.Style
}{
	modeEval: {"➜ ", lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)},
	modeCtrl: {" :", lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)},
}

func (i inputMode) prompt() string {
	p := prompts[i]

	return p.style.Render(p.text)
}

func (i inputMode) hint() string {
	if i == modeCtrl {
		return "commands: " + commandList()
	}

	return "type an expression, or Esc for commands"
}

var (
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// echo renders a submitted line the way it appeared at the prompt.
func echo(mode inputMode, line string) tea.Cmd {
	return tea.Println(mode.prompt() + inputStyle.Render(line))
}

func failure(err error) tea.Cmd {
	return tea.Println(errorStyle.Render("error: " + err.Error()))
}

// Run starts the REPL on root. Work that root defers is run on loop after
// every evaluation. History is kept in cacheDir, or only in memory when
// cacheDir is empty.
func Run(
	ctx context.Context,
	root *scope.Scope,
	loop *scope.Loop,
	cacheDir string,
	logger log.Logger,
) (err error) {
	if root == nil || loop == nil {
		return ErrNoScope
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer func() { cancel(err) }()

	logger = logger.Named("repl")

	var path string
	if cacheDir != "" {
		path = filepath.Join(cacheDir, baseHistory)
	}

	history := NewHistory(path)
	if loadErr := history.Load(); loadErr != nil {
		logger.WarnContext(ctx, "history unavailable", slog.Any("error", loadErr))
	}

	logger.TraceContext(ctx, "repl start",
		slog.String("history", path),
		slog.Int("entries", history.Len()),
		slog.Int("keys", len(root.Keys())),
	)

	_, err = tea.NewProgram(
		newModel(ctx, newSession(root, loop), history, logger),
		tea.WithContext(ctx),
	).Run()

	return err
}
