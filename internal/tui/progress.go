package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vvka-141/pgbulk/pkg/pgbulk"
)

// runDoneMsg signals that the load run finished, successfully or not.
type runDoneMsg struct {
	result *pgbulk.RunResult
	err    error
}

// progressModel shows a spinner while a load run executes in the background.
type progressModel struct {
	spinner  spinner.Model
	title    string
	cancel   context.CancelFunc
	quitting bool
	canceled bool

	result *pgbulk.RunResult
	err    error
}

func newProgressModel(title string, cancel context.CancelFunc) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SuccessStyle
	return progressModel{
		spinner: s,
		title:   title,
		cancel:  cancel,
	}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			// Cancel the run but keep spinning until it reports back, so
			// rollback and error logging finish before the screen clears.
			m.canceled = true
			m.cancel()
		}
		return m, nil

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m progressModel) View() string {
	if m.quitting {
		return ""
	}
	line := fmt.Sprintf("%s %s", m.spinner.View(), MessageStyle.Render(m.title))
	if m.canceled {
		line += MutedStyle.Render(" (canceling, waiting for rollback)")
	}
	return line + "\n"
}

// RunWithProgress executes run while displaying an animated spinner. In
// non-interactive mode the spinner is skipped and run executes directly.
// Ctrl+C cancels ctx; the function still waits for run to return so the
// caller sees the real outcome.
func RunWithProgress(ctx context.Context, title string, run func(context.Context) (*pgbulk.RunResult, error)) (*pgbulk.RunResult, error) {
	if !IsInteractive() {
		return run(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(title, cancel))
	go func() {
		result, err := run(ctx)
		p.Send(runDoneMsg{result: result, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		// The terminal broke underneath us; the run outcome is lost.
		return nil, fmt.Errorf("progress display failed: %w", err)
	}

	m := final.(progressModel)
	return m.result, m.err
}
