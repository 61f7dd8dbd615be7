package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/knightqmd/scheduler-app/internal/cli/formatter"
)

// workDoneMsg tells the spinner that the background call returned.
type workDoneMsg struct{}

// spinnerModel shows a spinner until workDoneMsg arrives or the user presses
// Ctrl+C or Esc.
type spinnerModel struct {
	spinner   spinner.Model
	message   string
	done      bool
	cancelled bool
}

func newSpinnerModel(message string) spinnerModel {
	return spinnerModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(formatter.StylePurple),
		),
		message: message,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workDoneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			m.cancelled = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return "  " + m.spinner.View() + " " + formatter.Dim(m.message) + "\n"
}

// withSpinner runs fn, animating a spinner on out while it runs when
// interactive is set. Cancelling the spinner cancels fn's context; fn's
// result is still returned.
func withSpinner[T any](ctx context.Context, interactive bool, out io.Writer, message string, fn func(context.Context) (T, error)) (T, error) {
	if !interactive {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)

	p := tea.NewProgram(newSpinnerModel(message), tea.WithOutput(out))
	go func() {
		v, err := fn(ctx)
		done <- result{v: v, err: err}
		p.Send(workDoneMsg{})
	}()

	final, runErr := p.Run()
	if m, ok := final.(spinnerModel); runErr != nil || (ok && m.cancelled) {
		cancel()
	}
	r := <-done
	return r.v, r.err
}
