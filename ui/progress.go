// Package ui shows the progress of a request in the terminal while it runs.
package ui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/parley/internal/pipeline"
)

var (
	stageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EE6FF8"))
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	unitStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"})
)

// EventMsg carries a pipeline progress event into the program.
type EventMsg pipeline.Event

// DoneMsg tells the program that processing has finished.
type DoneMsg struct{}

// Model is a single-line progress view: a spinner, the current stage and
// the most recent sentence spoken.
type Model struct {
	spinner spinner.Model
	stage   pipeline.Stage
	units   int
	last    string
	width   int
	done    bool

	cancel context.CancelFunc
}

// NewModel returns a Model. cancel is called when the user interrupts.
func NewModel(cancel context.CancelFunc) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = stageStyle

	return Model{
		spinner: sp,
		stage:   pipeline.StageIdle,
		width:   80,
		cancel:  cancel,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			if m.cancel != nil {
				m.cancel()
			}
			m.done = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case EventMsg:
		m.stage = msg.Stage
		if msg.Unit > 0 {
			m.units = msg.Unit
			m.last = msg.Text
		}

	case DoneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	if m.done {
		return ""
	}

	line := m.spinner.View() + " " + stageStyle.Render(m.stage.String())
	if m.units > 0 {
		line += " " + countStyle.Render(fmt.Sprintf("%d", m.units))
		if room := m.width - lipgloss.Width(line) - 3; room > 10 {
			line += " " + unitStyle.Render(truncate.StringWithTail(m.last, uint(room), "…")) //nolint:gosec
		}
	}
	return line + "\n"
}

// Stage returns the last stage reported.
func (m Model) Stage() pipeline.Stage {
	return m.stage
}

// ProcessFunc runs a request, reporting progress through the given
// callback.
type ProcessFunc func(ctx context.Context, progress pipeline.ProgressFunc) (*pipeline.Result, error)

// Run shows progress on out while process runs and returns its outcome.
// Interrupting the view cancels the context passed to process.
func Run(ctx context.Context, out io.Writer, process ProcessFunc) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(cancel), tea.WithOutput(out), tea.WithInput(nil))

	type outcome struct {
		res *pipeline.Result
		err error
	}
	finished := make(chan outcome, 1)

	go func() {
		res, err := process(ctx, func(e pipeline.Event) { p.Send(EventMsg(e)) })
		finished <- outcome{res, err}
		p.Send(DoneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		log.Warn("Progress view failed", "error", err)
		cancel()
	}

	o := <-finished
	return o.res, o.err
}
