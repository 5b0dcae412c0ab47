// Package prompt asks the operator for text on the terminal.
package prompt

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).MarginLeft(2)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginLeft(2)
)

type model struct {
	label     string
	input     textinput.Model
	done      bool
	cancelled bool
}

func newModel(label string) model {
	ti := textinput.New()
	ti.Placeholder = "command line"
	ti.CharLimit = 512
	ti.Width = 60
	ti.Focus()
	return model{label: label, input: ti}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.done = true
			m.cancelled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s\n%s\n%s\n",
		labelStyle.Render(m.label),
		m.input.View(),
		helpStyle.Render("enter: accept • esc: cancel"))
}

// Terminal prompts on the controlling terminal.
type Terminal struct {
	opts []tea.ProgramOption
}

func NewTerminal(opts ...tea.ProgramOption) *Terminal {
	return &Terminal{opts: opts}
}

// Ask blocks until the operator accepts or cancels the prompt, or ctx ends.
func (t *Terminal) Ask(ctx context.Context, label string) (string, bool, error) {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, t.opts...)
	final, err := tea.NewProgram(newModel(label), opts...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", false, nil
		}
		return "", false, fmt.Errorf("running prompt: %w", err)
	}
	m := final.(model)
	if m.cancelled {
		return "", false, nil
	}
	return m.input.Value(), true, nil
}
