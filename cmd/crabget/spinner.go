package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

type fetchedMsg struct {
	res *result
	err error
}

type spinnerModel struct {
	spinner spinner.Model
	label   string
	work    func() (*result, error)
	res     *result
	err     error
	done    bool
}

func newSpinnerModel(label string, work func() (*result, error)) *spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return &spinnerModel{spinner: s, label: label, work: work}
}

func (m *spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		res, err := m.work()
		return fetchedMsg{res: res, err: err}
	})
}

func (m *spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchedMsg:
		m.res, m.err, m.done = msg.res, msg.err, true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err = fmt.Errorf("interrupted")
			m.done = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *spinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.label)
}

// withSpinner runs work while showing a spinner on out.
func withSpinner(out io.Writer, label string, work func() (*result, error)) (*result, error) {
	m := newSpinnerModel(label, work)
	final, err := tea.NewProgram(m, tea.WithOutput(out)).Run()
	if err != nil {
		return nil, fmt.Errorf("spinner: %w", err)
	}
	fm := final.(*spinnerModel)
	return fm.res, fm.err
}
