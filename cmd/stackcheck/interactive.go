package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/stack-verifier/diag"
	"github.com/wippyai/stack-verifier/verify"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	stackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// chrome is the number of lines around the viewport: title, blank, the
// two stack lines, blank, result and help.
const chrome = 8

type interactiveModel struct {
	viewport    viewport.Model
	method      string
	summary     string
	listing     []string
	transitions []verify.Transition
	failedAt    int
	current     int
	failed      bool
	ready       bool
}

func newInteractiveModel(method string, res verify.Result, trace *verify.Trace, listing []string) *interactiveModel {
	m := &interactiveModel{
		method:      method,
		listing:     listing,
		transitions: trace.Transitions(),
		failedAt:    -1,
	}
	if f, ok := verify.AsFailure(res); ok {
		m.failed = true
		m.failedAt = f.Instruction
		m.summary = diag.Message(method, res)
	} else {
		m.summary = "verified"
	}
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := msg.Height - chrome
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "left", "h":
			if m.current > 0 {
				m.current--
				m.refresh()
			}
			return m, nil

		case "right", "l":
			if m.current < len(m.transitions)-1 {
				m.current++
				m.refresh()
			}
			return m, nil

		case "home", "g":
			m.current = 0
			m.refresh()
			return m, nil

		case "end", "G":
			if len(m.transitions) > 0 {
				m.current = len(m.transitions) - 1
				m.refresh()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// currentInstruction is the instruction of the selected transition, or -1.
func (m *interactiveModel) currentInstruction() int {
	if len(m.transitions) == 0 {
		return -1
	}
	return m.transitions[m.current].Instruction
}

func (m *interactiveModel) refresh() {
	if !m.ready {
		return
	}
	at := m.currentInstruction()

	var b strings.Builder
	for i, l := range m.listing {
		line := fmt.Sprintf("%4d  %s", i, l)
		switch {
		case i == at:
			b.WriteString(selectedStyle.Render("> " + line))
		case i == m.failedAt:
			b.WriteString(errorStyle.Render("! " + line))
		default:
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())

	if at >= 0 && (at < m.viewport.YOffset || at >= m.viewport.YOffset+m.viewport.Height) {
		m.viewport.SetYOffset(at - m.viewport.Height/2)
	}
}

func (m *interactiveModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Stack Check"))
	b.WriteString(" ")
	b.WriteString(m.method)
	if len(m.transitions) > 0 {
		b.WriteString(fmt.Sprintf("  transition %d/%d", m.current+1, len(m.transitions)))
	}
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if len(m.transitions) > 0 {
		tr := m.transitions[m.current]
		b.WriteString("before " + stackStyle.Render(tr.Before.String()) + "\n")
		b.WriteString("after  " + stackStyle.Render(tr.After.String()) + "\n")
	} else {
		b.WriteString("no transitions\n\n")
	}
	b.WriteString("\n")

	if m.failed {
		b.WriteString(errorStyle.Render(m.summary))
	} else {
		b.WriteString(resultStyle.Render(m.method + ": " + m.summary))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("←/→ step • ↑/↓ scroll • g/G first/last • q quit"))

	return b.String()
}

func runInteractive(method string, res verify.Result, trace *verify.Trace, listing []string) error {
	p := tea.NewProgram(newInteractiveModel(method, res, trace, listing), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
