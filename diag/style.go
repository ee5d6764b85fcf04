package diag

import "github.com/charmbracelet/lipgloss"

// Style colors parts of a dump. The zero Style renders plain text.
type Style struct {
	Header     lipgloss.Style
	Annotation lipgloss.Style
	Relevant   lipgloss.Style
	enabled    bool
}

// Colored returns the terminal style used by the stackcheck CLI.
func Colored() Style {
	return Style{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB")),
		Annotation: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")),
		Relevant: lipgloss.NewStyle().
			Bold(true),
		enabled: true,
	}
}

func (s Style) header(str string) string {
	if !s.enabled {
		return str
	}
	return s.Header.Render(str)
}

func (s Style) annotation(str string) string {
	if !s.enabled {
		return str
	}
	return s.Annotation.Render(str)
}

func (s Style) relevant(str string) string {
	if !s.enabled {
		return str
	}
	return s.Relevant.Render(str)
}
