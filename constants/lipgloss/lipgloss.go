package lipgloss

import "github.com/charmbracelet/lipgloss"

// Style is re-exported so callers can pass styles around without a second
// lipgloss import.
type Style = lipgloss.Style

// Shared terminal styles for command output.
var (
	Red     = lipgloss.NewStyle().Foreground(lipgloss.Color("#E84855"))
	Green   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC71"))
	Yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F1C40F"))
	BlueSky = lipgloss.NewStyle().Foreground(lipgloss.Color("#3498DB"))
	Info    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3498DB")).
			Padding(0, 1)
)
