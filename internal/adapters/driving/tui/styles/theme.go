// Package styles provides colours and lipgloss styles for terminal output.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette.
type Theme struct {
	// Primary is the main accent colour, used for titles and the spinner.
	Primary lipgloss.Color

	// Secondary colours internal services.
	Secondary lipgloss.Color

	// External colours dependencies outside the repository.
	External lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	// Border is the table border colour.
	Border lipgloss.Color

	// BarStart and BarEnd are the progress bar gradient.
	BarStart string
	BarEnd   string
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:   lipgloss.Color("#7C3AED"), // Purple
		Secondary: lipgloss.Color("#06B6D4"), // Cyan
		External:  lipgloss.Color("#94A3B8"), // Slate
		Muted:     lipgloss.Color("#6C7086"), // Medium gray
		Success:   lipgloss.Color("#A6E3A1"), // Green
		Warning:   lipgloss.Color("#F9E2AF"), // Yellow
		Error:     lipgloss.Color("#F38BA8"), // Red
		Border:    lipgloss.Color("#45475A"), // Border gray
		BarStart:  "#7C3AED",
		BarEnd:    "#06B6D4",
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Spinner  lipgloss.Style
	Internal lipgloss.Style
	External lipgloss.Style

	// Normal, Selected and Subtitle are used by the run browser lists.
	Normal   lipgloss.Style
	Selected lipgloss.Style
	Subtitle lipgloss.Style
	Help     lipgloss.Style

	StatusBar lipgloss.Style

	// Header and Cell style table rows.
	Header lipgloss.Style
	Cell   lipgloss.Style
	Border lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Primary),

		Internal: lipgloss.NewStyle().
			Foreground(theme.Secondary),

		External: lipgloss.NewStyle().
			Foreground(theme.External).
			Italic(true),

		Normal: lipgloss.NewStyle(),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Secondary),

		Help: lipgloss.NewStyle().
			Foreground(theme.Muted).
			MarginTop(1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(theme.Border),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary).
			Padding(0, 1),

		Cell: lipgloss.NewStyle().
			Padding(0, 1),

		Border: lipgloss.NewStyle().
			Foreground(theme.Border),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
