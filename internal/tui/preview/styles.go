package preview

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	primaryColor = lipgloss.Color("99")  // Purple
	successColor = lipgloss.Color("42")  // Green
	warningColor = lipgloss.Color("226") // Yellow
	errorColor   = lipgloss.Color("196") // Red
	mutedColor   = lipgloss.Color("245") // Gray
	accentColor  = lipgloss.Color("212") // Pink

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			PaddingRight(2)

	headerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(mutedColor).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Bold(true).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	presetStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			PaddingRight(2)

	activePresetStyle = lipgloss.NewStyle().
				Foreground(accentColor).
				Bold(true).
				PaddingRight(2)

	textBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	focusedTextBoxStyle = textBoxStyle.
				BorderForeground(primaryColor)

	errorBannerStyle = lipgloss.NewStyle().
				Foreground(errorColor).
				Background(lipgloss.Color("52")). // Dark red background
				Bold(true).
				Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(successColor)

	advisoryStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	footerStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(mutedColor)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(primaryColor)
)

// swatchStyle paints a block in a theme color.
func swatchStyle(hex string) lipgloss.Style {
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Width(4)
}

// themeTitleStyle renders the theme name in its own primary color.
func themeTitleStyle(hex string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(hex))
}

// ApplyMaxWidth applies a maximum width to all relevant styles.
func ApplyMaxWidth(width int) {
	headerStyle = headerStyle.Width(max(width-2, 10))
	footerStyle = footerStyle.Width(max(width-2, 10))
}
