package tui

import "github.com/charmbracelet/lipgloss"

// ─── Color Palette (Catppuccin Mocha) ───────────────────────────────────────

var (
	colorMantle   = lipgloss.Color("#181825") // deeper bg
	colorSurface1 = lipgloss.Color("#45475A") // lighter surface
	colorText     = lipgloss.Color("#CDD6F4") // primary text
	colorSubtext  = lipgloss.Color("#A6ADC8") // secondary text
	colorDim      = lipgloss.Color("#585B70") // muted, borders

	colorAccent   = lipgloss.Color("#CBA6F7") // mauve – primary accent
	colorBlue     = lipgloss.Color("#89B4FA") // section headers
	colorSapphire = lipgloss.Color("#74C7EC") // keys
	colorGreen    = lipgloss.Color("#A6E3A1") // OK / healthy
	colorYellow   = lipgloss.Color("#F9E2AF") // warning
	colorRed      = lipgloss.Color("#F38BA8") // error / critical
	colorPeach    = lipgloss.Color("#FAB387") // auth issues
	colorTeal     = lipgloss.Color("#94E2D5") // chart
	colorLavender = lipgloss.Color("#B4BEFE") // titles

	colorOK   = colorGreen
	colorWarn = colorYellow
	colorCrit = colorRed
)

// ─── Reusable Styles ────────────────────────────────────────────────────────

var (
	headerBrandStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorAccent)

	sectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorBlue)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorSapphire).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorSubtext)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorText)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorLavender)

	gaugeTrackStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	sparkStyle = lipgloss.NewStyle().
			Foreground(colorTeal)

	statusPillOKStyle = lipgloss.NewStyle().
				Foreground(colorMantle).
				Background(colorGreen).
				Bold(true).
				Padding(0, 1)

	statusPillPausedStyle = lipgloss.NewStyle().
				Foreground(colorMantle).
				Background(colorSurface1).
				Bold(true).
				Padding(0, 1)

	errorBannerStyle = lipgloss.NewStyle().
				Foreground(colorMantle).
				Background(colorRed).
				Bold(true).
				Padding(0, 1)

	authBannerStyle = lipgloss.NewStyle().
			Foreground(colorMantle).
			Background(colorPeach).
			Bold(true).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface1).
			Padding(0, 1)
)
