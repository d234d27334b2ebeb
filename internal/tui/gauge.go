package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// RenderUsageGauge produces a text-based gauge that fills from left to right
// as usage increases (0=empty, 100=full). warnPct and critPct are usage
// percentages at which the colour shifts green→yellow→red. A negative value
// renders a dimmed "N/A" track.
func RenderUsageGauge(usedPercent float64, width int, warnPct, critPct float64) string {
	if width < 5 {
		width = 5
	}

	if usedPercent < 0 {
		return gaugeTrackStyle.Render(strings.Repeat("─", width)) + dimStyle.Render(" N/A")
	}
	if usedPercent > 100 {
		usedPercent = 100
	}

	filled := int(usedPercent / 100 * float64(width))
	if filled < 1 && usedPercent > 0 {
		filled = 1
	}
	empty := width - filled

	color := gaugeColor(usedPercent, warnPct, critPct)
	filledStyle := lipgloss.NewStyle().Foreground(color)
	trackStyle := lipgloss.NewStyle().Foreground(colorSurface1)

	bar := filledStyle.Render(strings.Repeat("━", filled)) +
		trackStyle.Render(strings.Repeat("━", empty))

	pctStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	return fmt.Sprintf("%s %s", bar, pctStyle.Render(fmt.Sprintf("%5.1f%%", usedPercent)))
}

func gaugeColor(usedPercent, warnPct, critPct float64) lipgloss.Color {
	switch {
	case usedPercent >= critPct:
		return colorCrit
	case usedPercent >= warnPct:
		return colorWarn
	default:
		return colorOK
	}
}

// fitAnsiWidth cuts or pads a styled string to exactly width cells.
func fitAnsiWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	out := ansi.Cut(s, 0, width)
	if pad := width - lipgloss.Width(out); pad > 0 {
		out += strings.Repeat(" ", pad)
	}
	return out
}

// truncateText shortens plain or styled text to width cells with an ellipsis.
func truncateText(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}
