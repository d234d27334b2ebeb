package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/janekbaraniewski/glmusage/internal/core"
	"github.com/janekbaraniewski/glmusage/internal/statusbar"
)

const (
	maxContentWidth = 100
	sparkHeight     = 3
	rawTextLines    = 4
)

func (m Model) View() string {
	w := lo.Clamp(m.width, 40, maxContentWidth)
	inner := w - 4

	var sections []string
	sections = append(sections, m.renderHeader(inner))
	if banner := m.renderErrorBanner(inner); banner != "" {
		sections = append(sections, banner)
	}

	if m.snap == nil {
		sections = append(sections, dimStyle.Render("Fetching usage data..."))
	} else {
		sections = append(sections,
			m.renderQuota(inner),
			m.renderReset(),
			m.renderUsage("Model usage (24h)", m.snap.ModelUsage, inner),
			m.renderUsage("Tool usage (24h)", m.snap.ToolUsage, inner),
			m.renderHistory(inner),
		)
	}

	body := cardStyle.Width(w - 2).Render(strings.Join(lo.Compact(sections), "\n\n"))
	return body + "\n" + m.renderFooter(w)
}

func (m Model) renderHeader(w int) string {
	title := headerBrandStyle.Render("GLM Coding Plan")
	if m.snap != nil {
		title += labelStyle.Render("  " + string(m.snap.Platform))
	}

	pill := statusPillPausedStyle.Render("PAUSED")
	if m.running {
		pill = statusPillOKStyle.Render("POLLING")
	}
	if m.refreshing {
		pill += " " + dimStyle.Render("refreshing...")
	}

	gap := w - lipgloss.Width(title) - lipgloss.Width(pill)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + pill
}

func (m Model) renderErrorBanner(w int) string {
	if m.errMsg == "" {
		return ""
	}
	style := errorBannerStyle
	msg := "Error: " + m.errMsg
	if m.authError {
		style = authBannerStyle
		msg = "Authentication failed. Run `glmusage config set-token`. " + m.errMsg
	}
	return style.Render(truncateText(msg, w-2))
}

func (m Model) renderQuota(w int) string {
	var sb strings.Builder
	sb.WriteString(sectionHeaderStyle.Render("Quota"))

	q := m.snap.QuotaLimit
	if len(q.Limits) == 0 {
		sb.WriteString("\n")
		if q.Payload != nil && q.Payload.IsText() {
			sb.WriteString(renderRawText(q.Payload.Text, w))
		} else {
			sb.WriteString(dimStyle.Render("No quota information"))
		}
		return sb.String()
	}

	labelW := 0
	for _, e := range q.Limits {
		labelW = max(labelW, lipgloss.Width(entryLabel(e)))
	}
	gaugeW := lo.Clamp(w-labelW-10, 10, 50)

	for _, e := range q.Limits {
		sb.WriteString("\n")
		sb.WriteString(labelStyle.Render(fitAnsiWidth(entryLabel(e), labelW)))
		sb.WriteString("  ")
		sb.WriteString(RenderUsageGauge(e.Percentage, gaugeW, m.warnPct, m.critPct))

		if e.CurrentUsage != nil && e.Total != nil {
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat(" ", labelW+2))
			sb.WriteString(valueStyle.Render(fmt.Sprintf("%s / %s calls", formatNumber(*e.CurrentUsage), formatNumber(*e.Total))))
		}
		for _, line := range usageDetailLines(e.UsageDetails) {
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat(" ", labelW+4))
			sb.WriteString(dimStyle.Render(truncateText(line, w-labelW-4)))
		}
	}
	return sb.String()
}

func entryLabel(e core.QuotaEntry) string {
	if e.Type == "" {
		return string(e.Kind)
	}
	return e.Type
}

// usageDetailLines renders the per-tool breakdown of the MCP quota.
func usageDetailLines(details any) []string {
	rows, ok := details.([]any)
	if !ok {
		return nil
	}
	var lines []string
	for _, item := range rows {
		row, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := row["modelCode"].(string)
		if name == "" {
			name, _ = row["model"].(string)
		}
		usage, ok := row["usage"].(float64)
		if name == "" || !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", name, formatNumber(usage)))
	}
	return lines
}

func (m Model) renderReset() string {
	head := sectionHeaderStyle.Render("Token reset")
	if m.nextReset == nil {
		return head + "\n" + dimStyle.Render("No token quota window")
	}
	remaining := m.nextReset.Sub(m.now())
	if remaining <= 0 {
		return head + "\n" + valueStyle.Render("Token quota has reset")
	}
	return head + "\n" +
		valueStyle.Render("in "+statusbar.FormatCountdown(remaining)) +
		dimStyle.Render(fmt.Sprintf("  (%s, rolling 5h window)", m.nextReset.Format("01-02 15:04")))
}

func (m Model) renderUsage(title string, p core.Payload, w int) string {
	head := sectionHeaderStyle.Render(title)
	if p.IsText() {
		return head + "\n" + renderRawText(p.Text, w)
	}
	totals := p.Totals()
	if len(totals) == 0 {
		return head + "\n" + dimStyle.Render("No usage data")
	}
	labelW := 0
	for _, t := range totals {
		labelW = max(labelW, len(t.Name))
	}
	lines := lo.Map(totals, func(t core.UsageTotal, _ int) string {
		return labelStyle.Render(fitAnsiWidth(t.Name, labelW)) + "  " + valueStyle.Render(formatNumber(t.Value))
	})
	return head + "\n" + strings.Join(lines, "\n")
}

func renderRawText(text string, w int) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > rawTextLines {
		lines = append(lines[:rawTextLines], "…")
	}
	for i, l := range lines {
		lines[i] = dimStyle.Render(truncateText(l, w))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHistory(w int) string {
	values := tokenSeries(m.history)
	head := sectionHeaderStyle.Render("Token usage history (24h)")
	if len(values) < 2 {
		return head + "\n" + dimStyle.Render(fmt.Sprintf("%d data point(s), waiting for more", len(values)))
	}
	minV, maxV := lo.Min(values), lo.Max(values)
	return head + "\n" + renderSparkline(values, w, sparkHeight) + "\n" +
		dimStyle.Render(fmt.Sprintf("%d changes · min %s%% · max %s%%",
			len(values), statusbar.FormatPercent(minV), statusbar.FormatPercent(maxV)))
}

func (m Model) renderFooter(w int) string {
	keys := []string{
		helpKeyStyle.Render("r") + helpStyle.Render(" refresh"),
		helpKeyStyle.Render("s") + helpStyle.Render(" start/stop"),
		helpKeyStyle.Render("q") + helpStyle.Render(" quit"),
	}
	left := m.indicator
	if !m.updatedAt.IsZero() {
		left = strings.TrimSpace(left + "  " + dimStyle.Render("updated "+m.updatedAt.Format("15:04:05")))
	}
	right := strings.Join(keys, helpStyle.Render(" · "))

	gap := w - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return fitAnsiWidth(left, w) + "\n" + right
	}
	return left + strings.Repeat(" ", gap) + right
}

func formatNumber(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case v >= 10_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	case v == float64(int64(v)):
		return fmt.Sprintf("%d", int64(v))
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
