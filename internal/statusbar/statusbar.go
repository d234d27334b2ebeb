// Package statusbar renders the compact one-line usage indicator.
package statusbar

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/janekbaraniewski/glmusage/internal/core"
)

type Level int

const (
	LevelInit Level = iota
	LevelOK
	LevelWarn
	LevelCrit
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelOK:
		return "ok"
	case LevelWarn:
		return "warn"
	case LevelCrit:
		return "crit"
	case LevelError:
		return "error"
	default:
		return "init"
	}
}

// Thresholds are token-quota percentages at which the indicator changes
// colour. A value is in a level when it is >= the threshold.
type Thresholds struct {
	Warn float64
	Crit float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Warn: 70, Crit: 90}
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")).Bold(true)
	critStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6ADC8"))
)

// Indicator is a Display that keeps the current indicator line and detail
// lines. Every change is forwarded to the sink, if one is set.
type Indicator struct {
	thresholds Thresholds
	sink       func(line string)
	now        func() time.Time

	mu        sync.Mutex
	text      string
	level     Level
	detail    []string
	snap      *core.UsageSnapshot
	nextReset *time.Time
	updatedAt time.Time
}

func New(th Thresholds, sink func(line string)) *Indicator {
	if th.Warn <= 0 {
		th.Warn = DefaultThresholds().Warn
	}
	if th.Crit <= 0 {
		th.Crit = DefaultThresholds().Crit
	}
	return &Indicator{
		thresholds: th,
		sink:       sink,
		now:        time.Now,
		text:       core.PlatformZAI.Label() + ": initializing...",
		detail:     []string{"GLM usage monitor", "fetching data..."},
	}
}

func (i *Indicator) OnUpdate(snap core.UsageSnapshot, _ []core.HistoryEntry, nextReset *time.Time) {
	label := snap.Platform.Label()

	i.mu.Lock()
	i.snap = &snap
	i.nextReset = nextReset
	i.updatedAt = i.now()
	if entry, ok := snap.QuotaLimit.TokenEntry(); ok {
		i.text = fmt.Sprintf("%s: %s%%", label, FormatPercent(entry.Percentage))
		i.level = i.levelFor(entry.Percentage)
	} else {
		i.text = label + ": no quota"
		i.level = LevelOK
	}
	i.detail = i.buildDetailLocked()
	rendered := i.renderLocked()
	i.mu.Unlock()

	i.emit(rendered)
}

func (i *Indicator) OnError(message string) {
	i.mu.Lock()
	label := core.PlatformZAI.Label()
	if i.snap != nil {
		label = i.snap.Platform.Label()
	}
	i.text = label + ": error"
	i.level = LevelError
	i.detail = []string{"Error: " + message, "run `glmusage status` for details"}
	rendered := i.renderLocked()
	i.mu.Unlock()

	i.emit(rendered)
}

func (i *Indicator) emit(line string) {
	if i.sink != nil {
		i.sink(line)
	}
}

func (i *Indicator) levelFor(pct float64) Level {
	switch {
	case pct >= i.thresholds.Crit:
		return LevelCrit
	case pct >= i.thresholds.Warn:
		return LevelWarn
	default:
		return LevelOK
	}
}

// Text is the plain indicator line.
func (i *Indicator) Text() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.text
}

func (i *Indicator) Level() Level {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.level
}

// Render is the styled indicator line.
func (i *Indicator) Render() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.renderLocked()
}

func (i *Indicator) renderLocked() string {
	switch i.level {
	case LevelCrit, LevelError:
		return critStyle.Render(i.text)
	case LevelWarn:
		return warnStyle.Render(i.text)
	case LevelOK:
		return okStyle.Render(i.text)
	default:
		return dimStyle.Render(i.text)
	}
}

// Detail returns the hover-style detail lines for the current state.
func (i *Indicator) Detail() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.snap != nil && i.level != LevelError {
		// Countdown is relative to now.
		i.detail = i.buildDetailLocked()
	}
	return append([]string(nil), i.detail...)
}

func (i *Indicator) buildDetailLocked() []string {
	lines := []string{
		"GLM Coding Plan usage",
		"Platform: " + string(i.snap.Platform),
	}
	if len(i.snap.QuotaLimit.Limits) > 0 {
		lines = append(lines, "Quota:")
		for _, e := range i.snap.QuotaLimit.Limits {
			lines = append(lines, fmt.Sprintf("  • %s: %s%%", e.Type, FormatPercent(e.Percentage)))
		}
	}
	if i.nextReset != nil {
		remaining := i.nextReset.Sub(i.now())
		lines = append(lines,
			"Token reset:",
			"  • next reset in "+FormatCountdown(remaining),
			"  • at "+i.nextReset.Format("01-02 15:04"),
			"  • window: rolling 5 hours",
		)
	}
	lines = append(lines, "Updated: "+i.updatedAt.Format("15:04:05"))
	return lines
}

// FormatPercent prints a percentage without trailing zeros.
func FormatPercent(pct float64) string {
	return strconv.FormatFloat(pct, 'f', -1, 64)
}

// FormatCountdown renders a remaining duration as "2h 5m", "5m 3s" or "7s".
// Negative durations render as "0s".
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	s := int((d % time.Minute) / time.Second)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
