package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/janekbaraniewski/glmusage/internal/core"
	"github.com/janekbaraniewski/glmusage/internal/providers/zai"
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// UpdateMsg carries a changed snapshot pushed by the poller.
type UpdateMsg struct {
	Snapshot  core.UsageSnapshot
	History   []core.HistoryEntry
	NextReset *time.Time
}

// ErrorMsg carries a poll failure pushed by the poller.
type ErrorMsg string

// IndicatorMsg carries a new compact indicator line for the footer.
type IndicatorMsg string

type refreshDoneMsg struct{ err error }

// Controls is the part of the poller the detail view drives.
type Controls interface {
	Poll(ctx context.Context) error
	Start()
	Stop()
	Running() bool
	RecordActivity()
}

type Options struct {
	WarnPercent float64
	CritPercent float64
	// Indicator is the footer line shown until the first IndicatorMsg.
	Indicator string
	Now       func() time.Time
}

type Model struct {
	controls Controls
	warnPct  float64
	critPct  float64
	now      func() time.Time

	snap      *core.UsageSnapshot
	history   []core.HistoryEntry
	nextReset *time.Time
	errMsg    string
	authError bool
	indicator string
	updatedAt time.Time

	running    bool
	refreshing bool
	width      int
	height     int
}

func NewModel(c Controls, opts Options) Model {
	if opts.WarnPercent <= 0 {
		opts.WarnPercent = 70
	}
	if opts.CritPercent <= 0 {
		opts.CritPercent = 90
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return Model{
		controls:  c,
		warnPct:   opts.WarnPercent,
		critPct:   opts.CritPercent,
		now:       opts.Now,
		running:   c.Running(),
		indicator: opts.Indicator,
		width:     80,
	}
}

func (m Model) Init() tea.Cmd { return tickCmd() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		// Restart from a config reload can change the state behind our back.
		m.running = m.controls.Running()
		return m, tickCmd()

	case tea.WindowSizeMsg:
		m.controls.RecordActivity()
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.FocusMsg:
		m.controls.RecordActivity()
		return m, nil

	case tea.MouseMsg:
		m.controls.RecordActivity()
		return m, nil

	case tea.KeyMsg:
		m.controls.RecordActivity()
		return m.handleKey(msg)

	case UpdateMsg:
		snap := msg.Snapshot
		m.snap = &snap
		m.history = msg.History
		m.nextReset = msg.NextReset
		m.errMsg = ""
		m.authError = false
		m.updatedAt = m.now()
		return m, nil

	case ErrorMsg:
		m.errMsg = string(msg)
		return m, nil

	case IndicatorMsg:
		m.indicator = string(msg)
		return m, nil

	case refreshDoneMsg:
		m.refreshing = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.authError = zai.IsAuth(msg.err)
		} else {
			m.errMsg = ""
			m.authError = false
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		if m.refreshing {
			return m, nil
		}
		m.refreshing = true
		return m, m.refreshCmd()
	case "s":
		if m.controls.Running() {
			m.controls.Stop()
		} else {
			m.controls.Start()
		}
		m.running = m.controls.Running()
		return m, nil
	}
	return m, nil
}

func (m Model) refreshCmd() tea.Cmd {
	c := m.controls
	return func() tea.Msg {
		return refreshDoneMsg{err: c.Poll(context.Background())}
	}
}
