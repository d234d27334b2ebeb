package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/janekbaraniewski/glmusage/internal/core"
)

// ProgramDisplay forwards poller pushes into a running bubbletea program.
type ProgramDisplay struct {
	send func(tea.Msg)
}

func NewProgramDisplay(p *tea.Program) *ProgramDisplay {
	return &ProgramDisplay{send: p.Send}
}

func (d *ProgramDisplay) OnUpdate(snap core.UsageSnapshot, history []core.HistoryEntry, nextReset *time.Time) {
	d.send(UpdateMsg{Snapshot: snap, History: history, NextReset: nextReset})
}

func (d *ProgramDisplay) OnError(message string) {
	d.send(ErrorMsg(message))
}

// Indicator forwards a compact indicator line to the footer.
func (d *ProgramDisplay) Indicator(line string) {
	d.send(IndicatorMsg(line))
}
