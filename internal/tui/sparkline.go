package tui

import (
	"github.com/NimbleMarkets/ntcharts/sparkline"

	"github.com/janekbaraniewski/glmusage/internal/core"
)

// tokenSeries extracts the token quota percentage of every history entry
// that carries one, oldest first.
func tokenSeries(history []core.HistoryEntry) []float64 {
	values := make([]float64, 0, len(history))
	for _, e := range history {
		if entry, ok := e.Snapshot.QuotaLimit.TokenEntry(); ok {
			values = append(values, entry.Percentage)
		}
	}
	return values
}

// renderSparkline draws values as a block sparkline of the given size. Only
// the newest width values are shown.
func renderSparkline(values []float64, width, height int) string {
	if len(values) == 0 || width < 1 || height < 1 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	sl := sparkline.New(width, height)
	sl.PushAll(values)
	sl.Draw()
	return sparkStyle.Render(sl.View())
}
