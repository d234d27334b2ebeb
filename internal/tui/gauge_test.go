package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderUsageGauge(t *testing.T) {
	g := RenderUsageGauge(50, 20, 70, 90)
	if !strings.Contains(g, "50.0%") {
		t.Fatalf("gauge = %q", g)
	}
	if strings.Count(g, "━") != 20 {
		t.Fatalf("gauge bar width = %d, want 20", strings.Count(g, "━"))
	}
	if !strings.Contains(RenderUsageGauge(150, 10, 70, 90), "100.0%") {
		t.Fatal("gauge should clamp above 100")
	}
	if !strings.Contains(RenderUsageGauge(-1, 10, 70, 90), "N/A") {
		t.Fatal("negative usage should render N/A")
	}
}

func TestGaugeColor(t *testing.T) {
	tests := []struct {
		pct  float64
		want lipgloss.Color
	}{
		{10, colorOK},
		{70, colorWarn},
		{89.9, colorWarn},
		{90, colorCrit},
	}
	for _, tt := range tests {
		if got := gaugeColor(tt.pct, 70, 90); got != tt.want {
			t.Errorf("gaugeColor(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}

func TestFitAndTruncate(t *testing.T) {
	if got := fitAnsiWidth("abc", 5); got != "abc  " {
		t.Errorf("fitAnsiWidth pad = %q", got)
	}
	if got := fitAnsiWidth("abcdef", 3); got != "abc" {
		t.Errorf("fitAnsiWidth cut = %q", got)
	}
	if got := truncateText("hello world", 6); lipgloss.Width(got) > 6 || !strings.HasSuffix(got, "…") {
		t.Errorf("truncateText = %q", got)
	}
}

func TestTokenSeries(t *testing.T) {
	h := historyOf(1, 2, 3)
	h = append(h, h[0])
	h[3].Snapshot.QuotaLimit.Limits = nil
	if got := tokenSeries(h); len(got) != 3 || got[2] != 3 {
		t.Fatalf("tokenSeries = %v", got)
	}
	if renderSparkline(nil, 10, 3) != "" {
		t.Fatal("empty series should render nothing")
	}
	if renderSparkline([]float64{1, 5, 3}, 10, 3) == "" {
		t.Fatal("sparkline should render")
	}
}
