package statusbar

import (
	"strings"
	"testing"
	"time"

	"github.com/janekbaraniewski/glmusage/internal/core"
)

func snapshot(platform core.Platform, limits ...core.QuotaEntry) core.UsageSnapshot {
	return core.UsageSnapshot{
		Platform:   platform,
		QuotaLimit: core.QuotaLimit{Limits: limits},
		Timestamp:  time.Date(2025, 7, 14, 7, 30, 0, 0, time.UTC),
	}
}

func tokenEntry(pct float64) core.QuotaEntry {
	return core.QuotaEntry{Type: "Token usage (5h)", Kind: core.QuotaKindTokens, Percentage: pct}
}

func TestIndicator_Text(t *testing.T) {
	tests := []struct {
		name      string
		snap      core.UsageSnapshot
		wantText  string
		wantLevel Level
	}{
		{"zai ok", snapshot(core.PlatformZAI, tokenEntry(42)), "GLM: 42%", LevelOK},
		{"zhipu label", snapshot(core.PlatformZhipu, tokenEntry(5.5)), "Zhipu: 5.5%", LevelOK},
		{"warn threshold", snapshot(core.PlatformZAI, tokenEntry(70)), "GLM: 70%", LevelWarn},
		{"crit threshold", snapshot(core.PlatformZAI, tokenEntry(90)), "GLM: 90%", LevelCrit},
		{"no token entry", snapshot(core.PlatformZAI, core.QuotaEntry{Type: "MCP usage (1 month)", Kind: core.QuotaKindTime}), "GLM: no quota", LevelOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := New(DefaultThresholds(), nil)
			ind.OnUpdate(tt.snap, nil, nil)
			if got := ind.Text(); got != tt.wantText {
				t.Errorf("Text() = %q, want %q", got, tt.wantText)
			}
			if got := ind.Level(); got != tt.wantLevel {
				t.Errorf("Level() = %v, want %v", got, tt.wantLevel)
			}
			if !strings.Contains(ind.Render(), tt.wantText) {
				t.Errorf("Render() = %q does not contain text", ind.Render())
			}
		})
	}
}

func TestIndicator_ErrorKeepsPlatformLabel(t *testing.T) {
	var lines []string
	ind := New(DefaultThresholds(), func(line string) { lines = append(lines, line) })

	if !strings.Contains(ind.Text(), "initializing") {
		t.Fatalf("initial Text() = %q", ind.Text())
	}
	ind.OnUpdate(snapshot(core.PlatformZhipu, tokenEntry(1)), nil, nil)
	ind.OnError("zai: quota: HTTP 401")

	if got := ind.Text(); got != "Zhipu: error" {
		t.Fatalf("Text() = %q, want Zhipu: error", got)
	}
	if ind.Level() != LevelError {
		t.Fatalf("Level() = %v", ind.Level())
	}
	if detail := ind.Detail(); !strings.Contains(detail[0], "HTTP 401") {
		t.Fatalf("Detail() = %v", detail)
	}
	if len(lines) != 2 {
		t.Fatalf("sink received %d lines, want 2", len(lines))
	}
}

func TestIndicator_Detail(t *testing.T) {
	now := time.Date(2025, 7, 14, 7, 30, 0, 0, time.UTC)
	reset := time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)
	ind := New(DefaultThresholds(), nil)
	ind.now = func() time.Time { return now }

	ind.OnUpdate(snapshot(core.PlatformZAI,
		tokenEntry(42),
		core.QuotaEntry{Type: "MCP usage (1 month)", Kind: core.QuotaKindTime, Percentage: 12},
	), nil, &reset)

	joined := strings.Join(ind.Detail(), "\n")
	for _, want := range []string{
		"Platform: ZAI",
		"Token usage (5h): 42%",
		"MCP usage (1 month): 12%",
		"next reset in 2h 30m",
		"at 07-14 10:00",
		"Updated: 07:30:00",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("Detail() missing %q:\n%s", want, joined)
		}
	}
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{-time.Second, "0s"},
		{7 * time.Second, "7s"},
		{5*time.Minute + 3*time.Second, "5m 3s"},
		{2*time.Hour + 5*time.Minute + 59*time.Second, "2h 5m"},
	}
	for _, tt := range tests {
		if got := FormatCountdown(tt.d); got != tt.want {
			t.Errorf("FormatCountdown(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestNew_ThresholdDefaults(t *testing.T) {
	ind := New(Thresholds{}, nil)
	if ind.thresholds != DefaultThresholds() {
		t.Fatalf("thresholds = %#v", ind.thresholds)
	}
}
