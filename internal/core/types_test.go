package core

import (
	"testing"
	"time"
)

func testSnapshot(ts time.Time, pct float64) UsageSnapshot {
	return UsageSnapshot{
		Platform: PlatformZAI,
		QuotaLimit: QuotaLimit{
			Limits: []QuotaEntry{
				{Type: "Token usage (5h)", Kind: QuotaKindTokens, Percentage: pct},
				{
					Type:         "MCP usage (1 month)",
					Kind:         QuotaKindTime,
					Percentage:   12,
					CurrentUsage: Float64Ptr(12),
					Total:        Float64Ptr(100),
					UsageDetails: []any{map[string]any{"modelCode": "search-prime", "usage": float64(12)}},
				},
			},
		},
		Timestamp: ts,
	}
}

func TestHasChanged(t *testing.T) {
	t1 := time.UnixMilli(1_700_000_000_000)
	t2 := t1.Add(time.Millisecond)
	base := testSnapshot(t1, 40)

	tests := []struct {
		name string
		prev *UsageSnapshot
		cur  UsageSnapshot
		want bool
	}{
		{name: "no prior snapshot", prev: nil, cur: base, want: true},
		{name: "identical", prev: &base, cur: testSnapshot(t1, 40), want: false},
		{name: "same timestamp, quota differs", prev: &base, cur: testSnapshot(t1, 41), want: true},
		{name: "timestamp differs", prev: &base, cur: testSnapshot(t2, 40), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasChanged(tt.prev, tt.cur); got != tt.want {
				t.Errorf("HasChanged() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasChanged_DeepComparesDetails(t *testing.T) {
	ts := time.UnixMilli(1_700_000_000_000)
	prev := testSnapshot(ts, 40)
	cur := testSnapshot(ts, 40)
	cur.QuotaLimit.Limits[1].UsageDetails = []any{map[string]any{"modelCode": "search-prime", "usage": float64(13)}}

	if !HasChanged(&prev, cur) {
		t.Fatal("HasChanged() = false, want true for differing usage details")
	}
}

func TestQuotaLimitTokenEntry(t *testing.T) {
	snap := testSnapshot(time.Now(), 55)
	entry, ok := snap.QuotaLimit.TokenEntry()
	if !ok {
		t.Fatal("TokenEntry() not found")
	}
	if entry.Percentage != 55 {
		t.Fatalf("Percentage = %v, want 55", entry.Percentage)
	}

	none := QuotaLimit{Limits: []QuotaEntry{{Type: "UNKNOWN", Kind: QuotaKindOther}}}
	if _, ok := none.TokenEntry(); ok {
		t.Fatal("TokenEntry() found on limits without a token entry")
	}
}

func TestPlatformLabel(t *testing.T) {
	if got := PlatformZhipu.Label(); got != "Zhipu" {
		t.Errorf("Zhipu label = %q", got)
	}
	if got := PlatformZAI.Label(); got != "GLM" {
		t.Errorf("ZAI label = %q", got)
	}
	if got := Platform("").Label(); got != "GLM" {
		t.Errorf("empty label = %q", got)
	}
}
