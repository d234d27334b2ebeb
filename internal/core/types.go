package core

import (
	"reflect"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Platform identifies which backend variant answered a poll.
type Platform string

const (
	PlatformZAI   Platform = "ZAI"
	PlatformZhipu Platform = "ZHIPU"
)

// Label is the short name shown by the compact indicator.
func (p Platform) Label() string {
	if p == PlatformZhipu {
		return "Zhipu"
	}
	return "GLM"
}

type QuotaKind string

const (
	QuotaKindTokens QuotaKind = "tokens"
	QuotaKindTime   QuotaKind = "time"
	QuotaKindOther  QuotaKind = "other"
)

// QuotaEntry is one named consumable limit after normalization.
type QuotaEntry struct {
	Type         string         `json:"type"`
	Kind         QuotaKind      `json:"kind"`
	Percentage   float64        `json:"percentage"`
	CurrentUsage *float64       `json:"current_usage,omitempty"`
	Total        *float64       `json:"total,omitempty"`
	UsageDetails any            `json:"usage_details,omitempty"`
	Fields       map[string]any `json:"fields,omitempty"` // untouched source row for unrecognized types
}

// QuotaLimit holds the normalized quota response. When the response had no
// recognizable limits list, Payload carries it through unchanged.
type QuotaLimit struct {
	Limits  []QuotaEntry   `json:"limits,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
	Payload *Payload       `json:"payload,omitempty"`
}

// TokenEntry returns the token-class quota entry, if any.
func (q QuotaLimit) TokenEntry() (QuotaEntry, bool) {
	return lo.Find(q.Limits, func(e QuotaEntry) bool {
		return e.Kind == QuotaKindTokens || (e.Kind == "" && strings.Contains(e.Type, "Token"))
	})
}

// Equal is a deep value comparison.
func (q QuotaLimit) Equal(other QuotaLimit) bool {
	return reflect.DeepEqual(q, other)
}

// UsageSnapshot is the immutable result of one successful poll.
type UsageSnapshot struct {
	Platform   Platform   `json:"platform"`
	ModelUsage Payload    `json:"model_usage"`
	ToolUsage  Payload    `json:"tool_usage"`
	QuotaLimit QuotaLimit `json:"quota_limit"`
	Timestamp  time.Time  `json:"timestamp"` // client clock at fetch completion, millisecond precision
}

type HistoryEntry struct {
	Snapshot   UsageSnapshot `json:"snapshot"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// HasChanged reports whether cur differs materially from prev.
func HasChanged(prev *UsageSnapshot, cur UsageSnapshot) bool {
	if prev == nil {
		return true
	}
	if !cur.Timestamp.Equal(prev.Timestamp) {
		return true
	}
	return !cur.QuotaLimit.Equal(prev.QuotaLimit)
}

func Float64Ptr(v float64) *float64 { return &v }
