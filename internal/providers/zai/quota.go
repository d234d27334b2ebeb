package zai

import (
	"github.com/janekbaraniewski/glmusage/internal/core"
	"github.com/janekbaraniewski/glmusage/internal/parsers"
)

const (
	TokenLimitLabel = "Token usage (5h)"
	TimeLimitLabel  = "MCP usage (1 month)"
)

// NormalizeQuotaLimit relabels the known limit rows and passes everything
// else through. A payload without a limits list is kept as-is.
func NormalizeQuotaLimit(p core.Payload) core.QuotaLimit {
	obj, ok := p.Object()
	if !ok {
		return passThrough(p)
	}
	rows, ok := obj["limits"].([]any)
	if !ok {
		return passThrough(p)
	}

	var q core.QuotaLimit
	for k, v := range obj {
		if k == "limits" {
			continue
		}
		if q.Extra == nil {
			q.Extra = make(map[string]any)
		}
		q.Extra[k] = v
	}

	q.Limits = make([]core.QuotaEntry, 0, len(rows))
	for _, item := range rows {
		row, ok := item.(map[string]any)
		if !ok {
			q.Limits = append(q.Limits, core.QuotaEntry{
				Kind:   core.QuotaKindOther,
				Fields: map[string]any{"value": item},
			})
			continue
		}
		q.Limits = append(q.Limits, normalizeEntry(row))
	}
	return q
}

func passThrough(p core.Payload) core.QuotaLimit {
	if p.IsEmpty() {
		return core.QuotaLimit{}
	}
	return core.QuotaLimit{Payload: &p}
}

func normalizeEntry(row map[string]any) core.QuotaEntry {
	kind := parsers.String(row["type"])
	pct, _ := parsers.ParseFloat(row["percentage"])

	// Type names are matched exactly; other spellings pass through.
	switch kind {
	case "TOKENS_LIMIT":
		return core.QuotaEntry{
			Type:       TokenLimitLabel,
			Kind:       core.QuotaKindTokens,
			Percentage: pct,
		}
	case "TIME_LIMIT":
		entry := core.QuotaEntry{
			Type:         TimeLimitLabel,
			Kind:         core.QuotaKindTime,
			Percentage:   pct,
			UsageDetails: row["usageDetails"],
		}
		if v, ok := parsers.ParseFloat(row["currentValue"]); ok {
			entry.CurrentUsage = core.Float64Ptr(v)
		}
		if v, ok := parsers.ParseFloat(row["usage"]); ok {
			entry.Total = core.Float64Ptr(v)
		}
		return entry
	default:
		return core.QuotaEntry{
			Type:       kind,
			Kind:       core.QuotaKindOther,
			Percentage: pct,
			Fields:     row,
		}
	}
}
