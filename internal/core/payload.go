package core

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/samber/lo"
)

// Payload is a response body decided at the boundary: either a decoded JSON
// tree (Value) or the raw text when the body was not JSON.
type Payload struct {
	Value any    `json:"value,omitempty"`
	Text  string `json:"text,omitempty"`
}

// ParsePayload decodes body leniently. A JSON object carrying a non-null
// "data" member is unwrapped to that member.
func ParsePayload(body []byte) Payload {
	trimmed := bytes.TrimSpace(body)
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return Payload{Text: string(body)}
	}
	if obj, ok := v.(map[string]any); ok {
		if data, ok := obj["data"]; ok && data != nil {
			return Payload{Value: data}
		}
	}
	return Payload{Value: v}
}

// IsText reports whether the body could not be decoded as JSON.
func (p Payload) IsText() bool {
	return p.Value == nil && p.Text != ""
}

func (p Payload) IsEmpty() bool {
	return p.Value == nil && p.Text == ""
}

// Object returns the payload as a JSON object when it is one.
func (p Payload) Object() (map[string]any, bool) {
	obj, ok := p.Value.(map[string]any)
	return obj, ok
}

// UsageTotal is one scalar total pulled out of a usage payload.
type UsageTotal struct {
	Name  string
	Value float64
}

// Totals extracts the scalar totals of a model/tool usage payload. It reads
// the "totalUsage" object when present and falls back to top-level numbers.
func (p Payload) Totals() []UsageTotal {
	obj, ok := p.Object()
	if !ok {
		return nil
	}
	source := obj
	if nested, ok := obj["totalUsage"].(map[string]any); ok {
		source = nested
	}

	keys := lo.Keys(source)
	sort.Strings(keys)

	var out []UsageTotal
	for _, k := range keys {
		if n, ok := source[k].(float64); ok {
			out = append(out, UsageTotal{Name: k, Value: n})
		}
	}
	return out
}
