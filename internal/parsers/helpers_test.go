package parsers

import (
	"encoding/json"
	"testing"
)

func TestParseFloat(t *testing.T) {
	tests := []struct {
		input  any
		want   float64
		wantOK bool
	}{
		{float64(42), 42, true},
		{int(7), 7, true},
		{int64(9), 9, true},
		{json.Number("3.5"), 3.5, true},
		{"100", 100, true},
		{" 42 ", 42, true},
		{"", 0, false},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseFloat(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseFloat(%#v) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		input any
		want  string
	}{
		{nil, ""},
		{"  TOKENS_LIMIT ", "TOKENS_LIMIT"},
		{float64(3), "3"},
		{float64(2.5), "2.5"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := String(tt.input); got != tt.want {
			t.Errorf("String(%#v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
