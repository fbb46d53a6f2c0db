package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"English", "en"},
		{"POLISH", "pl"},
		{"xx", "xx"},
		{"klingon", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := ToISO2(tc.input); got != tc.expected {
			t.Errorf("ToISO2(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("pl"); got != "Polish" {
		t.Fatalf("DisplayName(pl) = %q", got)
	}
	if got := DisplayName(""); got != "Unknown" {
		t.Fatalf("DisplayName empty = %q", got)
	}
	if got := DisplayName("xq"); got != "XQ" {
		t.Fatalf("DisplayName unrecognized = %q", got)
	}
}
