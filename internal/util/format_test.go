package util

import "testing"

func TestFormatBytes(t *testing.T) {
	testCases := []struct {
		n        int64
		expected string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1500, "1.5 kB"},
		{5 * 1000 * 1000, "5.0 MB"},
	}

	for _, tc := range testCases {
		if got := FormatBytes(tc.n); got != tc.expected {
			t.Errorf("FormatBytes(%d) = %q, expected %q", tc.n, got, tc.expected)
		}
	}
}

func TestFormatCount(t *testing.T) {
	if got := FormatCount(1234567); got != "1,234,567" {
		t.Errorf("FormatCount = %q", got)
	}
}
