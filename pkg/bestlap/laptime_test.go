package bestlap

import "testing"

func TestFormatLapTime(t *testing.T) {
	tests := []struct {
		ms       uint32
		expected string
	}{
		{ms: 0, expected: "00:00.000"},
		{ms: 999, expected: "00:00.999"},
		{ms: 65000, expected: "01:05.000"},
		{ms: 83456, expected: "01:23.456"},
		{ms: 3599999, expected: "59:59.999"},
		{ms: 6000000, expected: "100:00.000"},
	}

	for _, test := range tests {
		if formatted := FormatLapTime(test.ms); formatted != test.expected {
			t.Errorf("FormatLapTime(%d): expected %s, got %s", test.ms, test.expected, formatted)
		}
	}
}
