package util

import (
	"testing"
	"time"
)

func TestMonthLabel(t *testing.T) {
	tests := []struct {
		month int
		want  string
	}{
		{1, "Jan"},
		{9, "Sep"},
		{12, "Dec"},
		{0, ""},  // out of range
		{13, ""}, // out of range
	}

	for _, tt := range tests {
		if got := MonthLabel(tt.month); got != tt.want {
			t.Errorf("MonthLabel(%d) = %q, want %q", tt.month, got, tt.want)
		}
	}
}

func TestCurrentYearMonth(t *testing.T) {
	year, month := CurrentYearMonth(time.Date(2024, 12, 26, 10, 0, 0, 0, time.UTC))
	if year != 2024 || month != 12 {
		t.Errorf("CurrentYearMonth() = (%d, %d), want (2024, 12)", year, month)
	}
}
