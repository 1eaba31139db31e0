package util

import "time"

// MonthLabel returns the three-letter English name of a month (1-12)
func MonthLabel(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return time.Month(month).String()[:3]
}

// CurrentYearMonth returns the year and month of now
func CurrentYearMonth(now time.Time) (int, int) {
	return now.Year(), int(now.Month())
}
