package domain

import (
	"fmt"
	"time"
)

// Accepted calendar range for recorded dates
const (
	MinYear = 2000
	MaxYear = 2999
)

type PeriodKind string

const (
	PeriodDay   PeriodKind = "day"
	PeriodMonth PeriodKind = "month"
	PeriodYear  PeriodKind = "year"
	PeriodAll   PeriodKind = "all"
)

// Period is an aggregation window. Fields finer than Kind are ignored.
type Period struct {
	Kind  PeriodKind `json:"kind"`
	Year  int        `json:"year,omitempty"`
	Month int        `json:"month,omitempty"`
	Day   int        `json:"day,omitempty"`
}

func DayPeriod(year, month, day int) Period {
	return Period{Kind: PeriodDay, Year: year, Month: month, Day: day}
}

func MonthPeriod(year, month int) Period {
	return Period{Kind: PeriodMonth, Year: year, Month: month}
}

func YearPeriod(year int) Period {
	return Period{Kind: PeriodYear, Year: year}
}

func AllTime() Period {
	return Period{Kind: PeriodAll}
}

// PeriodOf returns the day period containing t
func PeriodOf(t time.Time) Period {
	return DayPeriod(t.Year(), int(t.Month()), t.Day())
}

// Validate checks that the period names a real calendar window
func (p Period) Validate() error {
	switch p.Kind {
	case PeriodAll:
		return nil
	case PeriodYear:
		if p.Year < MinYear || p.Year > MaxYear {
			return ErrInvalidPeriod
		}
		return nil
	case PeriodMonth:
		if p.Year < MinYear || p.Year > MaxYear || p.Month < 1 || p.Month > 12 {
			return ErrInvalidPeriod
		}
		return nil
	case PeriodDay:
		if !ValidCalendarDate(p.Year, p.Month, p.Day) {
			return ErrInvalidPeriod
		}
		return nil
	}
	return ErrInvalidPeriod
}

// Range returns the half-open date range the period covers
func (p Period) Range() DateRange {
	switch p.Kind {
	case PeriodDay:
		start := time.Date(p.Year, time.Month(p.Month), p.Day, 0, 0, 0, 0, time.UTC)
		return DateRange{Start: start, End: start.AddDate(0, 0, 1)}
	case PeriodMonth:
		start := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
		return DateRange{Start: start, End: start.AddDate(0, 1, 0)}
	case PeriodYear:
		start := time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return DateRange{Start: start, End: start.AddDate(1, 0, 0)}
	}
	return DateRange{}
}

// Days lists the day-of-month numbers covered by a day or month period
func (p Period) Days() []int {
	switch p.Kind {
	case PeriodDay:
		return []int{p.Day}
	case PeriodMonth:
		n := DaysIn(p.Year, p.Month)
		days := make([]int, n)
		for i := range days {
			days[i] = i + 1
		}
		return days
	}
	return nil
}

func (p Period) String() string {
	switch p.Kind {
	case PeriodDay:
		return fmt.Sprintf("%02d.%02d.%04d", p.Day, p.Month, p.Year)
	case PeriodMonth:
		return fmt.Sprintf("%02d.%04d", p.Month, p.Year)
	case PeriodYear:
		return fmt.Sprintf("%04d", p.Year)
	case PeriodAll:
		return "all time"
	}
	return string(p.Kind)
}

// DateRange is half-open: Start inclusive, End exclusive. A zero bound is unbounded.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && !t.Before(r.End) {
		return false
	}
	return true
}

// DaysIn returns the number of days in the given month
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidCalendarDate reports whether year/month/day exist on the calendar within the accepted range
func ValidCalendarDate(year, month, day int) bool {
	if year < MinYear || year > MaxYear || month < 1 || month > 12 || day < 1 {
		return false
	}
	return day <= DaysIn(year, month)
}

// NormalizeDate truncates t to midnight UTC of its calendar day and validates it
func NormalizeDate(t time.Time) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, ErrInvalidDate
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if d.Year() < MinYear || d.Year() > MaxYear {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}
