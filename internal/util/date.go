package util

import (
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// shortYearLayout years always land in 20YY
const shortYearLayout = "2.1.06"

// Accepted day layouts, tried in order
var dateLayouts = []string{
	shortYearLayout,
	"2.1.2006",
	"2006-01-02",
}

// Entry is a parsed "DD.MM.YY amount description" line
type Entry struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description *string
}

// ParseDate parses DD.MM.YY, DD.MM.YYYY or YYYY-MM-DD into midnight UTC
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if layout == shortYearLayout {
			t = time.Date(2000+t.Year()%100, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		return domain.NormalizeDate(t)
	}
	return time.Time{}, domain.ErrInvalidDate
}

// ParseMonth parses MM.YYYY
func ParseMonth(s string) (year, month int, err error) {
	t, err := time.Parse("1.2006", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, domain.ErrInvalidPeriod
	}
	p := domain.MonthPeriod(t.Year(), int(t.Month()))
	if err := p.Validate(); err != nil {
		return 0, 0, err
	}
	return p.Year, p.Month, nil
}

// ParseYear parses YYYY
func ParseYear(s string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, domain.ErrInvalidPeriod
	}
	if err := domain.YearPeriod(year).Validate(); err != nil {
		return 0, err
	}
	return year, nil
}

// ParseAmount parses a positive amount with at most two decimals. A comma is accepted
// as the decimal separator.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.Replace(strings.TrimSpace(s), ",", ".", 1))
	if err != nil || !domain.ValidAmount(d) || d.Exponent() < -2 {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	return d, nil
}

// ParseEntry parses "DD.MM.YY amount description" or "amount description".
// Without a date the entry is dated on now's calendar day.
func ParseEntry(text string, now time.Time) (*Entry, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, domain.ErrInvalidEntry
	}

	var date time.Time
	if looksLikeDate(fields[0]) {
		d, err := ParseDate(fields[0])
		if err != nil {
			return nil, err
		}
		if len(fields) < 2 {
			return nil, domain.ErrInvalidEntry
		}
		date = d
		fields = fields[1:]
	} else {
		d, err := domain.NormalizeDate(now)
		if err != nil {
			return nil, err
		}
		date = d
	}

	amount, err := ParseAmount(fields[0])
	if err != nil {
		return nil, err
	}

	return &Entry{
		Date:        date,
		Amount:      amount,
		Description: NormalizeDescription(strings.Join(fields[1:], " ")),
	}, nil
}

// NormalizeDescription trims s and maps blank text to nil
func NormalizeDescription(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func looksLikeDate(tok string) bool {
	return strings.Count(tok, ".") == 2 || strings.Count(tok, "-") == 2
}
