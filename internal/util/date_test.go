package util

import (
	"errors"
	"testing"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"26.12.24", day(2024, 12, 26), false},
		{"26.12.2024", day(2024, 12, 26), false},
		{"1.2.24", day(2024, 2, 1), false},
		{"2024-12-26", day(2024, 12, 26), false},
		{"01.01.85", day(2085, 1, 1), false},
		{"15.06.70", day(2070, 6, 15), false},
		{"29.02.96", day(2096, 2, 29), false},
		{"01.01.00", day(2000, 1, 1), false},
		{"31.12.1999", time.Time{}, true},
		{"1985-01-01", time.Time{}, true},
		{" 29.02.24 ", day(2024, 2, 29), false},
		{"29.02.23", time.Time{}, true},
		{"31.04.24", time.Time{}, true},
		{"26/12/24", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if tt.wantErr {
			if !errors.Is(err, domain.ErrInvalidDate) {
				t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseMonthAndYear(t *testing.T) {
	year, month, err := ParseMonth("03.2024")
	if err != nil || year != 2024 || month != 3 {
		t.Errorf("ParseMonth(03.2024) = (%d, %d, %v)", year, month, err)
	}
	if _, _, err := ParseMonth("13.2024"); !errors.Is(err, domain.ErrInvalidPeriod) {
		t.Errorf("ParseMonth(13.2024) error = %v, want ErrInvalidPeriod", err)
	}

	y, err := ParseYear("2025")
	if err != nil || y != 2025 {
		t.Errorf("ParseYear(2025) = (%d, %v)", y, err)
	}
	if _, err := ParseYear("twenty"); !errors.Is(err, domain.ErrInvalidPeriod) {
		t.Errorf("ParseYear(twenty) error = %v, want ErrInvalidPeriod", err)
	}
}

func TestParseAmount(t *testing.T) {
	valid := map[string]string{
		"500":    "500",
		"12.5":   "12.5",
		"12,50":  "12.5",
		"0.01":   "0.01",
		" 7.00 ": "7",
	}
	for in, want := range valid {
		got, err := ParseAmount(in)
		if err != nil {
			t.Errorf("ParseAmount(%q) unexpected error: %v", in, err)
			continue
		}
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Errorf("ParseAmount(%q) = %s, want %s", in, got, want)
		}
	}

	if got, err := ParseAmount("999999999999.99"); err != nil || !got.Equal(domain.MaxAmount) {
		t.Errorf("ParseAmount(max) = (%s, %v)", got, err)
	}

	for _, in := range []string{"0", "-5", "abc", "1.234", "", "1000000000000"} {
		if _, err := ParseAmount(in); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("ParseAmount(%q) error = %v, want ErrInvalidAmount", in, err)
		}
	}
}

func TestParseEntry(t *testing.T) {
	now := time.Date(2025, 3, 14, 18, 45, 0, 0, time.UTC)

	t.Run("with date", func(t *testing.T) {
		e, err := ParseEntry("26.12.24 500 coffee", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !e.Date.Equal(day(2024, 12, 26)) {
			t.Errorf("date = %v", e.Date)
		}
		if !e.Amount.Equal(decimal.NewFromInt(500)) {
			t.Errorf("amount = %s", e.Amount)
		}
		if e.Description == nil || *e.Description != "coffee" {
			t.Errorf("description = %v", e.Description)
		}
	})

	t.Run("without date uses today", func(t *testing.T) {
		e, err := ParseEntry("500", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !e.Date.Equal(day(2025, 3, 14)) {
			t.Errorf("date = %v", e.Date)
		}
		if e.Description != nil {
			t.Errorf("description = %q, want nil", *e.Description)
		}
	})

	t.Run("multi-word description is joined", func(t *testing.T) {
		e, err := ParseEntry("  42,5   lunch   with   team ", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *e.Description != "lunch with team" {
			t.Errorf("description = %q", *e.Description)
		}
	})

	t.Run("two-digit year is in this millennium", func(t *testing.T) {
		e, err := ParseEntry("15.06.70 12 lunch", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !e.Date.Equal(day(2070, 6, 15)) {
			t.Errorf("date = %v, want 2070-06-15", e.Date)
		}
	})

	errCases := map[string]error{
		"":              domain.ErrInvalidEntry,
		"26.12.24":      domain.ErrInvalidEntry,
		"31.02.24 5 x":  domain.ErrInvalidDate,
		"coffee 500":    domain.ErrInvalidAmount,
		"26.12.24 -1 x": domain.ErrInvalidAmount,
	}
	for in, want := range errCases {
		if _, err := ParseEntry(in, now); !errors.Is(err, want) {
			t.Errorf("ParseEntry(%q) error = %v, want %v", in, err, want)
		}
	}
}
