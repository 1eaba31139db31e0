package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriod_Validate(t *testing.T) {
	tests := []struct {
		name   string
		period Period
		valid  bool
	}{
		{"day", DayPeriod(2024, 12, 26), true},
		{"leap day", DayPeriod(2024, 2, 29), true},
		{"non-leap feb 29", DayPeriod(2023, 2, 29), false},
		{"day 31 in april", DayPeriod(2024, 4, 31), false},
		{"month", MonthPeriod(2024, 12), true},
		{"month 13", MonthPeriod(2024, 13), false},
		{"month 0", MonthPeriod(2024, 0), false},
		{"year", YearPeriod(2024), true},
		{"year too small", YearPeriod(1900), false},
		{"all", AllTime(), true},
		{"unknown kind", Period{Kind: "week"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.period.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidPeriod)
				assert.True(t, errors.Is(err, ErrValidation))
			}
		})
	}
}

func TestPeriod_Range(t *testing.T) {
	r := MonthPeriod(2024, 12).Range()
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), r.End)

	r = DayPeriod(2024, 12, 31).Range()
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), r.End)

	r = YearPeriod(2024).Range()
	assert.True(t, r.Contains(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

	all := AllTime().Range()
	assert.True(t, all.Start.IsZero())
	assert.True(t, all.End.IsZero())
	assert.True(t, all.Contains(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPeriod_DaysAndString(t *testing.T) {
	assert.Len(t, MonthPeriod(2024, 2).Days(), 29)
	assert.Len(t, MonthPeriod(2023, 2).Days(), 28)
	assert.Equal(t, []int{26}, DayPeriod(2024, 12, 26).Days())
	assert.Nil(t, YearPeriod(2024).Days())

	assert.Equal(t, "26.12.2024", DayPeriod(2024, 12, 26).String())
	assert.Equal(t, "03.2024", MonthPeriod(2024, 3).String())
	assert.Equal(t, "2024", YearPeriod(2024).String())
	assert.Equal(t, "all time", AllTime().String())
}

func TestNormalizeDate(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	d, err := NormalizeDate(time.Date(2024, 12, 26, 23, 30, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC), d)

	_, err = NormalizeDate(time.Time{})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = NormalizeDate(time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, ErrCategoryNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrTransactionNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrInvalidAmount, ErrValidation)
	assert.ErrorIs(t, ErrSelfReassign, ErrInvalidOperation)
	assert.ErrorIs(t, ErrCategoryAlreadyExists, ErrAlreadyExists)
	assert.False(t, errors.Is(ErrCategoryNotFound, ErrValidation))
}
