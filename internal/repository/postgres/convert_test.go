package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericRoundTrip(t *testing.T) {
	for _, v := range []string{"500", "12.50", "0.01", "123456789.99"} {
		d := decimal.RequireFromString(v)
		num, err := decimalToPgNumeric(d)
		require.NoError(t, err)
		assert.True(t, d.Equal(pgNumericToDecimal(num)), v)
	}

	assert.True(t, pgNumericToDecimal(pgtype.Numeric{}).IsZero())
}

func TestDateConversion(t *testing.T) {
	assert.False(t, dateToPg(time.Time{}).Valid)

	d := time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC)
	pg := dateToPg(d)
	assert.True(t, pg.Valid)
	assert.Equal(t, d, pgDateToTime(pg))

	assert.True(t, pgDateToTime(pgtype.Date{}).IsZero())
}

func TestPgErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	fk := &pgconn.PgError{Code: "23503"}

	assert.True(t, isPgUniqueViolation(unique))
	assert.False(t, isPgForeignKeyViolation(unique))
	assert.True(t, isPgForeignKeyViolation(fk))
	assert.False(t, isPgUniqueViolation(errors.New("boom")))
	assert.False(t, isPgUniqueViolation(nil))
}
