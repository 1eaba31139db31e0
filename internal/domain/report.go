package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// IncomeBreakdownName labels the single breakdown row of an income report
const IncomeBreakdownName = "Income"

// AggregateRow is one stored (date, category) group
type AggregateRow struct {
	Date         time.Time
	CategoryID   *int32
	CategoryName string
	Total        decimal.Decimal
	Count        int64
}

// CategoryShare is a category's part of a period total
type CategoryShare struct {
	CategoryID *int32          `json:"categoryId,omitempty"`
	Name       string          `json:"name"`
	Total      decimal.Decimal `json:"total"`
	Count      int64           `json:"count"`
	Percent    decimal.Decimal `json:"percent"`
}

// BucketTotal is the total of one day or one month within a period
type BucketTotal struct {
	Bucket  int             `json:"bucket"`
	Total   decimal.Decimal `json:"total"`
	Count   int64           `json:"count"`
	Percent decimal.Decimal `json:"percent"`
}

// CategoryAmount is one category's total inside a bucket
type CategoryAmount struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// BucketCategories holds the per-category split of one day or month
type BucketCategories struct {
	Bucket     int              `json:"bucket"`
	Categories []CategoryAmount `json:"categories"`
}

// Report is the aggregated view of one kind of transaction over a period
type Report struct {
	Period           Period             `json:"period"`
	Kind             TransactionKind    `json:"kind"`
	Total            decimal.Decimal    `json:"total"`
	Count            int64              `json:"count"`
	ByCategory       []CategoryShare    `json:"byCategory"`
	ByDay            []BucketTotal      `json:"byDay,omitempty"`
	ByMonth          []BucketTotal      `json:"byMonth,omitempty"`
	CategoryByBucket []BucketCategories `json:"categoryByBucket,omitempty"`
}

// Totals are income and expense sums over a range
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Balance is income minus expense over a period
type Balance struct {
	Period  Period          `json:"period"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

var hundredthsOfWhole = decimal.NewFromInt(10000)

// PercentShares splits 100% across amounts in proportion, at two decimal places.
// Hundredths are distributed by largest remainder so non-empty results sum to exactly 100.00;
// ties go to the earlier amount. A zero total yields all zeros.
func PercentShares(amounts []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(amounts))
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	if !total.IsPositive() {
		for i := range shares {
			shares[i] = decimal.Zero
		}
		return shares
	}

	type part struct {
		idx       int
		floor     int64
		remainder decimal.Decimal
	}
	parts := make([]part, len(amounts))
	var assigned int64
	for i, a := range amounts {
		raw := a.Mul(hundredthsOfWhole).Div(total)
		floor := raw.Floor()
		parts[i] = part{idx: i, floor: floor.IntPart(), remainder: raw.Sub(floor)}
		assigned += floor.IntPart()
	}

	byRemainder := make([]part, len(parts))
	copy(byRemainder, parts)
	sort.SliceStable(byRemainder, func(i, j int) bool {
		return byRemainder[i].remainder.GreaterThan(byRemainder[j].remainder)
	})
	for i := int64(0); i < hundredthsOfWhole.IntPart()-assigned && int(i) < len(byRemainder); i++ {
		parts[byRemainder[i].idx].floor++
	}

	for i, p := range parts {
		shares[i] = decimal.New(p.floor, -2)
	}
	return shares
}
