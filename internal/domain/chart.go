package domain

import "fmt"

type ChartType string

const (
	ChartMonthly              ChartType = "monthly"
	ChartDaily                ChartType = "daily"
	ChartYearly               ChartType = "yearly"
	ChartIncomeExpenseDaily   ChartType = "income-expense-daily"
	ChartIncomeExpenseMonthly ChartType = "income-expense-monthly"
)

// MonthScopedCharts are rendered for a single month
var MonthScopedCharts = []ChartType{ChartMonthly, ChartDaily, ChartIncomeExpenseDaily}

// YearScopedCharts are rendered for a whole year
var YearScopedCharts = []ChartType{ChartYearly, ChartIncomeExpenseMonthly}

// AllChartTypes returns every chart type, month-scoped first
func AllChartTypes() []ChartType {
	all := make([]ChartType, 0, len(MonthScopedCharts)+len(YearScopedCharts))
	all = append(all, MonthScopedCharts...)
	return append(all, YearScopedCharts...)
}

func ParseChartType(s string) (ChartType, error) {
	for _, t := range AllChartTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown chart type %q", ErrValidation, s)
}

// NeedsMonth reports whether the chart covers one month rather than a year
func (t ChartType) NeedsMonth() bool {
	for _, m := range MonthScopedCharts {
		if m == t {
			return true
		}
	}
	return false
}

// ReportImageKey identifies one cached chart image
type ReportImageKey struct {
	Type   ChartType
	UserID int64
	Year   int
	Month  int
}

func (k ReportImageKey) String() string {
	if k.Type.NeedsMonth() {
		return fmt.Sprintf("report_image:%s:%d:%d:%d", k.Type, k.UserID, k.Year, k.Month)
	}
	return fmt.Sprintf("report_image:%s:%d:%d", k.Type, k.UserID, k.Year)
}

// Period returns the aggregation window the image covers
func (k ReportImageKey) Period() Period {
	if k.Type.NeedsMonth() {
		return MonthPeriod(k.Year, k.Month)
	}
	return YearPeriod(k.Year)
}

// AffectedImageKeys lists the images that change when data in year/month changes
func AffectedImageKeys(userID int64, year, month int) []ReportImageKey {
	var keys []ReportImageKey
	for _, t := range MonthScopedCharts {
		keys = append(keys, ReportImageKey{Type: t, UserID: userID, Year: year, Month: month})
	}
	for _, t := range YearScopedCharts {
		keys = append(keys, ReportImageKey{Type: t, UserID: userID, Year: year})
	}
	return keys
}
