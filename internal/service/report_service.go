package service

import (
	"sort"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// ReportService aggregates stored transactions into reports
type ReportService struct {
	transactionRepo domain.TransactionRepository
}

// NewReportService creates a new ReportService
func NewReportService(transactionRepo domain.TransactionRepository) *ReportService {
	return &ReportService{transactionRepo: transactionRepo}
}

// Aggregate groups a kind of transaction over a period by category, and by day or
// month depending on the period. Empty periods produce zero totals.
func (s *ReportService) Aggregate(userID int64, period domain.Period, kind domain.TransactionKind) (*domain.Report, error) {
	if !kind.Valid() {
		return nil, domain.ErrInvalidKind
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.transactionRepo.GetAggregates(userID, kind, period.Range())
	if err != nil {
		return nil, err
	}
	return buildReport(period, kind, rows), nil
}

// Balance returns income minus expense over a period
func (s *ReportService) Balance(userID int64, period domain.Period) (*domain.Balance, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	totals, err := s.transactionRepo.GetTotals(userID, period.Range())
	if err != nil {
		return nil, err
	}
	return &domain.Balance{
		Period:  period,
		Income:  totals.Income,
		Expense: totals.Expense,
		Net:     totals.Income.Sub(totals.Expense),
	}, nil
}

// Total returns the all-time sum of a kind of transaction
func (s *ReportService) Total(userID int64, kind domain.TransactionKind) (decimal.Decimal, error) {
	if !kind.Valid() {
		return decimal.Zero, domain.ErrInvalidKind
	}
	totals, err := s.transactionRepo.GetTotals(userID, domain.AllTime().Range())
	if err != nil {
		return decimal.Zero, err
	}
	if kind == domain.TransactionKindIncome {
		return totals.Income, nil
	}
	return totals.Expense, nil
}

type shareAcc struct {
	id    *int32
	name  string
	total decimal.Decimal
	count int64
}

// buildReport folds (date, category) rows into a report. The result depends only on
// the rows, never on their order.
func buildReport(period domain.Period, kind domain.TransactionKind, rows []*domain.AggregateRow) *domain.Report {
	report := &domain.Report{
		Period:     period,
		Kind:       kind,
		Total:      decimal.Zero,
		ByCategory: make([]domain.CategoryShare, 0),
	}

	categories := make(map[int32]*shareAcc)
	buckets := make(map[int]*domain.BucketTotal)
	split := make(map[int]map[string]decimal.Decimal)

	bucketOf := func(row *domain.AggregateRow) int {
		if period.Kind == domain.PeriodYear {
			return int(row.Date.Month())
		}
		return row.Date.Day()
	}

	for _, row := range rows {
		report.Total = report.Total.Add(row.Total)
		report.Count += row.Count

		var key int32
		name := row.CategoryName
		if kind == domain.TransactionKindIncome || row.CategoryID == nil {
			name = domain.IncomeBreakdownName
		} else {
			key = *row.CategoryID
		}
		acc, ok := categories[key]
		if !ok {
			acc = &shareAcc{name: name, total: decimal.Zero}
			if kind == domain.TransactionKindExpense && row.CategoryID != nil {
				id := *row.CategoryID
				acc.id = &id
			}
			categories[key] = acc
		}
		acc.total = acc.total.Add(row.Total)
		acc.count += row.Count

		if period.Kind == domain.PeriodAll {
			continue
		}
		b := bucketOf(row)
		bt, ok := buckets[b]
		if !ok {
			bt = &domain.BucketTotal{Bucket: b, Total: decimal.Zero}
			buckets[b] = bt
		}
		bt.Total = bt.Total.Add(row.Total)
		bt.Count += row.Count

		if split[b] == nil {
			split[b] = make(map[string]decimal.Decimal)
		}
		split[b][name] = split[b][name].Add(row.Total)
	}

	report.ByCategory = categoryShares(categories)

	switch period.Kind {
	case domain.PeriodDay, domain.PeriodMonth:
		report.ByDay = bucketSeries(period.Days(), buckets)
	case domain.PeriodYear:
		months := make([]int, 12)
		for i := range months {
			months[i] = i + 1
		}
		report.ByMonth = bucketSeries(months, buckets)
	}

	if len(split) > 0 {
		report.CategoryByBucket = bucketSplit(split)
	}
	return report
}

func categoryShares(categories map[int32]*shareAcc) []domain.CategoryShare {
	accs := make([]*shareAcc, 0, len(categories))
	for _, acc := range categories {
		accs = append(accs, acc)
	}
	sort.Slice(accs, func(i, j int) bool {
		a, b := accs[i], accs[j]
		if !a.total.Equal(b.total) {
			return a.total.GreaterThan(b.total)
		}
		if a.name != b.name {
			return a.name < b.name
		}
		return idOrZero(a.id) < idOrZero(b.id)
	})

	amounts := make([]decimal.Decimal, len(accs))
	for i, acc := range accs {
		amounts[i] = acc.total
	}
	percents := domain.PercentShares(amounts)

	shares := make([]domain.CategoryShare, len(accs))
	for i, acc := range accs {
		shares[i] = domain.CategoryShare{
			CategoryID: acc.id,
			Name:       acc.name,
			Total:      acc.total,
			Count:      acc.count,
			Percent:    percents[i],
		}
	}
	return shares
}

// bucketSeries returns one entry per bucket in order, zero-filled
func bucketSeries(order []int, buckets map[int]*domain.BucketTotal) []domain.BucketTotal {
	series := make([]domain.BucketTotal, len(order))
	amounts := make([]decimal.Decimal, len(order))
	for i, b := range order {
		if bt, ok := buckets[b]; ok {
			series[i] = *bt
		} else {
			series[i] = domain.BucketTotal{Bucket: b, Total: decimal.Zero}
		}
		amounts[i] = series[i].Total
	}
	for i, p := range domain.PercentShares(amounts) {
		series[i].Percent = p
	}
	return series
}

func bucketSplit(split map[int]map[string]decimal.Decimal) []domain.BucketCategories {
	keys := make([]int, 0, len(split))
	for b := range split {
		keys = append(keys, b)
	}
	sort.Ints(keys)

	out := make([]domain.BucketCategories, len(keys))
	for i, b := range keys {
		names := make([]string, 0, len(split[b]))
		for name := range split[b] {
			names = append(names, name)
		}
		sort.Strings(names)

		amounts := make([]domain.CategoryAmount, len(names))
		for j, name := range names {
			amounts[j] = domain.CategoryAmount{Name: name, Total: split[b][name]}
		}
		out[i] = domain.BucketCategories{Bucket: b, Categories: amounts}
	}
	return out
}

func idOrZero(id *int32) int32 {
	if id == nil {
		return 0
	}
	return *id
}
