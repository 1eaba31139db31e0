package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dafibh/ledger/ledger-backend/internal/chart"
	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/util"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ChartRequest selects one chart image
type ChartRequest struct {
	UserID int64
	Type   domain.ChartType
	Year   int
	Month  int
	// MaxWidth scales the image down when positive
	MaxWidth int
}

// ChartService renders report charts and caches the images
type ChartService struct {
	reports  *ReportService
	renderer *chart.Renderer
	cache    domain.ReportImageCache
	logger   zerolog.Logger
}

// NewChartService creates a new ChartService
func NewChartService(reports *ReportService, renderer *chart.Renderer, cache domain.ReportImageCache) *ChartService {
	return &ChartService{
		reports:  reports,
		renderer: renderer,
		cache:    cache,
		logger:   log.With().Str("component", "chart_service").Logger(),
	}
}

// Render returns the PNG for a chart, from cache when possible.
// A period without data returns domain.ErrNoReportData.
func (s *ChartService) Render(ctx context.Context, req ChartRequest) ([]byte, error) {
	if !req.Type.NeedsMonth() {
		req.Month = 0
	}
	key := domain.ReportImageKey{Type: req.Type, UserID: req.UserID, Year: req.Year, Month: req.Month}
	if _, err := domain.ParseChartType(string(req.Type)); err != nil {
		return nil, err
	}
	if err := key.Period().Validate(); err != nil {
		return nil, err
	}

	img := s.cached(ctx, key)
	if img == nil {
		gen, genErr := s.generation(ctx, key.UserID)
		var err error
		img, err = s.draw(key)
		if err != nil {
			return nil, err
		}
		if genErr == nil {
			s.store(ctx, key, gen, img)
		}
	}

	if req.MaxWidth > 0 {
		return chart.Resize(img, req.MaxWidth)
	}
	return img, nil
}

// cached returns nil on a miss or a cache error
func (s *ChartService) cached(ctx context.Context, key domain.ReportImageKey) []byte {
	if s.cache == nil {
		return nil
	}
	img, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key.String()).Msg("Report image cache read failed")
		return nil
	}
	if !ok {
		return nil
	}
	s.logger.Debug().Str("key", key.String()).Msg("Report image served from cache")
	return img
}

// generation reads the user's cache generation before drawing. On error the image is not cached.
func (s *ChartService) generation(ctx context.Context, userID int64) (int64, error) {
	if s.cache == nil {
		return 0, nil
	}
	gen, err := s.cache.Generation(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("Report image cache generation read failed")
	}
	return gen, err
}

func (s *ChartService) store(ctx context.Context, key domain.ReportImageKey, gen int64, img []byte) {
	if s.cache == nil {
		return
	}
	stored, err := s.cache.Set(ctx, key, gen, img)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key.String()).Msg("Report image cache write failed")
		return
	}
	if !stored {
		s.logger.Debug().Str("key", key.String()).Msg("Report image changed while drawing, not cached")
	}
}

func (s *ChartService) draw(key domain.ReportImageKey) ([]byte, error) {
	var img []byte
	var err error
	switch key.Type {
	case domain.ChartMonthly:
		img, err = s.categoryReport(key)
	case domain.ChartDaily:
		img, err = s.dailyReport(key)
	case domain.ChartYearly:
		img, err = s.yearlyReport(key)
	case domain.ChartIncomeExpenseDaily, domain.ChartIncomeExpenseMonthly:
		img, err = s.incomeExpense(key)
	default:
		return nil, fmt.Errorf("%w: unknown chart type %q", domain.ErrValidation, key.Type)
	}
	if errors.Is(err, chart.ErrNothingToDraw) {
		return nil, domain.ErrNoReportData
	}
	return img, err
}

// categoryReport is the month's category pie above its daily totals
func (s *ChartService) categoryReport(key domain.ReportImageKey) ([]byte, error) {
	report, err := s.expenseReport(key)
	if err != nil {
		return nil, err
	}

	slices := make([]chart.Slice, len(report.ByCategory))
	for i, share := range report.ByCategory {
		slices[i] = chart.Slice{Label: share.Name, Value: share.Total}
	}
	pie, err := s.renderer.Pie(fmt.Sprintf("Expenses %s: %s", report.Period, report.Total.StringFixed(2)), slices)
	if err != nil {
		return nil, err
	}
	bars, err := s.renderer.Bars(fmt.Sprintf("Daily expenses %s", report.Period), bucketSlices(report.ByDay, strconv.Itoa))
	if err != nil {
		return nil, err
	}
	return chart.Compose(pie, bars)
}

func (s *ChartService) dailyReport(key domain.ReportImageKey) ([]byte, error) {
	report, err := s.expenseReport(key)
	if err != nil {
		return nil, err
	}

	stacks := make([]chart.Stack, len(report.CategoryByBucket))
	for i, bucket := range report.CategoryByBucket {
		parts := make([]chart.Slice, len(bucket.Categories))
		for j, c := range bucket.Categories {
			parts[j] = chart.Slice{Label: c.Name, Value: c.Total}
		}
		stacks[i] = chart.Stack{Label: strconv.Itoa(bucket.Bucket), Parts: parts}
	}
	return s.renderer.StackedBars(fmt.Sprintf("Expenses by category per day %s", report.Period), stacks)
}

func (s *ChartService) yearlyReport(key domain.ReportImageKey) ([]byte, error) {
	report, err := s.expenseReport(key)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("Expenses %s: %s", report.Period, report.Total.StringFixed(2))
	return s.renderer.Bars(title, bucketSlices(report.ByMonth, util.MonthLabel))
}

func (s *ChartService) incomeExpense(key domain.ReportImageKey) ([]byte, error) {
	period := key.Period()

	var expense, income *domain.Report
	var g errgroup.Group
	g.Go(func() (err error) {
		expense, err = s.reports.Aggregate(key.UserID, period, domain.TransactionKindExpense)
		return err
	})
	g.Go(func() (err error) {
		income, err = s.reports.Aggregate(key.UserID, period, domain.TransactionKindIncome)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if expense.Count == 0 && income.Count == 0 {
		return nil, domain.ErrNoReportData
	}

	expenseBuckets, incomeBuckets, label := expense.ByDay, income.ByDay, strconv.Itoa
	if period.Kind == domain.PeriodYear {
		expenseBuckets, incomeBuckets, label = expense.ByMonth, income.ByMonth, util.MonthLabel
	}

	labels := make([]string, len(expenseBuckets))
	incomeTotals := make([]decimal.Decimal, len(expenseBuckets))
	expenseTotals := make([]decimal.Decimal, len(expenseBuckets))
	for i := range expenseBuckets {
		labels[i] = label(expenseBuckets[i].Bucket)
		expenseTotals[i] = expenseBuckets[i].Total
		incomeTotals[i] = incomeBuckets[i].Total
	}

	net := income.Total.Sub(expense.Total)
	title := fmt.Sprintf("Income vs expense %s, net %s", period, net.StringFixed(2))
	return s.renderer.IncomeExpenseLines(title, labels, incomeTotals, expenseTotals)
}

func (s *ChartService) expenseReport(key domain.ReportImageKey) (*domain.Report, error) {
	report, err := s.reports.Aggregate(key.UserID, key.Period(), domain.TransactionKindExpense)
	if err != nil {
		return nil, err
	}
	if report.Count == 0 {
		return nil, domain.ErrNoReportData
	}
	return report, nil
}

func bucketSlices(buckets []domain.BucketTotal, label func(int) string) []chart.Slice {
	slices := make([]chart.Slice, len(buckets))
	for i, b := range buckets {
		slices[i] = chart.Slice{Label: label(b.Bucket), Value: b.Total}
	}
	return slices
}
