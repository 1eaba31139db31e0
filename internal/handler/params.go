package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/util"
	"github.com/labstack/echo/v4"
)

// now is the clock for defaults such as "today" and "this month"
var now = time.Now

const dateLayout = "2006-01-02"

func parseUserID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidUserID
	}
	return id, nil
}

func parseID(c echo.Context, name string) (int32, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}

// parseKindParam reads ?kind=, defaulting to expense
func parseKindParam(c echo.Context) (domain.TransactionKind, error) {
	return domain.ParseTransactionKind(strings.ToLower(strings.TrimSpace(c.QueryParam("kind"))))
}

// parseDateValue accepts YYYY-MM-DD, DD.MM.YY and DD.MM.YYYY; blank means today
func parseDateValue(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.NormalizeDate(now())
	}
	return util.ParseDate(s)
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ErrInvalidPeriod
	}
	return v, nil
}

// parsePeriod reads ?period=day|month|year|all with year, month and day.
// Missing parts default to today; a missing period means month.
func parsePeriod(c echo.Context) (domain.Period, error) {
	today := now()
	curYear, curMonth := util.CurrentYearMonth(today)
	year, err := queryInt(c, "year", curYear)
	if err != nil {
		return domain.Period{}, err
	}
	month, err := queryInt(c, "month", curMonth)
	if err != nil {
		return domain.Period{}, err
	}
	d, err := queryInt(c, "day", today.Day())
	if err != nil {
		return domain.Period{}, err
	}

	var period domain.Period
	switch domain.PeriodKind(strings.ToLower(c.QueryParam("period"))) {
	case "", domain.PeriodMonth:
		period = domain.MonthPeriod(year, month)
	case domain.PeriodDay:
		period = domain.DayPeriod(year, month, d)
	case domain.PeriodYear:
		period = domain.YearPeriod(year)
	case domain.PeriodAll:
		period = domain.AllTime()
	default:
		return domain.Period{}, domain.ErrInvalidPeriod
	}
	return period, period.Validate()
}
