package service

import (
	"context"
	"strings"
	"time"

	"bizledger/internal/cache"
	"bizledger/internal/domain"
	"bizledger/internal/repository"

	"github.com/shopspring/decimal"
)

const defaultRecentSales = 5

var statsKey = cache.Key("dashboard", "stats")

func monthlyKey(month time.Time) string {
	return cache.Key("analytics", "monthly", month.Format("2006-01"))
}

func (s *Service) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	return readThrough(ctx, s, statsKey, s.store.Stats)
}

// RecentSales returns the newest sales, five unless limit says otherwise.
func (s *Service) RecentSales(ctx context.Context, limit int) ([]domain.RecentSale, error) {
	if limit <= 0 {
		limit = defaultRecentSales
	}
	views, err := s.ListSales(ctx, repository.SaleListFilter{Limit: limit})
	if err != nil {
		return nil, err
	}
	recent := make([]domain.RecentSale, 0, len(views))
	for _, v := range views {
		recent = append(recent, domain.RecentSale{
			ID:         v.ID,
			ClientName: v.ClientName,
			Amount:     v.TotalAmount,
			Date:       v.Date,
		})
	}
	return recent, nil
}

// MonthlyAnalytics returns one point per calendar day of the month holding
// at, in the service location.
func (s *Service) MonthlyAnalytics(ctx context.Context, at time.Time) ([]domain.ChartPoint, error) {
	start := MonthStart(at, s.loc)
	return readThrough(ctx, s, monthlyKey(start), func(ctx context.Context) ([]domain.ChartPoint, error) {
		totals, err := s.store.DailyTotals(ctx, start, start.AddDate(0, 1, 0), s.loc)
		if err != nil {
			return nil, err
		}
		return MonthlySeries(start, totals), nil
	})
}

// MonthStart is midnight on the first day of the month holding at, in loc.
func MonthStart(at time.Time, loc *time.Location) time.Time {
	local := at.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

// MonthlySeries expands per-day totals into a dense series covering every day
// of month's calendar month. Days without totals are zero.
func MonthlySeries(month time.Time, totals []domain.DayTotal) []domain.ChartPoint {
	byDay := make(map[string]domain.DayTotal, len(totals))
	for _, t := range totals {
		byDay[t.Day] = t
	}

	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	points := make([]domain.ChartPoint, 0, 31)
	for day := first; day.Month() == first.Month(); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		point := domain.ChartPoint{
			Date:    day.Format("02 Jan"),
			Day:     key,
			Revenue: decimal.Zero,
			Profit:  decimal.Zero,
		}
		if t, ok := byDay[key]; ok {
			point.Revenue = t.Revenue
			point.Profit = t.Profit
		}
		points = append(points, point)
	}
	return points
}

// ParseMonthParam accepts YYYY-MM, YYYY-MM-DD or RFC 3339. Dates without a
// zone are read in loc. An empty string means now.
func ParseMonthParam(raw string, loc *time.Location, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.In(loc), nil
	}
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, invalidf("date must be YYYY-MM, YYYY-MM-DD or RFC3339")
	}
	return t, nil
}
