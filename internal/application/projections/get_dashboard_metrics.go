package projections

import (
	"context"
	"log/slog"
	"time"

	"retain/internal/domain/expiration"
)

// DashboardMetrics holds the headline counts shown above the expiration list.
type DashboardMetrics struct {
	LapsedThisMonth   int `json:"lapsedThisMonth"`
	UpcomingRenewals  int `json:"upcomingRenewals"`
	LapsedLastMonth   int `json:"lapsedLastMonth"`
	LapsedThisQuarter int `json:"lapsedThisQuarter"`
	UpcomingNextMonth int `json:"upcomingNextMonth"`
}

// GetDashboardMetricsQuery carries query parameters for the metric cards.
type GetDashboardMetricsQuery struct {
	Now time.Time // zero means time.Now()
}

// GetDashboardMetricsDeps holds dependencies for GetDashboardMetrics.
type GetDashboardMetricsDeps struct {
	Expirations ExpirationSource
}

// QueryGetDashboardMetrics counts expirations falling in a set of calendar
// windows anchored at today. Records with an unparsable end date count in no
// window.
func QueryGetDashboardMetrics(ctx context.Context, query GetDashboardMetricsQuery, deps GetDashboardMetricsDeps) (DashboardMetrics, error) {
	records, err := deps.Expirations.List(ctx)
	if err != nil {
		return DashboardMetrics{}, err
	}

	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := expiration.Midnight(now)

	startOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	startOfLastMonth := startOfMonth.AddDate(0, -1, 0)
	startOfNextMonth := startOfMonth.AddDate(0, 1, 0)
	endOfNextMonth := startOfMonth.AddDate(0, 2, 0).AddDate(0, 0, -1)

	quarterStartMonth := ((int(today.Month())-1)/3)*3 + 1
	startOfQuarter := time.Date(today.Year(), time.Month(quarterStartMonth), 1, 0, 0, 0, 0, today.Location())

	var m DashboardMetrics
	skipped := 0
	for _, rec := range records {
		end, ok := rec.EndDateAt()
		if !ok {
			skipped++
			continue
		}
		if !end.Before(startOfMonth) && end.Before(startOfNextMonth) && end.Before(today) {
			m.LapsedThisMonth++
		}
		if days, ok := rec.DaysUntilEnd(today); ok && days >= 0 && days <= 30 {
			m.UpcomingRenewals++
		}
		if !end.Before(startOfLastMonth) && end.Before(startOfMonth) {
			m.LapsedLastMonth++
		}
		if !end.Before(startOfQuarter) && end.Before(today) {
			m.LapsedThisQuarter++
		}
		if !end.Before(startOfNextMonth) && !end.After(endOfNextMonth) {
			m.UpcomingNextMonth++
		}
	}
	if skipped > 0 {
		slog.Debug("metrics_unparsable_end_dates", "count", skipped)
	}
	return m, nil
}
