package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/andreajoa/linktree/backend/internal/models"
)

// dimensionColumns is the allowlist of groupable event columns. Grouping is
// only ever done over these fixed names; the dimension string from the API
// never reaches SQL directly.
var dimensionColumns = map[string]string{
	"country":  "country",
	"device":   "device",
	"browser":  "browser",
	"os":       "os",
	"referrer": "referrer",
}

// TotalsSummary computes the rolling-window totals for one user: total
// clicks, unique visitors (distinct IPs, see Summary), and the top 5 links
// by in-window clicks. Returns zeroed defaults on query error.
func (s *Service) TotalsSummary(ctx context.Context, userID string, days int) Summary {
	start := time.Now()
	summary := Summary{TopLinks: []TopLink{}}

	from, to := window(days)

	err := s.db.WithContext(ctx).Model(&models.LinkClick{}).
		Where("user_id = ? AND timestamp >= ? AND timestamp <= ?", userID, from, to).
		Count(&summary.TotalClicks).Error
	if err != nil {
		observe("totals_summary", start, err)
		return Summary{TopLinks: []TopLink{}}
	}

	err = s.db.WithContext(ctx).Model(&models.LinkClick{}).
		Where("user_id = ? AND timestamp >= ? AND timestamp <= ?", userID, from, to).
		Distinct("ip").
		Count(&summary.UniqueVisitors).Error
	if err != nil {
		observe("totals_summary", start, err)
		return Summary{TopLinks: []TopLink{}}
	}

	var top []TopLink
	err = s.db.WithContext(ctx).Model(&models.LinkClick{}).
		Select("link_clicks.link_id AS id, links.title AS title, COUNT(*) AS clicks").
		Joins("JOIN links ON links.id = link_clicks.link_id").
		Where("link_clicks.user_id = ? AND link_clicks.timestamp >= ? AND link_clicks.timestamp <= ?", userID, from, to).
		Group("link_clicks.link_id, links.title").
		Order("clicks DESC").
		Limit(5).
		Scan(&top).Error
	if err != nil {
		observe("totals_summary", start, err)
		return Summary{TopLinks: []TopLink{}}
	}
	if top != nil {
		summary.TopLinks = top
	}

	observe("totals_summary", start, nil)
	return summary
}

// GroupedStats counts a user's clicks grouped by one dimension (country,
// device, browser, os, referrer), sorted by count descending. Rows with an
// empty dimension value are excluded. Unknown dimensions and query errors
// both yield an empty slice.
func (s *Service) GroupedStats(ctx context.Context, userID string, days int, dimension string) []DimensionCount {
	start := time.Now()

	column, ok := dimensionColumns[dimension]
	if !ok {
		observe("grouped_stats", start, fmt.Errorf("unknown dimension %q", dimension))
		return []DimensionCount{}
	}

	from, to := window(days)

	var rows []DimensionCount
	err := s.db.WithContext(ctx).Model(&models.LinkClick{}).
		Select(column+" AS value, COUNT(*) AS clicks").
		Where("user_id = ? AND timestamp >= ? AND timestamp <= ?", userID, from, to).
		Where(column + " <> ''").
		Group(column).
		Order("clicks DESC").
		Scan(&rows).Error
	if err != nil {
		observe("grouped_stats", start, err)
		return []DimensionCount{}
	}
	if rows == nil {
		rows = []DimensionCount{}
	}

	observe("grouped_stats", start, nil)
	return rows
}

// LinkStats returns per-day click counts for a single link over the
// trailing window, oldest day first. Days without clicks are omitted.
func (s *Service) LinkStats(ctx context.Context, linkID string, days int) []DailyCount {
	start := time.Now()
	from, to := window(days)

	var timestamps []time.Time
	err := s.db.WithContext(ctx).Model(&models.LinkClick{}).
		Where("link_id = ? AND timestamp >= ? AND timestamp <= ?", linkID, from, to).
		Order("timestamp ASC").
		Pluck("timestamp", &timestamps).Error
	if err != nil {
		observe("link_stats", start, err)
		return []DailyCount{}
	}

	// Bucket by calendar day in Go so the query stays portable across
	// postgres and the sqlite test store.
	counts := make(map[string]int64, len(timestamps))
	order := make([]string, 0, len(timestamps))
	for _, ts := range timestamps {
		day := ts.UTC().Format("2006-01-02")
		if _, seen := counts[day]; !seen {
			order = append(order, day)
		}
		counts[day]++
	}

	result := make([]DailyCount, 0, len(order))
	for _, day := range order {
		result = append(result, DailyCount{Date: day, Clicks: counts[day]})
	}

	observe("link_stats", start, nil)
	return result
}
