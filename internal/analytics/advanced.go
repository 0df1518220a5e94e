package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/andreajoa/linktree/backend/internal/models"
)

// Engagement thresholds for the funnel ladder. Fixed policy, not
// configuration: step 3 requires more than one click in a session, step 4
// at least three.
const (
	engagedClickThreshold   = 1 // strictly more than this
	convertedClickThreshold = 3 // at least this
)

// ConversionFunnel computes the fixed four-step engagement ladder for a
// page over the trailing window: page views, sessions with any block click,
// engaged sessions (>1 click), converted sessions (>=3 clicks). Steps 2-4
// count session populations, so each is a subset of the step before and the
// user counts never increase down the ladder. Each step's conversion rate is
// relative to the previous step; step 1 is the 100% baseline. Zeroed funnel
// on query error.
func (s *Service) ConversionFunnel(ctx context.Context, pageID string, days int) Funnel {
	start := time.Now()
	from, to := window(days)

	var pageViews int64
	err := s.db.WithContext(ctx).Model(&models.PageView{}).
		Where("page_id = ? AND timestamp >= ? AND timestamp <= ?", pageID, from, to).
		Count(&pageViews).Error
	if err != nil {
		observe("conversion_funnel", start, err)
		return Funnel{Steps: []FunnelStep{}}
	}

	interacted, err := s.sessionsWithClicks(ctx, pageID, from, to, 1)
	if err != nil {
		observe("conversion_funnel", start, err)
		return Funnel{Steps: []FunnelStep{}}
	}

	engaged, err := s.sessionsWithClicks(ctx, pageID, from, to, engagedClickThreshold+1)
	if err != nil {
		observe("conversion_funnel", start, err)
		return Funnel{Steps: []FunnelStep{}}
	}

	converted, err := s.sessionsWithClicks(ctx, pageID, from, to, convertedClickThreshold)
	if err != nil {
		observe("conversion_funnel", start, err)
		return Funnel{Steps: []FunnelStep{}}
	}

	steps := []FunnelStep{
		{Name: "Page Views", Users: pageViews, ConversionRate: 100, DropOffRate: 0},
		funnelStep("First Interaction", interacted, pageViews),
		funnelStep("Engaged Users", engaged, interacted),
		funnelStep("Conversions", converted, engaged),
	}

	overall := 0.0
	if pageViews > 0 {
		overall = float64(converted) / float64(pageViews) * 100
	}

	observe("conversion_funnel", start, nil)
	return Funnel{
		Steps:             steps,
		TotalUsers:        pageViews,
		OverallConversion: overall,
	}
}

// sessionsWithClicks counts sessions on a page with at least minClicks
// block clicks in the window. Sessions without an id are excluded.
func (s *Service) sessionsWithClicks(ctx context.Context, pageID string, from, to time.Time, minClicks int) (int64, error) {
	var sessions []string
	err := s.db.WithContext(ctx).Model(&models.BlockClick{}).
		Select("session_id").
		Where("page_id = ? AND timestamp >= ? AND timestamp <= ? AND session_id <> ''", pageID, from, to).
		Group("session_id").
		Having("COUNT(*) >= ?", minClicks).
		Pluck("session_id", &sessions).Error
	if err != nil {
		return 0, err
	}
	return int64(len(sessions)), nil
}

// funnelStep derives a step's rates from its predecessor. A zero previous
// step yields 0% conversion rather than dividing by zero.
func funnelStep(name string, users, previous int64) FunnelStep {
	step := FunnelStep{Name: name, Users: users, DropOffRate: 100}
	if previous > 0 {
		step.ConversionRate = float64(users) / float64(previous) * 100
		step.DropOffRate = 100 - step.ConversionRate
	}
	return step
}

// HeatmapData returns per-block click counts for a page, normalized to an
// intensity between 0 and 100 relative to the hottest block. Clicks on
// blocks that were since removed from the page are excluded. A page with no
// block clicks yields an empty slice, never a divide-by-zero.
func (s *Service) HeatmapData(ctx context.Context, pageID string, days int) []HeatmapCell {
	start := time.Now()
	from, to := window(days)

	var cells []HeatmapCell
	err := s.db.WithContext(ctx).Model(&models.BlockClick{}).
		Select("block_clicks.block_id AS block_id, blocks.position AS position, COUNT(*) AS clicks").
		Joins("JOIN blocks ON blocks.id = block_clicks.block_id AND blocks.deleted_at IS NULL").
		Where("block_clicks.page_id = ? AND block_clicks.timestamp >= ? AND block_clicks.timestamp <= ?", pageID, from, to).
		Group("block_clicks.block_id, blocks.position").
		Order("clicks DESC").
		Scan(&cells).Error
	if err != nil {
		observe("heatmap_data", start, err)
		return []HeatmapCell{}
	}
	if len(cells) == 0 {
		observe("heatmap_data", start, nil)
		return []HeatmapCell{}
	}

	maxClicks := cells[0].Clicks
	for i := range cells {
		cells[i].Intensity = float64(cells[i].Clicks) / float64(maxClicks) * 100
	}

	observe("heatmap_data", start, nil)
	return cells
}

// sessionVisit is the raw material for cohort bucketing.
type sessionVisit struct {
	SessionID string
	Timestamp time.Time
}

// CohortRetention groups sessions into first-seen period buckets (week or
// month) and reports, for offsets 1-4 after each cohort period, the
// percentage of the cohort that returned. Zero-size cohorts are excluded;
// results are most-recent-cohort-first, capped at 12 cohorts.
func (s *Service) CohortRetention(ctx context.Context, pageID string, periodType PeriodType) []Cohort {
	start := time.Now()

	var visits []sessionVisit
	err := s.db.WithContext(ctx).Model(&models.PageView{}).
		Select("session_id, timestamp").
		Where("page_id = ? AND session_id <> ''", pageID).
		Order("timestamp ASC").
		Scan(&visits).Error
	if err != nil {
		observe("cohort_retention", start, err)
		return []Cohort{}
	}

	// First-seen period per session, and the set of periods each session
	// was active in. Bucketing runs in Go so the same aggregation works on
	// postgres and the sqlite test store.
	firstSeen := make(map[string]time.Time)
	active := make(map[string]map[time.Time]bool)
	for _, v := range visits {
		period := truncatePeriod(v.Timestamp.UTC(), periodType)
		if _, ok := firstSeen[v.SessionID]; !ok {
			firstSeen[v.SessionID] = period
		}
		if active[v.SessionID] == nil {
			active[v.SessionID] = make(map[time.Time]bool)
		}
		active[v.SessionID][period] = true
	}

	cohortSize := make(map[time.Time]int64)
	returned := make(map[time.Time][5]int64)
	for sessionID, cohort := range firstSeen {
		cohortSize[cohort]++
		counts := returned[cohort]
		for period := range active[sessionID] {
			offset := periodOffset(cohort, period, periodType)
			if offset >= 1 && offset <= 4 {
				counts[offset]++
			}
		}
		returned[cohort] = counts
	}

	periods := make([]time.Time, 0, len(cohortSize))
	for period := range cohortSize {
		periods = append(periods, period)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].After(periods[j]) })
	if len(periods) > 12 {
		periods = periods[:12]
	}

	cohorts := make([]Cohort, 0, len(periods))
	for _, period := range periods {
		size := cohortSize[period]
		if size == 0 {
			continue
		}
		counts := returned[period]
		rates := make([]int, 4)
		for offset := 1; offset <= 4; offset++ {
			rates[offset-1] = int(math.Round(float64(counts[offset]) / float64(size) * 100))
		}
		cohorts = append(cohorts, Cohort{
			Period:         period.Format("2006-01-02"),
			UserCount:      size,
			RetentionRates: rates,
		})
	}

	observe("cohort_retention", start, nil)
	return cohorts
}

// truncatePeriod floors t to the start of its week (Monday) or month.
func truncatePeriod(t time.Time, periodType PeriodType) time.Time {
	if periodType == PeriodMonth {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	weekday := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -weekday)
}

// periodOffset counts whole periods between a cohort bucket and a later
// bucket.
func periodOffset(cohort, period time.Time, periodType PeriodType) int {
	if periodType == PeriodMonth {
		return (period.Year()-cohort.Year())*12 + int(period.Month()) - int(cohort.Month())
	}
	return int(period.Sub(cohort).Hours() / (24 * 7))
}

// RealTimeStats returns the live activity snapshot for a page: visitors and
// clicks in the last five minutes plus the top five blocks over the last
// hour.
func (s *Service) RealTimeStats(ctx context.Context, pageID string) RealTimeStats {
	start := time.Now()
	now := time.Now().UTC()
	fiveMinAgo := now.Add(-5 * time.Minute)
	hourAgo := now.Add(-time.Hour)

	stats := RealTimeStats{TopBlocks: []TopBlock{}}

	err := s.db.WithContext(ctx).Model(&models.PageView{}).
		Where("page_id = ? AND timestamp >= ?", pageID, fiveMinAgo).
		Count(&stats.ActiveVisitors).Error
	if err != nil {
		observe("realtime_stats", start, err)
		return RealTimeStats{TopBlocks: []TopBlock{}}
	}

	err = s.db.WithContext(ctx).Model(&models.BlockClick{}).
		Where("page_id = ? AND timestamp >= ?", pageID, fiveMinAgo).
		Count(&stats.RecentClicks).Error
	if err != nil {
		observe("realtime_stats", start, err)
		return RealTimeStats{TopBlocks: []TopBlock{}}
	}

	var top []TopBlock
	err = s.db.WithContext(ctx).Model(&models.BlockClick{}).
		Select("block_id, COUNT(*) AS clicks").
		Where("page_id = ? AND timestamp >= ?", pageID, hourAgo).
		Group("block_id").
		Order("clicks DESC").
		Limit(5).
		Scan(&top).Error
	if err != nil {
		observe("realtime_stats", start, err)
		return RealTimeStats{TopBlocks: []TopBlock{}}
	}
	if top != nil {
		stats.TopBlocks = top
	}

	observe("realtime_stats", start, nil)
	return stats
}

// GeographicStats returns the top 20 countries and top 10 cities for a
// page's views over the trailing window.
func (s *Service) GeographicStats(ctx context.Context, pageID string, days int) GeographicStats {
	start := time.Now()
	from, to := window(days)

	stats := GeographicStats{Countries: []CountryCount{}, Cities: []CityCount{}}

	var countries []CountryCount
	err := s.db.WithContext(ctx).Model(&models.PageView{}).
		Select("country, COUNT(*) AS visitors").
		Where("page_id = ? AND timestamp >= ? AND timestamp <= ? AND country <> ''", pageID, from, to).
		Group("country").
		Order("visitors DESC").
		Limit(20).
		Scan(&countries).Error
	if err != nil {
		observe("geographic_stats", start, err)
		return GeographicStats{Countries: []CountryCount{}, Cities: []CityCount{}}
	}
	if countries != nil {
		stats.Countries = countries
	}

	var cities []CityCount
	err = s.db.WithContext(ctx).Model(&models.PageView{}).
		Select("city, country, COUNT(*) AS visitors").
		Where("page_id = ? AND timestamp >= ? AND timestamp <= ? AND city <> '' AND country <> ''", pageID, from, to).
		Group("city, country").
		Order("visitors DESC").
		Limit(10).
		Scan(&cities).Error
	if err != nil {
		observe("geographic_stats", start, err)
		return GeographicStats{Countries: []CountryCount{}, Cities: []CityCount{}}
	}
	if cities != nil {
		stats.Cities = cities
	}

	observe("geographic_stats", start, nil)
	return stats
}

// PageDeviceStats returns device, browser (top 10), and OS (top 10)
// breakdowns for a page's views over the trailing window.
func (s *Service) PageDeviceStats(ctx context.Context, pageID string, days int) DeviceStats {
	start := time.Now()
	from, to := window(days)

	empty := DeviceStats{
		Devices:          []DimensionCount{},
		Browsers:         []DimensionCount{},
		OperatingSystems: []DimensionCount{},
	}
	stats := empty

	group := func(column string, limit int) ([]DimensionCount, error) {
		var rows []DimensionCount
		q := s.db.WithContext(ctx).Model(&models.PageView{}).
			Select(column+" AS value, COUNT(*) AS clicks").
			Where("page_id = ? AND timestamp >= ? AND timestamp <= ?", pageID, from, to).
			Where(column + " <> ''").
			Group(column).
			Order("clicks DESC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		if err := q.Scan(&rows).Error; err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []DimensionCount{}
		}
		return rows, nil
	}

	var err error
	if stats.Devices, err = group("device", 0); err != nil {
		observe("device_stats", start, err)
		return empty
	}
	if stats.Browsers, err = group("browser", 10); err != nil {
		observe("device_stats", start, err)
		return empty
	}
	if stats.OperatingSystems, err = group("os", 10); err != nil {
		observe("device_stats", start, err)
		return empty
	}

	observe("device_stats", start, nil)
	return stats
}

// PerformanceMetrics returns average view duration, bounce rate (share of
// sessions with a single view), and the top 10 referrers for a page.
func (s *Service) PerformanceMetrics(ctx context.Context, pageID string, days int) PerformanceMetrics {
	start := time.Now()
	from, to := window(days)

	empty := PerformanceMetrics{TopReferrers: []ReferrerCount{}}
	result := empty

	var avg struct{ Avg float64 }
	err := s.db.WithContext(ctx).Model(&models.PageView{}).
		Select("COALESCE(AVG(duration), 0) AS avg").
		Where("page_id = ? AND timestamp >= ? AND timestamp <= ? AND duration > 0", pageID, from, to).
		Scan(&avg).Error
	if err != nil {
		observe("performance_metrics", start, err)
		return empty
	}
	result.AverageDuration = int(math.Round(avg.Avg))

	var sessionCounts []struct {
		SessionID string
		Views     int64
	}
	err = s.db.WithContext(ctx).Model(&models.PageView{}).
		Select("session_id, COUNT(*) AS views").
		Where("page_id = ? AND timestamp >= ? AND timestamp <= ? AND session_id <> ''", pageID, from, to).
		Group("session_id").
		Scan(&sessionCounts).Error
	if err != nil {
		observe("performance_metrics", start, err)
		return empty
	}
	if len(sessionCounts) > 0 {
		var bounced int64
		for _, sc := range sessionCounts {
			if sc.Views == 1 {
				bounced++
			}
		}
		result.BounceRate = float64(bounced) / float64(len(sessionCounts)) * 100
	}

	var referrers []ReferrerCount
	err = s.db.WithContext(ctx).Model(&models.PageView{}).
		Select("referrer, COUNT(*) AS visitors").
		Where("page_id = ? AND timestamp >= ? AND timestamp <= ? AND referrer <> ''", pageID, from, to).
		Group("referrer").
		Order("visitors DESC").
		Limit(10).
		Scan(&referrers).Error
	if err != nil {
		observe("performance_metrics", start, err)
		return empty
	}
	if referrers != nil {
		result.TopReferrers = referrers
	}

	observe("performance_metrics", start, nil)
	return result
}
