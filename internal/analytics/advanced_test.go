package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/andreajoa/linktree/backend/internal/models"
)

func insertView(t *testing.T, db *gorm.DB, view models.PageView) {
	t.Helper()
	require.NoError(t, db.Create(&view).Error)
}

func insertBlockClick(t *testing.T, db *gorm.DB, click models.BlockClick) {
	t.Helper()
	require.NoError(t, db.Create(&click).Error)
}

func TestConversionFunnel(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	user := createUser(t, db)
	page := createPage(t, db, user.ID)
	block := createBlock(t, db, page.ID, 0)

	for i := 0; i < 10; i++ {
		insertView(t, db, models.PageView{PageID: page.ID, SessionID: "s1"})
	}
	// Session a: 1 click, session b: 2 clicks, session c: 3 clicks.
	insertBlockClick(t, db, models.BlockClick{PageID: page.ID, BlockID: block.ID, SessionID: "a"})
	for i := 0; i < 2; i++ {
		insertBlockClick(t, db, models.BlockClick{PageID: page.ID, BlockID: block.ID, SessionID: "b"})
	}
	for i := 0; i < 3; i++ {
		insertBlockClick(t, db, models.BlockClick{PageID: page.ID, BlockID: block.ID, SessionID: "c"})
	}

	funnel := svc.ConversionFunnel(context.Background(), page.ID, 30)

	require.Len(t, funnel.Steps, 4)
	assert.Equal(t, int64(10), funnel.Steps[0].Users)
	assert.Equal(t, float64(100), funnel.Steps[0].ConversionRate)
	assert.Equal(t, int64(3), funnel.Steps[1].Users, "sessions with any click")
	assert.Equal(t, int64(2), funnel.Steps[2].Users, "sessions with more than one click")
	assert.Equal(t, int64(1), funnel.Steps[3].Users, "sessions with at least three clicks")

	// Each step is a subset of the previous one.
	for i := 1; i < len(funnel.Steps); i++ {
		assert.LessOrEqual(t, funnel.Steps[i].Users, funnel.Steps[i-1].Users)
	}

	assert.InDelta(t, 30.0, funnel.Steps[1].ConversionRate, 0.01)
	assert.InDelta(t, 70.0, funnel.Steps[1].DropOffRate, 0.01)
	assert.InDelta(t, 66.67, funnel.Steps[2].ConversionRate, 0.01)
	assert.Equal(t, int64(10), funnel.TotalUsers)
	assert.InDelta(t, 10.0, funnel.OverallConversion, 0.01)
}

func TestConversionFunnelStepsNeverIncrease(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	user := createUser(t, db)
	page := createPage(t, db, user.ID)
	block := createBlock(t, db, page.ID, 0)

	// One view and three clicks from the same session. Counting raw click
	// events would put step two above step one; counting sessions keeps the
	// ladder non-increasing.
	insertView(t, db, models.PageView{PageID: page.ID, SessionID: "s1"})
	for i := 0; i < 3; i++ {
		insertBlockClick(t, db, models.BlockClick{PageID: page.ID, BlockID: block.ID, SessionID: "s1"})
	}

	funnel := svc.ConversionFunnel(context.Background(), page.ID, 30)

	require.Len(t, funnel.Steps, 4)
	for i := 1; i < len(funnel.Steps); i++ {
		assert.LessOrEqual(t, funnel.Steps[i].Users, funnel.Steps[i-1].Users,
			"step %q must not exceed step %q", funnel.Steps[i].Name, funnel.Steps[i-1].Name)
	}
	assert.Equal(t, int64(1), funnel.Steps[0].Users)
	assert.Equal(t, int64(1), funnel.Steps[1].Users)
	assert.Equal(t, int64(1), funnel.Steps[2].Users)
	assert.Equal(t, int64(1), funnel.Steps[3].Users)
}

func TestConversionFunnelEmptyPage(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	funnel := svc.ConversionFunnel(context.Background(), "no-such-page", 30)

	require.Len(t, funnel.Steps, 4)
	assert.Equal(t, int64(0), funnel.TotalUsers)
	assert.Equal(t, float64(0), funnel.OverallConversion)
	assert.Equal(t, float64(0), funnel.Steps[1].ConversionRate, "no divide-by-zero on an empty previous step")
}

func TestHeatmapData(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	user := createUser(t, db)
	page := createPage(t, db, user.ID)
	hot := createBlock(t, db, page.ID, 0)
	cold := createBlock(t, db, page.ID, 1)

	for i := 0; i < 4; i++ {
		insertBlockClick(t, db, models.BlockClick{PageID: page.ID, BlockID: hot.ID, SessionID: "s"})
	}
	for i := 0; i < 2; i++ {
		insertBlockClick(t, db, models.BlockClick{PageID: page.ID, BlockID: cold.ID, SessionID: "s"})
	}

	cells := svc.HeatmapData(context.Background(), page.ID, 30)

	require.Len(t, cells, 2)
	assert.Equal(t, hot.ID, cells[0].BlockID)
	assert.Equal(t, 0, cells[0].Position)
	assert.Equal(t, float64(100), cells[0].Intensity, "hottest block anchors the scale")
	assert.Equal(t, cold.ID, cells[1].BlockID)
	assert.InDelta(t, 50.0, cells[1].Intensity, 0.01)
}

func TestHeatmapDataExcludesDeletedBlocks(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	user := createUser(t, db)
	page := createPage(t, db, user.ID)
	kept := createBlock(t, db, page.ID, 0)
	removed := createBlock(t, db, page.ID, 1)

	insertBlockClick(t, db, models.BlockClick{PageID: page.ID, BlockID: kept.ID, SessionID: "s"})
	for i := 0; i < 5; i++ {
		insertBlockClick(t, db, models.BlockClick{PageID: page.ID, BlockID: removed.ID, SessionID: "s"})
	}
	require.NoError(t, db.Delete(removed).Error)

	cells := svc.HeatmapData(context.Background(), page.ID, 30)

	// The deleted block neither appears nor anchors the intensity scale.
	require.Len(t, cells, 1)
	assert.Equal(t, kept.ID, cells[0].BlockID)
	assert.Equal(t, float64(100), cells[0].Intensity)
}

func TestHeatmapDataNoClicks(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	cells := svc.HeatmapData(context.Background(), "no-such-page", 30)

	assert.NotNil(t, cells)
	assert.Empty(t, cells)
}

func TestCohortRetentionWeekly(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	user := createUser(t, db)
	page := createPage(t, db, user.ID)

	// 2026-06-01 is a Monday: the cohort bucket starts there.
	week0 := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	week1 := week0.AddDate(0, 0, 7)

	// Two sessions first seen in week 0; only s1 returns in week 1.
	insertView(t, db, models.PageView{PageID: page.ID, SessionID: "s1", Timestamp: week0})
	insertView(t, db, models.PageView{PageID: page.ID, SessionID: "s2", Timestamp: week0.Add(time.Hour)})
	insertView(t, db, models.PageView{PageID: page.ID, SessionID: "s1", Timestamp: week1})

	cohorts := svc.CohortRetention(context.Background(), page.ID, PeriodWeek)

	require.Len(t, cohorts, 1, "a return visit does not create a new cohort")
	assert.Equal(t, "2026-06-01", cohorts[0].Period)
	assert.Equal(t, int64(2), cohorts[0].UserCount)
	require.Len(t, cohorts[0].RetentionRates, 4)
	assert.Equal(t, 50, cohorts[0].RetentionRates[0])
	assert.Equal(t, 0, cohorts[0].RetentionRates[1])
}

func TestCohortRetentionMonthlyOrdering(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	user := createUser(t, db)
	page := createPage(t, db, user.ID)

	may := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	june := time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC)
	insertView(t, db, models.PageView{PageID: page.ID, SessionID: "old", Timestamp: may})
	insertView(t, db, models.PageView{PageID: page.ID, SessionID: "new", Timestamp: june})

	cohorts := svc.CohortRetention(context.Background(), page.ID, PeriodMonth)

	require.Len(t, cohorts, 2)
	assert.Equal(t, "2026-06-01", cohorts[0].Period, "most recent cohort first")
	assert.Equal(t, "2026-05-01", cohorts[1].Period)
}

func TestCohortRetentionIgnoresSessionlessViews(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	user := createUser(t, db)
	page := createPage(t, db, user.ID)
	insertView(t, db, models.PageView{PageID: page.ID, SessionID: ""})

	cohorts := svc.CohortRetention(context.Background(), page.ID, PeriodWeek)
	assert.Empty(t, cohorts)
}

func TestRealTimeStats(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	user := createUser(t, db)
	page := createPage(t, db, user.ID)
	block := createBlock(t, db, page.ID, 0)

	now := time.Now().UTC()
	insertView(t, db, models.PageView{PageID: page.ID, SessionID: "s1", Timestamp: now.Add(-time.Minute)})
	insertView(t, db, models.PageView{PageID: page.ID, SessionID: "s2", Timestamp: now.Add(-2 * time.Minute)})
	// Too old for the five-minute window.
	insertView(t, db, models.PageView{PageID: page.ID, SessionID: "s3", Timestamp: now.Add(-30 * time.Minute)})

	insertBlockClick(t, db, models.BlockClick{PageID: page.ID, BlockID: block.ID, SessionID: "s1", Timestamp: now.Add(-time.Minute)})
	insertBlockClick(t, db, models.BlockClick{PageID: page.ID, BlockID: block.ID, SessionID: "s1", Timestamp: now.Add(-40 * time.Minute)})

	stats := svc.RealTimeStats(context.Background(), page.ID)

	assert.Equal(t, int64(2), stats.ActiveVisitors)
	assert.Equal(t, int64(1), stats.RecentClicks)
	require.Len(t, stats.TopBlocks, 1)
	assert.Equal(t, block.ID, stats.TopBlocks[0].BlockID)
	assert.Equal(t, int64(2), stats.TopBlocks[0].Clicks, "top blocks cover the last hour")
}

func TestGeographicStats(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	user := createUser(t, db)
	page := createPage(t, db, user.ID)

	for i := 0; i < 3; i++ {
		insertView(t, db, models.PageView{PageID: page.ID, Country: "US", City: "Portland", SessionID: "s"})
	}
	insertView(t, db, models.PageView{PageID: page.ID, Country: "DE", City: "Berlin", SessionID: "s"})
	insertView(t, db, models.PageView{PageID: page.ID, Country: "", City: "", SessionID: "s"})

	stats := svc.GeographicStats(context.Background(), page.ID, 30)

	require.Len(t, stats.Countries, 2)
	assert.Equal(t, CountryCount{Country: "US", Visitors: 3}, stats.Countries[0])
	require.Len(t, stats.Cities, 2)
	assert.Equal(t, CityCount{City: "Portland", Country: "US", Visitors: 3}, stats.Cities[0])
}

func TestPageDeviceStats(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	user := createUser(t, db)
	page := createPage(t, db, user.ID)

	insertView(t, db, models.PageView{PageID: page.ID, Device: "mobile", Browser: "Safari 17.0", OS: "iOS 17.0", SessionID: "s"})
	insertView(t, db, models.PageView{PageID: page.ID, Device: "mobile", Browser: "Safari 17.0", OS: "iOS 17.0", SessionID: "s"})
	insertView(t, db, models.PageView{PageID: page.ID, Device: "desktop", Browser: "Chrome 120.0.0.0", OS: "macOS 10.15.7", SessionID: "s"})

	stats := svc.PageDeviceStats(context.Background(), page.ID, 30)

	require.Len(t, stats.Devices, 2)
	assert.Equal(t, DimensionCount{Value: "mobile", Clicks: 2}, stats.Devices[0])
	require.Len(t, stats.Browsers, 2)
	assert.Equal(t, "Safari 17.0", stats.Browsers[0].Value)
	require.Len(t, stats.OperatingSystems, 2)
}

func TestPerformanceMetrics(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	user := createUser(t, db)
	page := createPage(t, db, user.ID)

	// Durations: 10 and 20 count, 0 means "not reported" and is excluded.
	insertView(t, db, models.PageView{PageID: page.ID, SessionID: "s1", Duration: 10, Referrer: "https://twitter.com/"})
	insertView(t, db, models.PageView{PageID: page.ID, SessionID: "s2", Duration: 20, Referrer: "https://twitter.com/"})
	insertView(t, db, models.PageView{PageID: page.ID, SessionID: "s2", Duration: 0, Referrer: "https://google.com/"})

	m := svc.PerformanceMetrics(context.Background(), page.ID, 30)

	assert.Equal(t, 15, m.AverageDuration)
	// s1 bounced (single view), s2 did not.
	assert.InDelta(t, 50.0, m.BounceRate, 0.01)
	require.Len(t, m.TopReferrers, 2)
	assert.Equal(t, "https://twitter.com/", m.TopReferrers[0].Referrer)
	assert.Equal(t, int64(2), m.TopReferrers[0].Visitors)
}

func TestPerformanceMetricsEmptyPage(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	m := svc.PerformanceMetrics(context.Background(), "no-such-page", 30)

	assert.Equal(t, 0, m.AverageDuration)
	assert.Equal(t, float64(0), m.BounceRate)
	assert.Empty(t, m.TopReferrers)
}
