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

// insertClick writes a raw click event directly, bypassing the tracking
// path, so aggregation tests can control timestamps.
func insertClick(t *testing.T, db *gorm.DB, click models.LinkClick) {
	t.Helper()
	require.NoError(t, db.Create(&click).Error)
}

func daysAgo(n int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -n)
}

func TestTotalsSummary(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	user := createUser(t, db)
	link1 := createLink(t, db, user.ID, "portfolio")
	link2 := createLink(t, db, user.ID, "blog")

	for i := 0; i < 3; i++ {
		insertClick(t, db, models.LinkClick{LinkID: link1.ID, UserID: user.ID, IP: "203.0.113.10"})
	}
	for i := 0; i < 2; i++ {
		insertClick(t, db, models.LinkClick{LinkID: link2.ID, UserID: user.ID, IP: "203.0.113.11"})
	}
	// Outside the window, must not count.
	insertClick(t, db, models.LinkClick{
		LinkID: link1.ID, UserID: user.ID, IP: "203.0.113.12", Timestamp: daysAgo(40),
	})

	summary := svc.TotalsSummary(context.Background(), user.ID, 30)

	assert.Equal(t, int64(5), summary.TotalClicks)
	assert.Equal(t, int64(2), summary.UniqueVisitors)
	require.Len(t, summary.TopLinks, 2)
	assert.Equal(t, link1.ID, summary.TopLinks[0].ID)
	assert.Equal(t, "portfolio", summary.TopLinks[0].Title)
	assert.Equal(t, int64(3), summary.TopLinks[0].Clicks)
	assert.Equal(t, int64(2), summary.TopLinks[1].Clicks)
}

func TestTotalsSummaryEmptyUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	summary := svc.TotalsSummary(context.Background(), "no-such-user", 30)

	assert.Equal(t, int64(0), summary.TotalClicks)
	assert.Equal(t, int64(0), summary.UniqueVisitors)
	assert.NotNil(t, summary.TopLinks)
	assert.Empty(t, summary.TopLinks)
}

func TestTotalsSummaryIsReadOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	user := createUser(t, db)
	link := createLink(t, db, user.ID, "portfolio")
	insertClick(t, db, models.LinkClick{LinkID: link.ID, UserID: user.ID, IP: "203.0.113.10"})

	first := svc.TotalsSummary(context.Background(), user.ID, 30)
	second := svc.TotalsSummary(context.Background(), user.ID, 30)

	assert.Equal(t, first, second, "repeated reads over unchanged events must agree")

	var eventCount int64
	require.NoError(t, db.Model(&models.LinkClick{}).Count(&eventCount).Error)
	assert.Equal(t, int64(1), eventCount)
}

func TestGroupedStats(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	user := createUser(t, db)
	link := createLink(t, db, user.ID, "portfolio")

	insertClick(t, db, models.LinkClick{LinkID: link.ID, UserID: user.ID, Country: "US"})
	insertClick(t, db, models.LinkClick{LinkID: link.ID, UserID: user.ID, Country: "US"})
	insertClick(t, db, models.LinkClick{LinkID: link.ID, UserID: user.ID, Country: "DE"})
	// Empty dimension values are excluded from breakdowns.
	insertClick(t, db, models.LinkClick{LinkID: link.ID, UserID: user.ID, Country: ""})

	rows := svc.GroupedStats(context.Background(), user.ID, 30, "country")

	require.Len(t, rows, 2)
	assert.Equal(t, DimensionCount{Value: "US", Clicks: 2}, rows[0])
	assert.Equal(t, DimensionCount{Value: "DE", Clicks: 1}, rows[1])
}

func TestGroupedStatsUnknownDimension(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	rows := svc.GroupedStats(context.Background(), "user", 30, "timestamp; DROP TABLE link_clicks")

	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	// The store must be untouched.
	var count int64
	require.NoError(t, db.Model(&models.LinkClick{}).Count(&count).Error)
}

func TestLinkStatsDailyBuckets(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	user := createUser(t, db)
	link := createLink(t, db, user.ID, "portfolio")

	// Pin to midday so the one-hour offset below stays on the same day.
	d := daysAgo(2)
	twoDaysAgo := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.UTC)
	insertClick(t, db, models.LinkClick{LinkID: link.ID, UserID: user.ID, Timestamp: twoDaysAgo})
	insertClick(t, db, models.LinkClick{LinkID: link.ID, UserID: user.ID, Timestamp: twoDaysAgo.Add(time.Hour)})
	insertClick(t, db, models.LinkClick{LinkID: link.ID, UserID: user.ID})

	series := svc.LinkStats(context.Background(), link.ID, 30)

	require.Len(t, series, 2)
	assert.Equal(t, twoDaysAgo.Format("2006-01-02"), series[0].Date)
	assert.Equal(t, int64(2), series[0].Clicks)
	assert.Equal(t, int64(1), series[1].Clicks)
	assert.Less(t, series[0].Date, series[1].Date, "oldest day first")
}
