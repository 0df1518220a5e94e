package analytics

import "time"

// ClickMetadata is the request context captured at ingestion time. Country
// and city come from the edge (geo headers); the classifier fills device,
// browser, and OS from the raw user agent.
type ClickMetadata struct {
	IP        string
	UserAgent string
	Referrer  string
	Country   string
	City      string
	SessionID string
}

// TopLink is one row of the totals summary leaderboard.
type TopLink struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Clicks int64  `json:"clicks"`
}

// Summary is the rolling-window totals for one user.
//
// UniqueVisitors counts distinct IP addresses, which is a weak visitor
// identity: shared IPs undercount, dynamic IPs overcount. Kept as the
// documented metric definition rather than silently switching to sessions.
type Summary struct {
	TotalClicks    int64     `json:"total_clicks"`
	UniqueVisitors int64     `json:"unique_visitors"`
	TopLinks       []TopLink `json:"top_links"`
}

// DimensionCount is one row of a grouped breakdown.
type DimensionCount struct {
	Value  string `json:"value"`
	Clicks int64  `json:"clicks"`
}

// DailyCount is one day of a per-link click series.
type DailyCount struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

// FunnelStep is one stage of the fixed four-stage engagement ladder.
type FunnelStep struct {
	Name           string  `json:"name"`
	Users          int64   `json:"users"`
	ConversionRate float64 `json:"conversion_rate"`
	DropOffRate    float64 `json:"drop_off_rate"`
}

// Funnel holds the four steps plus overall conversion.
type Funnel struct {
	Steps             []FunnelStep `json:"steps"`
	TotalUsers        int64        `json:"total_users"`
	OverallConversion float64      `json:"overall_conversion"`
}

// HeatmapCell is the click intensity for one block.
type HeatmapCell struct {
	BlockID   string  `json:"block_id"`
	Position  int     `json:"position"`
	Clicks    int64   `json:"clicks"`
	Intensity float64 `json:"intensity"` // 0-100, relative to the hottest block
}

// Cohort is one first-seen bucket of sessions with its return rates for
// offsets 1-4 after the cohort period.
type Cohort struct {
	Period         string `json:"period"`
	UserCount      int64  `json:"user_count"`
	RetentionRates []int  `json:"retention_rates"`
}

// RealTimeStats is the last-few-minutes activity snapshot for a page.
type RealTimeStats struct {
	ActiveVisitors int64      `json:"active_visitors"`
	RecentClicks   int64      `json:"recent_clicks"`
	TopBlocks      []TopBlock `json:"top_blocks"`
}

// TopBlock is one row of the real-time block leaderboard.
type TopBlock struct {
	BlockID string `json:"block_id"`
	Clicks  int64  `json:"clicks"`
}

// CountryCount and CityCount are geographic breakdown rows.
type CountryCount struct {
	Country  string `json:"country"`
	Visitors int64  `json:"visitors"`
}

type CityCount struct {
	City     string `json:"city"`
	Country  string `json:"country"`
	Visitors int64  `json:"visitors"`
}

// GeographicStats is the per-page geographic breakdown.
type GeographicStats struct {
	Countries []CountryCount `json:"countries"`
	Cities    []CityCount    `json:"cities"`
}

// DeviceStats is the per-page device/browser/OS breakdown.
type DeviceStats struct {
	Devices          []DimensionCount `json:"devices"`
	Browsers         []DimensionCount `json:"browsers"`
	OperatingSystems []DimensionCount `json:"operating_systems"`
}

// ReferrerCount is one row of the top-referrers list.
type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Visitors int64  `json:"visitors"`
}

// PerformanceMetrics is the per-page engagement quality summary.
type PerformanceMetrics struct {
	AverageDuration int             `json:"average_duration"` // seconds
	BounceRate      float64         `json:"bounce_rate"`      // % of single-view sessions
	TopReferrers    []ReferrerCount `json:"top_referrers"`
}

// PeriodType selects the cohort bucket size.
type PeriodType string

const (
	PeriodWeek  PeriodType = "week"
	PeriodMonth PeriodType = "month"
)

// window returns the [start, end] bounds for a trailing number of days,
// inclusive on both ends.
func window(days int) (time.Time, time.Time) {
	end := time.Now().UTC()
	return end.AddDate(0, 0, -days), end
}
