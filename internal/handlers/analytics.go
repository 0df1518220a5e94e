package handlers

import (
	"fmt"
	"net/http"

	"github.com/andreajoa/linktree/backend/internal/analytics"
	"github.com/andreajoa/linktree/backend/internal/auth"
	"github.com/andreajoa/linktree/backend/internal/models"
	"github.com/andreajoa/linktree/backend/internal/util"
	"github.com/gin-gonic/gin"
)

const maxReportingDays = 365

// GetAnalytics serves the owner-facing analytics report.
//
// GET /analytics/:userId?days=30&type=summary|country|device
// The authenticated user must be the report's owner. Aggregation failures
// degrade to zero-valued defaults inside the engine, so this endpoint only
// errors on bad input or failed authorization.
func (h *Handlers) GetAnalytics(c *gin.Context) {
	userID, ok := auth.RequireSelf(c)
	if !ok {
		return
	}

	days := util.ParseDays(c.Query("days"), 30, maxReportingDays)
	reportType := c.DefaultQuery("type", "summary")

	var data interface{}
	switch reportType {
	case "summary":
		data = h.analytics.TotalsSummary(c.Request.Context(), userID, days)
	case "country", "device":
		data = h.analytics.GroupedStats(c.Request.Context(), userID, days, reportType)
	default:
		util.RespondBadRequest(c, fmt.Sprintf("invalid analytics type %q", reportType))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"period":  fmt.Sprintf("%d days", days),
	})
}

// GetAdvancedAnalytics serves the page-level engagement reports.
//
// GET /analytics/:userId/advanced?type=...&page_id=...&days=30&period=week
// Types: funnel, heatmap, cohorts, realtime, geographic, devices,
// performance, browser, os, referrer. The page must belong to the
// authenticated user.
func (h *Handlers) GetAdvancedAnalytics(c *gin.Context) {
	userID, ok := auth.RequireSelf(c)
	if !ok {
		return
	}

	days := util.ParseDays(c.Query("days"), 30, maxReportingDays)
	reportType := c.Query("type")

	// Dimension breakdowns over the user's clicks need no page.
	switch reportType {
	case "browser", "os", "referrer":
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    h.analytics.GroupedStats(c.Request.Context(), userID, days, reportType),
			"period":  fmt.Sprintf("%d days", days),
		})
		return
	}

	pageID := c.Query("page_id")
	if pageID == "" {
		util.RespondValidationError(c, "page_id", "page_id is required")
		return
	}
	if !h.ownsPage(c, userID, pageID) {
		return
	}

	var data interface{}
	switch reportType {
	case "funnel":
		data = h.analytics.ConversionFunnel(c.Request.Context(), pageID, days)
	case "heatmap":
		data = h.analytics.HeatmapData(c.Request.Context(), pageID, days)
	case "cohorts":
		period := analytics.PeriodWeek
		if c.Query("period") == string(analytics.PeriodMonth) {
			period = analytics.PeriodMonth
		}
		data = h.analytics.CohortRetention(c.Request.Context(), pageID, period)
	case "realtime":
		data = h.analytics.RealTimeStats(c.Request.Context(), pageID)
	case "geographic":
		data = h.analytics.GeographicStats(c.Request.Context(), pageID, days)
	case "devices":
		data = h.analytics.PageDeviceStats(c.Request.Context(), pageID, days)
	case "performance":
		data = h.analytics.PerformanceMetrics(c.Request.Context(), pageID, days)
	default:
		util.RespondBadRequest(c, fmt.Sprintf("invalid analytics type %q", reportType))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"period":  fmt.Sprintf("%d days", days),
	})
}

// GetLinkStats serves a per-day click series for one of the caller's links.
//
// GET /analytics/:userId/links/:linkId?days=30
func (h *Handlers) GetLinkStats(c *gin.Context) {
	userID, ok := auth.RequireSelf(c)
	if !ok {
		return
	}

	linkID := c.Param("linkId")
	var count int64
	h.db.Model(&models.Link{}).Where("id = ? AND user_id = ?", linkID, userID).Count(&count)
	if count == 0 {
		util.RespondNotFound(c, "link")
		return
	}

	days := util.ParseDays(c.Query("days"), 30, maxReportingDays)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.analytics.LinkStats(c.Request.Context(), linkID, days),
		"period":  fmt.Sprintf("%d days", days),
	})
}

// ownsPage verifies page ownership, responding 404 (not 403) on a miss so
// the existence of other users' pages is not revealed.
func (h *Handlers) ownsPage(c *gin.Context, userID, pageID string) bool {
	var count int64
	h.db.Model(&models.Page{}).Where("id = ? AND user_id = ?", pageID, userID).Count(&count)
	if count == 0 {
		util.RespondNotFound(c, "page")
		return false
	}
	return true
}
