package handlers

import (
	"fmt"
	"net/http"

	"github.com/andreajoa/linktree/backend/internal/analytics"
	"github.com/andreajoa/linktree/backend/internal/models"
	"github.com/andreajoa/linktree/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// clickMetadata builds the ingestion metadata from the request. Country and
// city come from edge geo headers when the deployment sits behind a proxy
// that sets them.
func clickMetadata(c *gin.Context, sessionID string) analytics.ClickMetadata {
	return analytics.ClickMetadata{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
		Country:   c.GetHeader("CF-IPCountry"),
		City:      c.GetHeader("CF-IPCity"),
		SessionID: sessionID,
	}
}

// TrackClick is the public click-ingestion endpoint.
//
// POST /track/click {link_id, session_id?}
// Rate limited per (ip, link) with a fixed window; the raw event insert and
// the link counter increment commit atomically; the owner's cached
// documents are invalidated before the response is written.
func (h *Handlers) TrackClick(c *gin.Context) {
	var req struct {
		LinkID    string `json:"link_id"`
		SessionID string `json:"session_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.LinkID == "" {
		util.RespondValidationError(c, "link_id", "link_id is required")
		return
	}

	ip := c.ClientIP()
	rateLimitKey := fmt.Sprintf("click:%s:%s", ip, req.LinkID)
	if !h.cache.CheckRateLimit(c.Request.Context(), rateLimitKey, h.clickRateLimit, h.clickRateWindow) {
		util.RespondRateLimited(c, h.clickRateWindow.Seconds())
		return
	}

	var link models.Link
	if err := h.db.First(&link, "id = ?", req.LinkID).Error; err != nil {
		util.RespondNotFound(c, "link")
		return
	}

	meta := clickMetadata(c, req.SessionID)
	if err := h.analytics.TrackLinkClick(c.Request.Context(), link.ID, link.UserID, meta); err != nil {
		util.RespondInternalError(c, "failed to track click")
		return
	}

	// Invalidate before responding so a follow-up read cannot observe the
	// pre-click cached documents, including the public profile with its
	// embedded click counter.
	h.invalidateOwnerCaches(c, link.UserID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"url":     link.URL,
		"message": "Click tracked successfully",
	})
}

// TrackView is the public page-view ingestion endpoint.
//
// POST /track/view {page_id, session_id?, duration?}
func (h *Handlers) TrackView(c *gin.Context) {
	var req struct {
		PageID    string `json:"page_id"`
		SessionID string `json:"session_id"`
		Duration  int    `json:"duration"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.PageID == "" {
		util.RespondValidationError(c, "page_id", "page_id is required")
		return
	}

	ip := c.ClientIP()
	rateLimitKey := fmt.Sprintf("view:%s:%s", ip, req.PageID)
	if !h.cache.CheckRateLimit(c.Request.Context(), rateLimitKey, h.clickRateLimit, h.clickRateWindow) {
		util.RespondRateLimited(c, h.clickRateWindow.Seconds())
		return
	}

	var page models.Page
	if err := h.db.First(&page, "id = ?", req.PageID).Error; err != nil {
		util.RespondNotFound(c, "page")
		return
	}

	meta := clickMetadata(c, req.SessionID)
	if err := h.analytics.TrackPageView(c.Request.Context(), page.ID, req.Duration, meta); err != nil {
		util.RespondInternalError(c, "failed to track view")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "View tracked successfully",
	})
}

// TrackBlockClick is the public block-interaction ingestion endpoint,
// feeding the funnel and heatmap aggregations.
//
// POST /track/block {page_id, block_id, session_id?}
func (h *Handlers) TrackBlockClick(c *gin.Context) {
	var req struct {
		PageID    string `json:"page_id"`
		BlockID   string `json:"block_id"`
		SessionID string `json:"session_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.PageID == "" || req.BlockID == "" {
		util.RespondValidationError(c, "block_id", "page_id and block_id are required")
		return
	}

	ip := c.ClientIP()
	rateLimitKey := fmt.Sprintf("block:%s:%s", ip, req.BlockID)
	if !h.cache.CheckRateLimit(c.Request.Context(), rateLimitKey, h.clickRateLimit, h.clickRateWindow) {
		util.RespondRateLimited(c, h.clickRateWindow.Seconds())
		return
	}

	var block models.Block
	if err := h.db.First(&block, "id = ? AND page_id = ?", req.BlockID, req.PageID).Error; err != nil {
		util.RespondNotFound(c, "block")
		return
	}

	meta := clickMetadata(c, req.SessionID)
	if err := h.analytics.TrackBlockClick(c.Request.Context(), req.PageID, req.BlockID, meta); err != nil {
		util.RespondInternalError(c, "failed to track block click")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Block click tracked successfully",
	})
}
