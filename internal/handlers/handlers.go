package handlers

import (
	"strings"
	"time"

	"github.com/andreajoa/linktree/backend/internal/analytics"
	"github.com/andreajoa/linktree/backend/internal/cache"
	"github.com/andreajoa/linktree/backend/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handlers contains all HTTP handlers for the API. Dependencies are
// injected at construction; the cache is always non-nil (a disabled
// variant when Redis is unconfigured).
type Handlers struct {
	db        *gorm.DB
	cache     cache.Client
	analytics *analytics.Service

	clickRateLimit  int
	clickRateWindow time.Duration
}

// NewHandlers creates a new handlers instance.
func NewHandlers(db *gorm.DB, cacheClient cache.Client, analyticsService *analytics.Service) *Handlers {
	return &Handlers{
		db:              db,
		cache:           cacheClient,
		analytics:       analyticsService,
		clickRateLimit:  10,
		clickRateWindow: 60 * time.Second,
	}
}

// SetClickRateLimit overrides the ingestion rate limit (10 req / 60 s per
// ip+link by default).
func (h *Handlers) SetClickRateLimit(limit int, window time.Duration) {
	h.clickRateLimit = limit
	h.clickRateWindow = window
}

// invalidateOwnerCaches drops every cached document that embeds the owner's
// links: the user and links documents plus the public profile, which carries
// the links and their click counters inline.
func (h *Handlers) invalidateOwnerCaches(c *gin.Context, userID string) {
	h.cache.InvalidateUserCache(c.Request.Context(), userID)

	var owner models.User
	if err := h.db.Select("username").First(&owner, "id = ?", userID).Error; err != nil {
		return
	}
	h.cache.InvalidateProfileCache(c.Request.Context(), strings.ToLower(owner.Username))
}
