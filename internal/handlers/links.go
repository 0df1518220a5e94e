package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/andreajoa/linktree/backend/internal/models"
	"github.com/andreajoa/linktree/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// GetLinks returns the caller's links, read through the cache.
//
// GET /links
func (h *Handlers) GetLinks(c *gin.Context) {
	userID := c.GetString("user_id")

	if cached, ok := h.cache.GetCachedUserLinks(c.Request.Context(), userID); ok {
		c.Data(http.StatusOK, "application/json", cached)
		return
	}

	var links []models.Link
	if err := h.db.Where("user_id = ?", userID).Order("sort_order ASC").Find(&links).Error; err != nil {
		util.RespondInternalError(c, "failed to load links")
		return
	}

	body, err := json.Marshal(gin.H{"success": true, "links": links})
	if err != nil {
		util.RespondInternalError(c, "failed to encode links")
		return
	}

	h.cache.CacheUserLinks(c.Request.Context(), userID, body)
	c.Data(http.StatusOK, "application/json", body)
}

// CreateLink adds a link to the caller's page.
//
// POST /links {url, title, order?}
func (h *Handlers) CreateLink(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		URL   string `json:"url" binding:"required"`
		Title string `json:"title" binding:"required"`
		Order int    `json:"order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "url", "url and title are required")
		return
	}

	link := models.Link{
		UserID:   userID,
		URL:      req.URL,
		Title:    req.Title,
		Order:    req.Order,
		IsActive: true,
	}
	if err := h.db.Create(&link).Error; err != nil {
		util.RespondInternalError(c, "failed to create link")
		return
	}

	h.invalidateOwnerCaches(c, userID)

	c.JSON(http.StatusCreated, gin.H{"success": true, "link": link})
}

// UpdateLink modifies one of the caller's links.
//
// PUT /links/:id {url?, title?, order?, is_active?}
func (h *Handlers) UpdateLink(c *gin.Context) {
	userID := c.GetString("user_id")
	linkID := c.Param("id")

	var link models.Link
	if err := h.db.First(&link, "id = ? AND user_id = ?", linkID, userID).Error; err != nil {
		util.RespondNotFound(c, "link")
		return
	}

	var req struct {
		URL      *string `json:"url"`
		Title    *string `json:"title"`
		Order    *int    `json:"order"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if req.URL != nil {
		updates["url"] = *req.URL
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Order != nil {
		updates["sort_order"] = *req.Order
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := h.db.Model(&link).Updates(updates).Error; err != nil {
			util.RespondInternalError(c, "failed to update link")
			return
		}
	}

	h.invalidateOwnerCaches(c, userID)

	c.JSON(http.StatusOK, gin.H{"success": true, "link": link})
}

// DeleteLink removes one of the caller's links. Raw click events for the
// link are retained; only the mutable row is deleted.
//
// DELETE /links/:id
func (h *Handlers) DeleteLink(c *gin.Context) {
	userID := c.GetString("user_id")
	linkID := c.Param("id")

	var link models.Link
	if err := h.db.First(&link, "id = ? AND user_id = ?", linkID, userID).Error; err != nil {
		util.RespondNotFound(c, "link")
		return
	}

	if err := h.db.Delete(&link).Error; err != nil {
		util.RespondInternalError(c, "failed to delete link")
		return
	}

	h.invalidateOwnerCaches(c, userID)

	c.JSON(http.StatusOK, gin.H{"success": true})
}
