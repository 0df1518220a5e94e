package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/andreajoa/linktree/backend/internal/errors"
	"github.com/andreajoa/linktree/backend/internal/models"
	"github.com/andreajoa/linktree/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// publicProfile is the document served for a public page: the owner minus
// private fields, plus their active links in display order.
type publicProfile struct {
	Username string        `json:"username"`
	Name     string        `json:"name,omitempty"`
	Bio      string        `json:"bio,omitempty"`
	Avatar   string        `json:"avatar,omitempty"`
	Theme    string        `json:"theme"`
	Links    []models.Link `json:"links"`
}

// GetPublicProfile serves a public profile, read through the cache.
//
// GET /profile/:username
func (h *Handlers) GetPublicProfile(c *gin.Context) {
	username := strings.ToLower(c.Param("username"))

	if cached, ok := h.cache.GetCachedPublicProfile(c.Request.Context(), username); ok {
		c.Data(http.StatusOK, "application/json", cached)
		return
	}

	var user models.User
	if err := h.db.First(&user, "LOWER(username) = ?", username).Error; err != nil {
		util.RespondNotFound(c, "profile")
		return
	}

	var links []models.Link
	if err := h.db.Where("user_id = ? AND is_active = ?", user.ID, true).
		Order("sort_order ASC").Find(&links).Error; err != nil {
		util.RespondInternalError(c, "failed to load profile")
		return
	}
	if links == nil {
		links = []models.Link{}
	}

	profile := publicProfile{
		Username: user.Username,
		Name:     user.Name,
		Bio:      user.Bio,
		Avatar:   user.Avatar,
		Theme:    user.Theme,
		Links:    links,
	}

	body, err := json.Marshal(gin.H{"success": true, "profile": profile})
	if err != nil {
		util.RespondInternalError(c, "failed to encode profile")
		return
	}

	h.cache.CachePublicProfile(c.Request.Context(), username, body)
	c.Data(http.StatusOK, "application/json", body)
}

// UpdateProfile modifies the caller's profile. Cached documents for both
// the old and (on rename) new username are invalidated before the response
// is written, so a follow-up read is a miss rather than stale data.
//
// PUT /profile {username?, name?, bio?, avatar?, theme?}
func (h *Handlers) UpdateProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		util.RespondUnauthorized(c)
		return
	}
	oldUsername := strings.ToLower(user.Username)

	var req struct {
		Username *string `json:"username"`
		Name     *string `json:"name"`
		Bio      *string `json:"bio"`
		Avatar   *string `json:"avatar"`
		Theme    *string `json:"theme"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			util.RespondValidationError(c, "username", "username cannot be empty")
			return
		}
		var taken int64
		h.db.Model(&models.User{}).
			Where("LOWER(username) = ? AND id <> ?", strings.ToLower(username), userID).
			Count(&taken)
		if taken > 0 {
			util.RespondWithAPIError(c, errors.Conflict("username"))
			return
		}
		updates["username"] = username
	}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if req.Theme != nil {
		updates["theme"] = *req.Theme
	}

	if len(updates) > 0 {
		if err := h.db.Model(&user).Updates(updates).Error; err != nil {
			util.RespondInternalError(c, "failed to update profile")
			return
		}
	}

	h.cache.InvalidateUserCache(c.Request.Context(), userID)
	h.cache.InvalidateProfileCache(c.Request.Context(), oldUsername)
	if newName, ok := updates["username"].(string); ok {
		h.cache.InvalidateProfileCache(c.Request.Context(), strings.ToLower(newName))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}
