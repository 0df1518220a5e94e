package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andreajoa/linktree/backend/internal/models"
)

func (s *HandlersTestSuite) TestGetLinksRequiresAuth() {
	w := s.do(http.MethodGet, "/api/v1/links", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlersTestSuite) TestGetLinksCachesResponse() {
	token := s.tokenFor(s.user)

	w := s.do(http.MethodGet, "/api/v1/links", nil, token)
	s.Equal(http.StatusOK, w.Code)
	s.True(s.mr.Exists("links:"+s.user.ID), "response document cached after a miss")

	// The second read is served from the cache: a row added behind the
	// cache's back is not visible until invalidation.
	stale := &models.Link{UserID: s.user.ID, URL: "https://example.org", Title: "Hidden", IsActive: true}
	s.Require().NoError(s.db.Create(stale).Error)

	w = s.do(http.MethodGet, "/api/v1/links", nil, token)
	s.Equal(http.StatusOK, w.Code)
	s.Len(s.decode(w)["links"], 1)
}

func (s *HandlersTestSuite) TestCreateLinkInvalidatesCache() {
	token := s.tokenFor(s.user)
	s.do(http.MethodGet, "/api/v1/links", nil, token)
	s.do(http.MethodGet, "/api/v1/profile/alice", nil, "")
	s.True(s.mr.Exists("links:" + s.user.ID))
	s.True(s.mr.Exists("profile:alice"))

	w := s.do(http.MethodPost, "/api/v1/links", gin.H{"url": "https://example.org", "title": "Blog", "order": 1}, token)
	s.Equal(http.StatusCreated, w.Code)
	s.False(s.mr.Exists("links:"+s.user.ID), "stale link list dropped before responding")
	s.False(s.mr.Exists("profile:alice"), "profile document embeds the links, dropped too")

	w = s.do(http.MethodGet, "/api/v1/links", nil, token)
	s.Len(s.decode(w)["links"], 2)
}

func (s *HandlersTestSuite) TestCreateLinkValidation() {
	w := s.do(http.MethodPost, "/api/v1/links", gin.H{"url": "https://example.org"}, s.tokenFor(s.user))
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestUpdateLinkPartialFields() {
	token := s.tokenFor(s.user)

	w := s.do(http.MethodPut, "/api/v1/links/"+s.link.ID, gin.H{"title": "Renamed"}, token)
	s.Equal(http.StatusOK, w.Code)

	var got models.Link
	s.Require().NoError(s.db.First(&got, "id = ?", s.link.ID).Error)
	s.Equal("Renamed", got.Title)
	s.Equal("https://example.com", got.URL, "unset fields stay untouched")
}

func (s *HandlersTestSuite) TestUpdateLinkInvalidatesPublicProfile() {
	s.do(http.MethodGet, "/api/v1/profile/alice", nil, "")
	s.True(s.mr.Exists("profile:alice"))

	w := s.do(http.MethodPut, "/api/v1/links/"+s.link.ID, gin.H{"title": "Renamed"}, s.tokenFor(s.user))
	s.Equal(http.StatusOK, w.Code)
	s.False(s.mr.Exists("profile:alice"), "cached profile dropped before responding")

	// A follow-up public read sees the new title, not the pre-update
	// document.
	w = s.do(http.MethodGet, "/api/v1/profile/alice", nil, "")
	s.Equal(http.StatusOK, w.Code)
	profile := s.decode(w)["profile"].(map[string]interface{})
	links := profile["links"].([]interface{})
	s.Require().Len(links, 1)
	s.Equal("Renamed", links[0].(map[string]interface{})["title"])
}

func (s *HandlersTestSuite) TestUpdateLinkForeignLink() {
	other := &models.User{Email: "bob@example.com", Username: "bob"}
	s.Require().NoError(s.db.Create(other).Error)

	w := s.do(http.MethodPut, "/api/v1/links/"+s.link.ID, gin.H{"title": "Stolen"}, s.tokenFor(other))
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestDeleteLinkKeepsClickEvents() {
	token := s.tokenFor(s.user)
	s.do(http.MethodPost, "/api/v1/track/click", gin.H{"link_id": s.link.ID}, "")

	w := s.do(http.MethodDelete, "/api/v1/links/"+s.link.ID, nil, token)
	s.Equal(http.StatusOK, w.Code)

	var liveLinks int64
	s.Require().NoError(s.db.Model(&models.Link{}).Where("user_id = ?", s.user.ID).Count(&liveLinks).Error)
	s.Equal(int64(0), liveLinks)

	// Raw events survive the deletion of their link.
	var events int64
	s.Require().NoError(s.db.Model(&models.LinkClick{}).Where("link_id = ?", s.link.ID).Count(&events).Error)
	s.Equal(int64(1), events)
}

func (s *HandlersTestSuite) TestDeleteLinkInvalidatesPublicProfile() {
	s.do(http.MethodGet, "/api/v1/profile/alice", nil, "")
	s.True(s.mr.Exists("profile:alice"))

	w := s.do(http.MethodDelete, "/api/v1/links/"+s.link.ID, nil, s.tokenFor(s.user))
	s.Equal(http.StatusOK, w.Code)
	s.False(s.mr.Exists("profile:alice"))

	w = s.do(http.MethodGet, "/api/v1/profile/alice", nil, "")
	profile := s.decode(w)["profile"].(map[string]interface{})
	s.Empty(profile["links"], "deleted link no longer served publicly")
}

func (s *HandlersTestSuite) TestDeleteLinkIsSoftDelete() {
	w := s.do(http.MethodDelete, "/api/v1/links/"+s.link.ID, nil, s.tokenFor(s.user))
	s.Equal(http.StatusOK, w.Code)

	var rows int64
	s.Require().NoError(s.db.Unscoped().Model(&models.Link{}).
		Where("id = ? AND deleted_at IS NOT NULL", s.link.ID).Count(&rows).Error)
	s.Equal(int64(1), rows)
}
