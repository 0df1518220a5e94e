package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andreajoa/linktree/backend/internal/models"
)

func (s *HandlersTestSuite) TestGetPublicProfileUnknownUsername() {
	w := s.do(http.MethodGet, "/api/v1/profile/nobody", nil, "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestGetPublicProfileActiveLinksOnly() {
	inactive := &models.Link{UserID: s.user.ID, URL: "https://example.org", Title: "Hidden", IsActive: false}
	s.Require().NoError(s.db.Create(inactive).Error)

	w := s.do(http.MethodGet, "/api/v1/profile/alice", nil, "")
	s.Equal(http.StatusOK, w.Code)

	profile := s.decode(w)["profile"].(map[string]interface{})
	s.Equal("alice", profile["username"])
	s.Len(profile["links"], 1, "inactive links are not public")
}

func (s *HandlersTestSuite) TestGetPublicProfileCaseInsensitive() {
	w := s.do(http.MethodGet, "/api/v1/profile/ALICE", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.True(s.mr.Exists("profile:alice"), "cache key uses the lowercased username")
}

func (s *HandlersTestSuite) TestGetPublicProfileServedFromCache() {
	s.do(http.MethodGet, "/api/v1/profile/alice", nil, "")
	s.True(s.mr.Exists("profile:alice"))

	// Swap the cached document to prove the second read never hits the
	// database.
	s.Require().NoError(s.mr.Set("profile:alice", `{"success":true,"profile":{"username":"cached"}}`))

	w := s.do(http.MethodGet, "/api/v1/profile/alice", nil, "")
	s.Equal(http.StatusOK, w.Code)
	profile := s.decode(w)["profile"].(map[string]interface{})
	s.Equal("cached", profile["username"])
}

func (s *HandlersTestSuite) TestUpdateProfileRequiresAuth() {
	w := s.do(http.MethodPut, "/api/v1/profile", gin.H{"bio": "hi"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlersTestSuite) TestUpdateProfileBio() {
	w := s.do(http.MethodPut, "/api/v1/profile", gin.H{"bio": "link collector"}, s.tokenFor(s.user))
	s.Equal(http.StatusOK, w.Code)

	var got models.User
	s.Require().NoError(s.db.First(&got, "id = ?", s.user.ID).Error)
	s.Equal("link collector", got.Bio)
	s.Equal("alice", got.Username, "unset fields stay untouched")
}

func (s *HandlersTestSuite) TestUpdateProfileRenameInvalidatesBothProfileKeys() {
	// Warm the cache under the old and (pathologically) new usernames.
	s.do(http.MethodGet, "/api/v1/profile/alice", nil, "")
	s.Require().NoError(s.mr.Set("profile:wonderland", "{}"))

	w := s.do(http.MethodPut, "/api/v1/profile", gin.H{"username": "Wonderland"}, s.tokenFor(s.user))
	s.Equal(http.StatusOK, w.Code)

	s.False(s.mr.Exists("profile:alice"), "old username's document dropped")
	s.False(s.mr.Exists("profile:wonderland"), "new username's document dropped")

	// The profile is immediately reachable under the new name.
	w = s.do(http.MethodGet, "/api/v1/profile/wonderland", nil, "")
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlersTestSuite) TestUpdateProfileUsernameConflict() {
	other := &models.User{Email: "bob@example.com", Username: "bob"}
	s.Require().NoError(s.db.Create(other).Error)

	w := s.do(http.MethodPut, "/api/v1/profile", gin.H{"username": "BOB"}, s.tokenFor(s.user))
	s.Equal(http.StatusConflict, w.Code, "usernames are unique case-insensitively")
}

func (s *HandlersTestSuite) TestUpdateProfileEmptyUsername() {
	w := s.do(http.MethodPut, "/api/v1/profile", gin.H{"username": "   "}, s.tokenFor(s.user))
	s.Equal(http.StatusBadRequest, w.Code)
}
