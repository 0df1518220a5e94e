package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PageView is one raw page view event, append-only like LinkClick.
// BlockID is set when the view was attributed to a specific block
// interaction; Duration is seconds spent on the page when the client
// reported it.
type PageView struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PageID    string    `gorm:"not null;index:idx_page_views_page_ts" json:"page_id"`
	Timestamp time.Time `gorm:"index:idx_page_views_page_ts" json:"timestamp"`

	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
	Country   string `gorm:"index" json:"country,omitempty"`
	City      string `json:"city,omitempty"`
	Device    string `json:"device,omitempty"`
	Browser   string `json:"browser,omitempty"`
	OS        string `gorm:"column:os" json:"os,omitempty"`
	SessionID string `gorm:"index" json:"session_id,omitempty"`
	Duration  int    `json:"duration,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (v *PageView) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now().UTC()
	}
	return nil
}

func (PageView) TableName() string {
	return "page_views"
}
