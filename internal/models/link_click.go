package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LinkClick is one raw click event. Rows are append-only: the aggregation
// path never updates or deletes them.
type LinkClick struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	LinkID    string    `gorm:"not null;index:idx_link_clicks_link_ts" json:"link_id"`
	UserID    string    `gorm:"not null;index:idx_link_clicks_user_ts" json:"user_id"`
	Timestamp time.Time `gorm:"index:idx_link_clicks_link_ts;index:idx_link_clicks_user_ts" json:"timestamp"`

	// Request metadata captured at ingestion time
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
	Country   string `gorm:"index" json:"country,omitempty"`
	Device    string `json:"device,omitempty"`
	Browser   string `json:"browser,omitempty"`
	OS        string `gorm:"column:os" json:"os,omitempty"`
	SessionID string `gorm:"index" json:"session_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (c *LinkClick) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}
	return nil
}

func (LinkClick) TableName() string {
	return "link_clicks"
}
