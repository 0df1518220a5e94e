package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Link is one entry on a user's public page.
//
// Clicks is a denormalized counter over link_clicks rows. It is only ever
// advanced inside the same transaction that inserts the raw click event, so
// Clicks == COUNT(link_clicks WHERE link_id = ID) holds at all times. The
// reconciliation job recomputes it from raw events to correct any drift.
type Link struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID   string `gorm:"not null;index:idx_links_user_order" json:"user_id"`
	URL      string `gorm:"not null" json:"url"`
	Title    string `gorm:"not null" json:"title"`
	Order    int    `gorm:"column:sort_order;index:idx_links_user_order" json:"order"`
	// No column default: gorm would silently swap an explicit false for
	// the default at insert. Creators set this field themselves.
	IsActive bool   `json:"is_active"`
	Clicks   int64  `gorm:"default:0" json:"clicks"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (l *Link) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

func (Link) TableName() string {
	return "links"
}
