package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlockClick is one raw interaction with a block on a page. Funnel and
// heatmap aggregations run over these rows, grouped by session or block.
type BlockClick struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PageID    string    `gorm:"not null;index:idx_block_clicks_page_ts" json:"page_id"`
	BlockID   string    `gorm:"not null;index" json:"block_id"`
	Timestamp time.Time `gorm:"index:idx_block_clicks_page_ts" json:"timestamp"`

	IP        string `json:"ip,omitempty"`
	SessionID string `gorm:"index" json:"session_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (c *BlockClick) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}
	return nil
}

func (BlockClick) TableName() string {
	return "block_clicks"
}
