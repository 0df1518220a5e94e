package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Page is a public profile page composed of blocks.
// Views mirrors Link.Clicks: denormalized, advanced atomically with each
// page_views insert.
type Page struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	Slug   string `gorm:"uniqueIndex;not null" json:"slug"`
	Title  string `json:"title,omitempty"`
	Views  int64  `gorm:"default:0" json:"views"`

	Blocks []Block `gorm:"foreignKey:PageID" json:"blocks,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Page) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (Page) TableName() string {
	return "pages"
}

// Block is a renderable unit on a page (link, social icon, embed). The
// analytics layer only needs its identity and position for heatmaps.
type Block struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	PageID   string `gorm:"not null;index:idx_blocks_page_position" json:"page_id"`
	Type     string `gorm:"not null" json:"type"`
	Position int    `gorm:"index:idx_blocks_page_position" json:"position"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Block) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (Block) TableName() string {
	return "blocks"
}
