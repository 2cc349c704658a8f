package models

import "time"

// Sticker is a geotagged photo record. ImageURL points at the already
// uploaded object in storage; the record itself carries no binary data.
type Sticker struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
	CommunityID string    `gorm:"type:uuid;not null;index" json:"community_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"size:1024" json:"description"`
	ImageURL    string    `gorm:"size:512;not null" json:"image_url"`
	Lat         float64   `gorm:"not null" json:"lat"`
	Long        float64   `gorm:"not null" json:"long"`
	AuthID      string    `gorm:"type:uuid;not null;index" json:"auth_id"`
}
