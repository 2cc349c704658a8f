package models

import "time"

// Community is a group stickers are posted into. IDs are server-assigned
// UUIDs so they can be referenced by clients before any numeric key leaks.
type Community struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"size:1024" json:"description"`
	AdminID     string    `gorm:"type:uuid;not null;index" json:"admin_id"`
}

// Membership links a user (by auth id) to a community. The composite unique
// index makes joining idempotent at the database level.
type Membership struct {
	ID          uint `gorm:"primaryKey" json:"-"`
	CreatedAt   time.Time `json:"-"`
	AuthID      string    `gorm:"type:uuid;not null;uniqueIndex:idx_member" json:"user_id"`
	CommunityID string    `gorm:"type:uuid;not null;uniqueIndex:idx_member" json:"community_id"`
	JoinedAt    time.Time `gorm:"not null" json:"joined_at"`
}
