package models

import "time"

// Profile represents a user's public profile (one-to-one with User).
// CommunityID is the user's current home community and is what clients use
// to default the target of a new sticker submission; it is nil until the
// user joins or creates a community.
type Profile struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
	// Active indicates whether the profile is active. Use this for soft-state
	// instead of physically deleting the record. Defaults to true.
	Active        bool       `gorm:"default:true;not null" json:"-"`
	UserID        uint       `gorm:"uniqueIndex;not null" json:"-"` // one-to-one relation
	User          User       `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AvatarURL     string     `gorm:"size:512" json:"avatar_url"`
	Bio           string     `gorm:"size:1024" json:"bio"`
	CommunityID   *string    `gorm:"type:uuid;index" json:"community_id"`
	IsAdmin       bool       `gorm:"default:false;not null" json:"is_admin"`
	TotalStickers int        `gorm:"default:0;not null" json:"total_stickers"`
	Score         int        `gorm:"default:0;not null" json:"score"`
	LastLogin     *time.Time `json:"last_login"`
}
