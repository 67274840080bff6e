package models

import (
	"time"
)

// Like target type constants
const (
	TargetPost  int16 = 1
	TargetReply int16 = 2
)

// LikeRelation records that a user likes a post or reply. Presence of the
// row is the whole state; toggling inserts or deletes it.
type LikeRelation struct {
	UserID     int64     `gorm:"primaryKey;column:user_id"`
	TargetType int16     `gorm:"primaryKey;type:smallint;column:target_type"`
	TargetID   int64     `gorm:"primaryKey;column:target_id"`
	CreatedAt  time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for LikeRelation
func (LikeRelation) TableName() string {
	return "campfire_likes"
}

// SaveRelation records that a user saved a post. Post-only.
type SaveRelation struct {
	UserID    int64     `gorm:"primaryKey;column:user_id"`
	PostID    int64     `gorm:"primaryKey;column:post_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Post *Post `gorm:"foreignKey:PostID;references:ID"`
}

// TableName specifies the table name for SaveRelation
func (SaveRelation) TableName() string {
	return "campfire_saves"
}
