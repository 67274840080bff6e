package models

import (
	"database/sql"
	"time"
)

// Post represents a community post. SpaceID is null for community-level
// posts. Counters are denormalized and mutated only through atomic SQL
// expressions. ModifiedAt > CreatedAt means the post was edited.
type Post struct {
	ID          int64          `gorm:"primaryKey;autoIncrement;column:id"`
	CommunityID int64          `gorm:"not null;index;column:community_id"`
	SpaceID     sql.NullInt64  `gorm:"index;column:space_id"`
	AuthorID    int64          `gorm:"not null;index;column:author_id"`
	Subject     string         `gorm:"type:varchar(255);not null;default:'';column:subject"`
	Message     string         `gorm:"type:text;not null;column:message"`
	CreatedAt   time.Time      `gorm:"not null;column:created_at"`
	ModifiedAt  time.Time      `gorm:"not null;column:modified_at"`
	LikeCount   int64          `gorm:"not null;default:0;column:like_count"`
	SaveCount   int64          `gorm:"not null;default:0;column:save_count"`
	ReplyCount  int64          `gorm:"not null;default:0;column:reply_count"`
	ReportCount int64          `gorm:"not null;default:0;column:report_count"`
	Hidden      bool           `gorm:"not null;default:false;column:hidden"`
	Flagged     bool           `gorm:"not null;default:false;column:flagged"`
	FlagReason  sql.NullString `gorm:"type:varchar(255);column:flag_reason"`
	FlagStatus  int16          `gorm:"type:smallint;not null;default:0;column:flag_status"`

	// Relationships
	Community *Community `gorm:"foreignKey:CommunityID;references:ID"`
	Space     *Space     `gorm:"foreignKey:SpaceID;references:ID"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "campfire_posts"
}

// Flag status constants
const (
	FlagStatusNone     int16 = 0 // No moderation signal outstanding
	FlagStatusPending  int16 = 1 // Awaiting a moderator decision
	FlagStatusApproved int16 = 2 // Dismissed as a false positive, post stays visible
	FlagStatusActioned int16 = 3 // Violation confirmed, post hidden
)

// Edited reports whether the post was modified after creation
func (p *Post) Edited() bool {
	return p.ModifiedAt.After(p.CreatedAt)
}

// Attachment is a media file attached to a post, stored in blob storage
type Attachment struct {
	ID         int64     `gorm:"primaryKey;autoIncrement;column:id"`
	PostID     int64     `gorm:"not null;index;column:post_id"`
	FileName   string    `gorm:"type:varchar(255);not null;column:file_name"`
	StorageKey string    `gorm:"type:varchar(255);not null;column:storage_key"`
	Size       int64     `gorm:"not null;default:0;column:size"`
	CreatedAt  time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Post *Post `gorm:"foreignKey:PostID;references:ID"`
}

// TableName specifies the table name for Attachment
func (Attachment) TableName() string {
	return "campfire_attachments"
}
