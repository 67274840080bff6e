package models

import (
	"database/sql"
	"time"
)

// Reply is a node in a post's reply forest. ParentID is null for top-level
// replies; a non-null parent must reference a reply on the same post.
type Reply struct {
	ID        int64         `gorm:"primaryKey;autoIncrement;column:id"`
	PostID    int64         `gorm:"not null;index;column:post_id"`
	ParentID  sql.NullInt64 `gorm:"index;column:parent_id"`
	AuthorID  int64         `gorm:"not null;column:author_id"`
	Message   string        `gorm:"type:text;not null;column:message"`
	CreatedAt time.Time     `gorm:"not null;column:created_at"`
	LikeCount int64         `gorm:"not null;default:0;column:like_count"`

	// Relationships
	Post   *Post  `gorm:"foreignKey:PostID;references:ID"`
	Parent *Reply `gorm:"foreignKey:ParentID;references:ID"`
}

// TableName specifies the table name for Reply
func (Reply) TableName() string {
	return "campfire_replies"
}
