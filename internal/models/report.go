package models

import (
	"time"
)

// Report is a member-submitted complaint about a post. At most one row per
// (reporter, post); the distinct-reporter count is denormalized onto
// Post.ReportCount.
type Report struct {
	ReporterID int64     `gorm:"primaryKey;column:reporter_id"`
	PostID     int64     `gorm:"primaryKey;column:post_id"`
	Reason     string    `gorm:"type:varchar(255);not null;column:reason"`
	CreatedAt  time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Post *Post `gorm:"foreignKey:PostID;references:ID"`
}

// TableName specifies the table name for Report
func (Report) TableName() string {
	return "campfire_reports"
}
