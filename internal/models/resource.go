package models

import (
	"database/sql"
	"time"
)

// Resource is an uploaded file shared with a community or space
type Resource struct {
	ID            int64         `gorm:"primaryKey;autoIncrement;column:id"`
	CommunityID   int64         `gorm:"not null;index;column:community_id"`
	SpaceID       sql.NullInt64 `gorm:"index;column:space_id"`
	Title         string        `gorm:"type:varchar(255);not null;column:title"`
	Description   string        `gorm:"type:varchar(5000);not null;default:'';column:description"`
	FileName      string        `gorm:"type:varchar(255);not null;column:file_name"`
	StorageKey    string        `gorm:"type:varchar(255);not null;column:storage_key"`
	UploaderID    int64         `gorm:"not null;column:uploader_id"`
	CreatedAt     time.Time     `gorm:"not null;column:created_at"`
	DownloadCount int64         `gorm:"not null;default:0;column:download_count"`

	// Relationships
	Community *Community `gorm:"foreignKey:CommunityID;references:ID"`
	Space     *Space     `gorm:"foreignKey:SpaceID;references:ID"`
}

// TableName specifies the table name for Resource
func (Resource) TableName() string {
	return "campfire_resources"
}
