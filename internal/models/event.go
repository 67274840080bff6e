package models

import (
	"database/sql"
	"time"
)

// Event is a scheduled community or space event
type Event struct {
	ID          int64         `gorm:"primaryKey;autoIncrement;column:id"`
	CommunityID int64         `gorm:"not null;index;column:community_id"`
	SpaceID     sql.NullInt64 `gorm:"index;column:space_id"`
	Title       string        `gorm:"type:varchar(255);not null;column:title"`
	Description string        `gorm:"type:varchar(5000);not null;default:'';column:description"`
	StartsAt    time.Time     `gorm:"not null;column:starts_at"`
	EndsAt      time.Time     `gorm:"not null;column:ends_at"`
	Type        string        `gorm:"type:varchar(64);not null;default:'';column:type"`
	Location    string        `gorm:"type:varchar(255);not null;default:'';column:location"`
	CreatorID   int64         `gorm:"not null;column:creator_id"`
	CreatedAt   time.Time     `gorm:"not null;column:created_at"`

	// Relationships
	Community *Community `gorm:"foreignKey:CommunityID;references:ID"`
	Space     *Space     `gorm:"foreignKey:SpaceID;references:ID"`
}

// TableName specifies the table name for Event
func (Event) TableName() string {
	return "campfire_events"
}
