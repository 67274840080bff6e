package models

import (
	"time"
)

// Space is a named sub-group within a community for topic organization.
// Deleting a space flips Visible to false rather than removing rows; hidden
// spaces and their posts are excluded from every read path.
type Space struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id"`
	CommunityID int64     `gorm:"not null;index;column:community_id"`
	Name        string    `gorm:"type:varchar(120);not null;column:name"`
	Description string    `gorm:"type:varchar(5000);not null;default:'';column:description"`
	Icon        string    `gorm:"type:varchar(64);not null;default:'';column:icon"`
	Color       string    `gorm:"type:varchar(16);not null;default:'';column:color"`
	Visible     bool      `gorm:"not null;default:true;column:visible"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Community *Community `gorm:"foreignKey:CommunityID;references:ID"`
}

// TableName specifies the table name for Space
func (Space) TableName() string {
	return "campfire_spaces"
}

// SpaceMember maps a community member into a space
type SpaceMember struct {
	SpaceID   int64     `gorm:"primaryKey;column:space_id"`
	UserID    int64     `gorm:"primaryKey;column:user_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Space *Space `gorm:"foreignKey:SpaceID;references:ID"`
}

// TableName specifies the table name for SpaceMember
func (SpaceMember) TableName() string {
	return "campfire_space_members"
}
