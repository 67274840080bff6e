package models

import (
	"time"
)

// Community is the top-level tenant grouping members, spaces and posts
type Community struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Name        string    `gorm:"type:varchar(120);not null;uniqueIndex:campfire_communities_ux1;column:name"`
	Description string    `gorm:"type:varchar(5000);not null;default:'';column:description"`
	CreatorID   int64     `gorm:"not null;column:creator_id"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Community
func (Community) TableName() string {
	return "campfire_communities"
}

// Membership maps a user to their single role within a community
type Membership struct {
	CommunityID int64     `gorm:"primaryKey;column:community_id"`
	UserID      int64     `gorm:"primaryKey;column:user_id"`
	Role        int16     `gorm:"type:smallint;not null;default:2;column:role"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Community *Community `gorm:"foreignKey:CommunityID;references:ID"`
}

// TableName specifies the table name for Membership
func (Membership) TableName() string {
	return "campfire_memberships"
}

// Role constants
const (
	RoleMember    int16 = 2 // Member
	RoleModerator int16 = 4 // Moderator
	RoleAdmin     int16 = 6 // Admin
)

// Cohort is a named grouping of community members, used as a feed filter
type Cohort struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id"`
	CommunityID int64     `gorm:"not null;index;column:community_id"`
	Name        string    `gorm:"type:varchar(120);not null;column:name"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Community *Community `gorm:"foreignKey:CommunityID;references:ID"`
}

// TableName specifies the table name for Cohort
func (Cohort) TableName() string {
	return "campfire_cohorts"
}

// CohortMember maps a user into a cohort
type CohortMember struct {
	CohortID int64 `gorm:"primaryKey;column:cohort_id"`
	UserID   int64 `gorm:"primaryKey;column:user_id"`

	// Relationships
	Cohort *Cohort `gorm:"foreignKey:CohortID;references:ID"`
}

// TableName specifies the table name for CohortMember
func (CohortMember) TableName() string {
	return "campfire_cohort_members"
}
