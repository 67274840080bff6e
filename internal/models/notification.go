package models

import (
	"database/sql"
	"time"
)

// Notification represents a notification row written as a side effect of
// engine operations
type Notification struct {
	ID          int64          `gorm:"primaryKey;autoIncrement;column:id"`
	Type        int16          `gorm:"type:smallint;not null;column:type_id"`
	CreatedAt   time.Time      `gorm:"not null;column:created_at"`
	SrcID       sql.NullInt64  `gorm:"column:src_id"`
	DstID       sql.NullInt64  `gorm:"column:dst_id"`
	CommunityID sql.NullInt64  `gorm:"column:community_id"`
	PostID      sql.NullInt64  `gorm:"column:post_id"`
	Payload     sql.NullString `gorm:"type:text;column:payload"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "campfire_notifs"
}

// Notification type constants
const (
	NotifyTypeSetRole      int16 = 1
	NotifyTypeReply        int16 = 2
	NotifyTypeFlagPending  int16 = 3
	NotifyTypeReportFiled  int16 = 4
	NotifyTypeFlagResolved int16 = 5
)
