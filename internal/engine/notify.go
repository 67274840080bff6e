package engine

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/campfirehq/campfire/internal/models"
	"github.com/campfirehq/campfire/pkg/logging"
)

// Notifier writes notification rows as a side effect of engine operations.
// Writes are best-effort: a failed insert is logged, never surfaced.
type Notifier struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewNotifier creates a new notifier
func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{
		db:     db,
		logger: logging.GetLogger().With(zap.String("component", "notifier")),
	}
}

// Write records a notification
func (n *Notifier) Write(ctx context.Context, typeID int16, srcID, dstID, communityID, postID *int64, payload *string) {
	notif := &models.Notification{
		Type:      typeID,
		CreatedAt: time.Now().UTC(),
	}
	if srcID != nil {
		notif.SrcID = sql.NullInt64{Int64: *srcID, Valid: true}
	}
	if dstID != nil {
		notif.DstID = sql.NullInt64{Int64: *dstID, Valid: true}
	}
	if communityID != nil {
		notif.CommunityID = sql.NullInt64{Int64: *communityID, Valid: true}
	}
	if postID != nil {
		notif.PostID = sql.NullInt64{Int64: *postID, Valid: true}
	}
	if payload != nil {
		notif.Payload = sql.NullString{String: *payload, Valid: true}
	}

	if err := n.db.WithContext(ctx).Create(notif).Error; err != nil {
		n.logger.Warn("Failed to write notification",
			zap.Int16("type", typeID),
			zap.Error(err))
	}
}

// List retrieves the most recent notifications addressed to a user
func (n *Notifier) List(ctx context.Context, userID int64, limit int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var notifs []*models.Notification
	err := n.db.WithContext(ctx).
		Where("dst_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&notifs).Error
	if err != nil {
		return nil, err
	}
	return notifs, nil
}
