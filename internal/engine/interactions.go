package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/campfirehq/campfire/internal/models"
	"github.com/campfirehq/campfire/pkg/logging"
	"github.com/campfirehq/campfire/pkg/telemetry"
)

// ToggleResult is the outcome of a like toggle
type ToggleResult struct {
	Liked     bool
	LikeCount int64
}

// SaveResult is the outcome of a save toggle
type SaveResult struct {
	Saved     bool
	SaveCount int64
}

// Ledger maintains the like and save relations between users and targets.
// Every toggle runs in a single transaction and mutates the denormalized
// counter with an atomic SQL expression, never read-modify-write.
type Ledger struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewLedger creates a new interaction ledger
func NewLedger(database *gorm.DB) *Ledger {
	return &Ledger{
		db:     database,
		logger: logging.GetLogger().With(zap.String("component", "interaction-ledger")),
	}
}

// ToggleLike flips the caller's like on a post or reply and returns the new
// state with the fresh counter value
func (l *Ledger) ToggleLike(ctx context.Context, userID int64, targetType int16, targetID int64) (*ToggleResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "ledger.toggle_like")
	defer span.End()

	if targetType != models.TargetPost && targetType != models.TargetReply {
		return nil, ValidationError("unknown like target type %d", targetType)
	}

	result := &ToggleResult{}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The target row doubles as the counter row
		target := func() *gorm.DB {
			if targetType == models.TargetReply {
				return tx.Model(&models.Reply{}).Where("id = ?", targetID)
			}
			return tx.Model(&models.Post{}).Where("id = ?", targetID)
		}

		var exists int64
		if err := target().Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return NotFoundError("like target %d not found", targetID)
		}

		res := tx.Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
			Delete(&models.LikeRelation{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected > 0 {
			result.Liked = false
			if err := target().Update("like_count",
				gorm.Expr("CASE WHEN like_count > 0 THEN like_count - 1 ELSE 0 END")).Error; err != nil {
				return err
			}
		} else {
			result.Liked = true
			if err := tx.Create(&models.LikeRelation{
				UserID:     userID,
				TargetType: targetType,
				TargetID:   targetID,
				CreatedAt:  time.Now().UTC(),
			}).Error; err != nil {
				return err
			}
			if err := target().Update("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
				return err
			}
		}

		// Read the counter back inside the transaction
		if targetType == models.TargetPost {
			var post models.Post
			if err := tx.Select("like_count").First(&post, targetID).Error; err != nil {
				return err
			}
			result.LikeCount = post.LikeCount
		} else {
			var reply models.Reply
			if err := tx.Select("like_count").First(&reply, targetID).Error; err != nil {
				return err
			}
			result.LikeCount = reply.LikeCount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ToggleSave flips the caller's save on a post
func (l *Ledger) ToggleSave(ctx context.Context, userID, postID int64) (*SaveResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "ledger.toggle_save")
	defer span.End()

	result := &SaveResult{}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return NotFoundError("post %d not found", postID)
		}

		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).
			Delete(&models.SaveRelation{})
		if res.Error != nil {
			return res.Error
		}

		counter := tx.Model(&models.Post{}).Where("id = ?", postID)
		if res.RowsAffected > 0 {
			result.Saved = false
			if err := counter.Update("save_count",
				gorm.Expr("CASE WHEN save_count > 0 THEN save_count - 1 ELSE 0 END")).Error; err != nil {
				return err
			}
		} else {
			result.Saved = true
			if err := tx.Create(&models.SaveRelation{
				UserID:    userID,
				PostID:    postID,
				CreatedAt: time.Now().UTC(),
			}).Error; err != nil {
				return err
			}
			if err := counter.Update("save_count", gorm.Expr("save_count + 1")).Error; err != nil {
				return err
			}
		}

		var post models.Post
		if err := tx.Select("save_count").First(&post, postID).Error; err != nil {
			return err
		}
		result.SaveCount = post.SaveCount
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
