package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/campfirehq/campfire/internal/classifier"
	"github.com/campfirehq/campfire/internal/db"
	"github.com/campfirehq/campfire/internal/models"
	"github.com/campfirehq/campfire/pkg/logging"
	"github.com/campfirehq/campfire/pkg/telemetry"
)

// ReportResult is the outcome of filing a report. Duplicate reports are
// success-shaped, not errors.
type ReportResult struct {
	AlreadyReported bool
	ReportCount     int64
}

// Pipeline runs the two moderation signal channels: best-effort automated
// classification and user reports, plus the moderator transitions that
// resolve both for a post.
type Pipeline struct {
	db       *gorm.DB
	registry *Registry
	cls      classifier.Classifier
	notifier *Notifier
	logger   *zap.Logger
}

// NewPipeline creates a new moderation pipeline. cls may be nil when no
// classifier is configured; posts then simply stay unflagged.
func NewPipeline(database *gorm.DB, registry *Registry, cls classifier.Classifier, notifier *Notifier) *Pipeline {
	return &Pipeline{
		db:       database,
		registry: registry,
		cls:      cls,
		notifier: notifier,
		logger:   logging.GetLogger().With(zap.String("component", "moderation-pipeline")),
	}
}

// ScanAsync queues a post for classification. Fire and forget: creation
// never waits on the classifier and a dropped scan leaves the post
// unflagged.
func (p *Pipeline) ScanAsync(postID int64, message string) {
	if p.cls == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		p.Scan(ctx, postID, message)
	}()
}

// Scan classifies a message and, when flagged, moves the post into the
// pending moderation queue. Errors are logged, never surfaced.
func (p *Pipeline) Scan(ctx context.Context, postID int64, message string) {
	if p.cls == nil {
		return
	}
	ctx, span := telemetry.StartSpan(ctx, "moderation.scan")
	defer span.End()

	verdict, err := p.cls.Classify(ctx, message)
	if err != nil {
		p.logger.Warn("Classification failed, post stays unflagged",
			zap.Int64("post_id", postID),
			zap.Error(err))
		return
	}
	if !verdict.Flagged {
		return
	}

	// Never resurrect a post a moderator already actioned
	res := p.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND flag_status <> ?", postID, models.FlagStatusActioned).
		Updates(map[string]interface{}{
			"flagged":     true,
			"flag_reason": verdict.Reason,
			"flag_status": models.FlagStatusPending,
		})
	if res.Error != nil {
		p.logger.Error("Failed to record flag", zap.Int64("post_id", postID), zap.Error(res.Error))
		return
	}
	if res.RowsAffected > 0 {
		p.logger.Info("Post flagged by classifier",
			zap.Int64("post_id", postID),
			zap.String("reason", verdict.Reason))
		post, err := db.NewPostRepository(db.NewRepository(p.db)).GetByID(ctx, postID)
		if err == nil && post != nil {
			p.notifier.Write(ctx, models.NotifyTypeFlagPending, nil, &post.AuthorID, &post.CommunityID, &postID, &verdict.Reason)
		}
	}
}

// Report files a user report against a post. One report per reporter; a
// second attempt reports success with AlreadyReported set.
func (p *Pipeline) Report(ctx context.Context, reporterID, postID int64, reason string) (*ReportResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "moderation.report")
	defer span.End()

	post, err := db.NewPostRepository(db.NewRepository(p.db)).GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || post.Hidden {
		return nil, NotFoundError("post %d not found", postID)
	}
	if post.AuthorID == reporterID {
		return nil, InvalidStateError("cannot report your own post")
	}

	_, found, err := p.registry.RoleOf(ctx, reporterID, post.CommunityID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ForbiddenError("user %d is not a member of community %d", reporterID, post.CommunityID)
	}

	result := &ReportResult{}
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Report{}).
			Where("reporter_id = ? AND post_id = ?", reporterID, postID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			result.AlreadyReported = true
		} else {
			if err := tx.Create(&models.Report{
				ReporterID: reporterID,
				PostID:     postID,
				Reason:     reason,
				CreatedAt:  time.Now().UTC(),
			}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Post{}).
				Where("id = ?", postID).
				Update("report_count", gorm.Expr("report_count + 1")).Error; err != nil {
				return err
			}
		}
		// Read the count in the same transaction so a concurrent delete
		// cannot invalidate it
		return tx.Model(&models.Post{}).
			Where("id = ?", postID).
			Select("report_count").
			Scan(&result.ReportCount).Error
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyReported {
		p.notifier.Write(ctx, models.NotifyTypeReportFiled, &reporterID, nil, &post.CommunityID, &postID, &reason)
	}
	return result, nil
}

// ListFlagged returns the automated-flag queue of a community: posts
// awaiting a moderator decision
func (p *Pipeline) ListFlagged(ctx context.Context, actorID, communityID int64) ([]*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "moderation.list_flagged")
	defer span.End()

	if err := p.requireModerator(ctx, actorID, communityID); err != nil {
		return nil, err
	}

	var posts []*models.Post
	err := p.db.WithContext(ctx).
		Where("community_id = ? AND flagged = ? AND flag_status = ?",
			communityID, true, models.FlagStatusPending).
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// ListReported returns the user-report queue of a community: posts with at
// least one report and no terminal decision yet
func (p *Pipeline) ListReported(ctx context.Context, actorID, communityID int64) ([]*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "moderation.list_reported")
	defer span.End()

	if err := p.requireModerator(ctx, actorID, communityID); err != nil {
		return nil, err
	}

	var posts []*models.Post
	err := p.db.WithContext(ctx).
		Where("community_id = ? AND report_count > 0 AND flag_status NOT IN ?",
			communityID, []int16{models.FlagStatusApproved, models.FlagStatusActioned}).
		Order("report_count DESC, created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// ConfirmViolation confirms a pending or reported post as violating and
// hides it. The transition is terminal and resolves both signal channels.
func (p *Pipeline) ConfirmViolation(ctx context.Context, actorID, postID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "moderation.confirm_violation")
	defer span.End()

	return p.transition(ctx, actorID, postID, map[string]interface{}{
		"flag_status": models.FlagStatusActioned,
		"hidden":      true,
	}, "confirmed")
}

// DismissFlag resolves a pending or reported post as a false positive. The
// post stays visible and leaves both queues for good.
func (p *Pipeline) DismissFlag(ctx context.Context, actorID, postID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "moderation.dismiss_flag")
	defer span.End()

	return p.transition(ctx, actorID, postID, map[string]interface{}{
		"flag_status": models.FlagStatusApproved,
		"flagged":     false,
	}, "dismissed")
}

// transition applies a terminal moderation decision. The WHERE clause keys
// on the pre-decision state so two moderators cannot both win the race.
func (p *Pipeline) transition(ctx context.Context, actorID, postID int64, updates map[string]interface{}, verb string) error {
	post, err := db.NewPostRepository(db.NewRepository(p.db)).GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return NotFoundError("post %d not found", postID)
	}

	if err := p.requireModerator(ctx, actorID, post.CommunityID); err != nil {
		return err
	}

	res := p.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		Where("flag_status = ? OR (report_count > 0 AND flag_status = ?)",
			models.FlagStatusPending, models.FlagStatusNone).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return InvalidStateError("post %d has no pending moderation decision", postID)
	}

	p.logger.Info("Moderation decision applied",
		zap.Int64("post_id", postID),
		zap.Int64("moderator_id", actorID),
		zap.String("decision", verb))
	p.notifier.Write(ctx, models.NotifyTypeFlagResolved, &actorID, &post.AuthorID, &post.CommunityID, &postID, &verb)
	return nil
}

func (p *Pipeline) requireModerator(ctx context.Context, actorID, communityID int64) error {
	ok, err := p.registry.CanModerate(ctx, actorID, communityID)
	if err != nil {
		return err
	}
	if !ok {
		return ForbiddenError("user %d may not moderate community %d", actorID, communityID)
	}
	return nil
}
