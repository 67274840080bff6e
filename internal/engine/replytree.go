package engine

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/campfirehq/campfire/internal/db"
	"github.com/campfirehq/campfire/internal/models"
	"github.com/campfirehq/campfire/pkg/logging"
	"github.com/campfirehq/campfire/pkg/telemetry"
)

// ReplyNode is one reply plus its child subtrees. Children are ordered
// oldest first.
type ReplyNode struct {
	*models.Reply
	Liked    bool         `json:"liked"`
	Children []*ReplyNode `json:"children"`
}

// TreeBuilder creates replies and assembles a post's reply forest
type TreeBuilder struct {
	db       *gorm.DB
	registry *Registry
	notifier *Notifier
	logger   *zap.Logger
}

// NewTreeBuilder creates a new reply tree builder
func NewTreeBuilder(database *gorm.DB, registry *Registry, notifier *Notifier) *TreeBuilder {
	return &TreeBuilder{
		db:       database,
		registry: registry,
		notifier: notifier,
		logger:   logging.GetLogger().With(zap.String("component", "reply-tree")),
	}
}

// AddReply creates a reply on a post, nested under parentID when non-nil.
// The parent must belong to the same post.
func (t *TreeBuilder) AddReply(ctx context.Context, authorID, postID int64, parentID *int64, message string) (*models.Reply, error) {
	ctx, span := telemetry.StartSpan(ctx, "replies.add")
	defer span.End()

	if strings.TrimSpace(message) == "" {
		return nil, ValidationError("reply message must not be empty")
	}

	post, err := db.NewPostRepository(db.NewRepository(t.db)).GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || post.Hidden {
		return nil, NotFoundError("post %d not found", postID)
	}

	var spaceID *int64
	if post.SpaceID.Valid {
		spaceID = &post.SpaceID.Int64
	}
	ok, err := t.registry.CanPost(ctx, authorID, post.CommunityID, spaceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ForbiddenError("user %d may not reply in community %d", authorID, post.CommunityID)
	}

	reply := &models.Reply{
		PostID:    postID,
		AuthorID:  authorID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if parentID != nil {
		var parent models.Reply
		err := t.db.WithContext(ctx).First(&parent, *parentID).Error
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError("reply %d not found", *parentID)
		}
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, InvalidStateError("reply %d belongs to a different post", *parentID)
		}
		reply.ParentID = sql.NullInt64{Int64: *parentID, Valid: true}
	}

	err = t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reply).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).
			Where("id = ?", postID).
			Update("reply_count", gorm.Expr("reply_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("Reply created",
		zap.Int64("reply_id", reply.ID),
		zap.Int64("post_id", postID))
	if post.AuthorID != authorID {
		t.notifier.Write(ctx, models.NotifyTypeReply, &authorID, &post.AuthorID, &post.CommunityID, &postID, nil)
	}
	return reply, nil
}

// GetReplyTree returns a post's full reply forest with the caller's like
// state on each node. Built in one pass over a single ordered query.
func (t *TreeBuilder) GetReplyTree(ctx context.Context, userID, postID int64) ([]*ReplyNode, error) {
	ctx, span := telemetry.StartSpan(ctx, "replies.tree")
	defer span.End()

	post, err := db.NewPostRepository(db.NewRepository(t.db)).GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, NotFoundError("post %d not found", postID)
	}
	if post.Hidden {
		ok, err := t.registry.CanModerate(ctx, userID, post.CommunityID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, NotFoundError("post %d not found", postID)
		}
	}

	_, found, err := t.registry.RoleOf(ctx, userID, post.CommunityID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ForbiddenError("user %d is not a member of community %d", userID, post.CommunityID)
	}

	replies, err := db.NewReplyRepository(db.NewRepository(t.db)).ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	liked, err := t.likedReplies(ctx, userID, replies)
	if err != nil {
		return nil, err
	}

	// Creation order guarantees every parent precedes its children, so a
	// single forward pass links the forest.
	nodes := make(map[int64]*ReplyNode, len(replies))
	roots := make([]*ReplyNode, 0)
	for _, reply := range replies {
		node := &ReplyNode{
			Reply:    reply,
			Liked:    liked[reply.ID],
			Children: make([]*ReplyNode, 0),
		}
		nodes[reply.ID] = node
		if reply.ParentID.Valid {
			if parent, ok := nodes[reply.ParentID.Int64]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots, nil
}

func (t *TreeBuilder) likedReplies(ctx context.Context, userID int64, replies []*models.Reply) (map[int64]bool, error) {
	liked := make(map[int64]bool, len(replies))
	if len(replies) == 0 {
		return liked, nil
	}
	ids := make([]int64, 0, len(replies))
	for _, reply := range replies {
		ids = append(ids, reply.ID)
	}
	var likedIDs []int64
	err := t.db.WithContext(ctx).Model(&models.LikeRelation{}).
		Where("user_id = ? AND target_type = ? AND target_id IN ?", userID, models.TargetReply, ids).
		Pluck("target_id", &likedIDs).Error
	if err != nil {
		return nil, err
	}
	for _, id := range likedIDs {
		liked[id] = true
	}
	return liked, nil
}
