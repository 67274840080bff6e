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

// Feed sort orders
const (
	SortNewest        = "newest"
	SortOldest        = "oldest"
	SortMostLiked     = "most_liked"
	SortMostCommented = "most_commented"
)

// FeedFilter narrows a community feed. Nil pointer fields are inactive.
// Filters combine with AND.
type FeedFilter struct {
	SpaceID   *int64
	AuthorID  *int64
	CohortID  *int64
	From      *time.Time
	To        *time.Time
	LikedOnly bool
	SavedOnly bool
}

// FeedPost is a post decorated with the caller's own interaction state
type FeedPost struct {
	*models.Post
	Liked  bool `json:"liked"`
	Saved  bool `json:"saved"`
	Edited bool `json:"edited"`
}

// FeedPage is one page of a feed. Total counts every post matching the
// filter, not just this page.
type FeedPage struct {
	Posts    []*FeedPost `json:"posts"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Total    int64       `json:"total"`
	HasNext  bool        `json:"has_next"`
}

// FeedEngine assembles filtered, sorted, paginated community feeds
type FeedEngine struct {
	db          *gorm.DB
	registry    *Registry
	pageSize    int
	maxPageSize int
	logger      *zap.Logger
}

// NewFeedEngine creates a new feed engine
func NewFeedEngine(database *gorm.DB, registry *Registry, pageSize, maxPageSize int) *FeedEngine {
	if pageSize <= 0 {
		pageSize = 20
	}
	if maxPageSize < pageSize {
		maxPageSize = pageSize
	}
	return &FeedEngine{
		db:          database,
		registry:    registry,
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
		logger:      logging.GetLogger().With(zap.String("component", "feed-engine")),
	}
}

// GetFeed returns one page of a community's feed for the calling member.
// Hidden posts never appear, whatever the filter. page is zero-based.
func (f *FeedEngine) GetFeed(ctx context.Context, userID, communityID int64, filter FeedFilter, sort string, page, pageSize int) (*FeedPage, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.get")
	defer span.End()

	_, found, err := f.registry.RoleOf(ctx, userID, communityID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ForbiddenError("user %d is not a member of community %d", userID, communityID)
	}

	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = f.pageSize
	}
	if pageSize > f.maxPageSize {
		pageSize = f.maxPageSize
	}

	query, err := f.buildQuery(ctx, userID, communityID, filter)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	order, err := orderClause(sort)
	if err != nil {
		return nil, err
	}

	var posts []*models.Post
	err = query.Order(order).
		Offset(page * pageSize).
		Limit(pageSize).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	decorated, err := f.decorate(ctx, userID, posts)
	if err != nil {
		return nil, err
	}

	return &FeedPage{
		Posts:    decorated,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		HasNext:  int64((page+1)*pageSize) < total,
	}, nil
}

// GetSaved returns the caller's saved posts across a community, newest
// save first
func (f *FeedEngine) GetSaved(ctx context.Context, userID, communityID int64, page, pageSize int) (*FeedPage, error) {
	return f.GetFeed(ctx, userID, communityID, FeedFilter{SavedOnly: true}, SortNewest, page, pageSize)
}

func (f *FeedEngine) buildQuery(ctx context.Context, userID, communityID int64, filter FeedFilter) (*gorm.DB, error) {
	query := f.db.WithContext(ctx).Model(&models.Post{}).
		Where("campfire_posts.community_id = ? AND campfire_posts.hidden = ?", communityID, false)

	if filter.SpaceID != nil {
		query = query.Where("campfire_posts.space_id = ?", *filter.SpaceID)
	}
	if filter.AuthorID != nil {
		query = query.Where("campfire_posts.author_id = ?", *filter.AuthorID)
	}
	if filter.CohortID != nil {
		var cohort models.Cohort
		err := f.db.WithContext(ctx).First(&cohort, *filter.CohortID).Error
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError("cohort %d not found", *filter.CohortID)
		}
		if err != nil {
			return nil, err
		}
		if cohort.CommunityID != communityID {
			return nil, NotFoundError("cohort %d not found", *filter.CohortID)
		}
		query = query.Where("campfire_posts.author_id IN (?)",
			f.db.Model(&models.CohortMember{}).
				Select("user_id").
				Where("cohort_id = ?", *filter.CohortID))
	}
	if filter.From != nil {
		query = query.Where("campfire_posts.created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("campfire_posts.created_at < ?", *filter.To)
	}
	if filter.LikedOnly {
		query = query.Where("campfire_posts.id IN (?)",
			f.db.Model(&models.LikeRelation{}).
				Select("target_id").
				Where("user_id = ? AND target_type = ?", userID, models.TargetPost))
	}
	if filter.SavedOnly {
		query = query.Where("campfire_posts.id IN (?)",
			f.db.Model(&models.SaveRelation{}).
				Select("post_id").
				Where("user_id = ?", userID))
	}
	return query, nil
}

// orderClause maps a sort name to SQL. Engagement sorts break ties by
// recency so the ordering stays deterministic.
func orderClause(sort string) (string, error) {
	switch sort {
	case SortNewest, "":
		return "campfire_posts.created_at DESC, campfire_posts.id DESC", nil
	case SortOldest:
		return "campfire_posts.created_at ASC, campfire_posts.id ASC", nil
	case SortMostLiked:
		return "campfire_posts.like_count DESC, campfire_posts.created_at DESC, campfire_posts.id DESC", nil
	case SortMostCommented:
		return "campfire_posts.reply_count DESC, campfire_posts.created_at DESC, campfire_posts.id DESC", nil
	default:
		return "", ValidationError("unknown sort order %q", sort)
	}
}

// decorate resolves the caller's liked/saved state for a page of posts in
// two batch queries
func (f *FeedEngine) decorate(ctx context.Context, userID int64, posts []*models.Post) ([]*FeedPost, error) {
	decorated := make([]*FeedPost, 0, len(posts))
	if len(posts) == 0 {
		return decorated, nil
	}

	ids := make([]int64, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
	}

	var likedIDs []int64
	err := f.db.WithContext(ctx).Model(&models.LikeRelation{}).
		Where("user_id = ? AND target_type = ? AND target_id IN ?", userID, models.TargetPost, ids).
		Pluck("target_id", &likedIDs).Error
	if err != nil {
		return nil, err
	}

	var savedIDs []int64
	err = f.db.WithContext(ctx).Model(&models.SaveRelation{}).
		Where("user_id = ? AND post_id IN ?", userID, ids).
		Pluck("post_id", &savedIDs).Error
	if err != nil {
		return nil, err
	}

	liked := make(map[int64]bool, len(likedIDs))
	for _, id := range likedIDs {
		liked[id] = true
	}
	saved := make(map[int64]bool, len(savedIDs))
	for _, id := range savedIDs {
		saved[id] = true
	}

	for _, post := range posts {
		decorated = append(decorated, &FeedPost{
			Post:   post,
			Liked:  liked[post.ID],
			Saved:  saved[post.ID],
			Edited: post.Edited(),
		})
	}
	return decorated, nil
}
