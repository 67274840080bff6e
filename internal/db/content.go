package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/campfirehq/campfire/internal/models"
)

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// CountVisible counts visible posts of a community
func (r *PostRepository) CountVisible(ctx context.Context, communityID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("community_id = ? AND hidden = ?", communityID, false).
		Count(&count).Error
	return count, err
}

// Attachments retrieves attachments of a post
func (r *PostRepository) Attachments(ctx context.Context, postID int64) ([]*models.Attachment, error) {
	var attachments []*models.Attachment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("id ASC").
		Find(&attachments).Error
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

// ReplyRepository provides reply-related database operations
type ReplyRepository struct {
	*Repository
}

// NewReplyRepository creates a new reply repository
func NewReplyRepository(repo *Repository) *ReplyRepository {
	return &ReplyRepository{Repository: repo}
}

// GetByID retrieves a reply by ID
func (r *ReplyRepository) GetByID(ctx context.Context, id int64) (*models.Reply, error) {
	var reply models.Reply
	if err := r.db.WithContext(ctx).First(&reply, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reply, nil
}

// ListByPost retrieves all replies of a post in creation order
func (r *ReplyRepository) ListByPost(ctx context.Context, postID int64) ([]*models.Reply, error) {
	var replies []*models.Reply
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}
	return replies, nil
}

// ResourceRepository provides resource-related database operations
type ResourceRepository struct {
	*Repository
}

// NewResourceRepository creates a new resource repository
func NewResourceRepository(repo *Repository) *ResourceRepository {
	return &ResourceRepository{Repository: repo}
}

// GetByID retrieves a resource by ID
func (r *ResourceRepository) GetByID(ctx context.Context, id int64) (*models.Resource, error) {
	var resource models.Resource
	if err := r.db.WithContext(ctx).First(&resource, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &resource, nil
}

// ListByCommunity retrieves resources of a community, excluding ones in
// hidden spaces
func (r *ResourceRepository) ListByCommunity(ctx context.Context, communityID int64) ([]*models.Resource, error) {
	var resources []*models.Resource
	err := r.db.WithContext(ctx).
		Where("community_id = ?", communityID).
		Where("space_id IS NULL OR space_id IN (?)",
			r.db.Model(&models.Space{}).Select("id").Where("community_id = ? AND visible = ?", communityID, true)).
		Order("created_at DESC, id DESC").
		Find(&resources).Error
	if err != nil {
		return nil, err
	}
	return resources, nil
}

// EventRepository provides event-related database operations
type EventRepository struct {
	*Repository
}

// NewEventRepository creates a new event repository
func NewEventRepository(repo *Repository) *EventRepository {
	return &EventRepository{Repository: repo}
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// ListByCommunity retrieves events of a community ordered by start time,
// excluding ones in hidden spaces
func (r *EventRepository) ListByCommunity(ctx context.Context, communityID int64) ([]*models.Event, error) {
	var events []*models.Event
	err := r.db.WithContext(ctx).
		Where("community_id = ?", communityID).
		Where("space_id IS NULL OR space_id IN (?)",
			r.db.Model(&models.Space{}).Select("id").Where("community_id = ? AND visible = ?", communityID, true)).
		Order("starts_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
