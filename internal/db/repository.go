package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/campfirehq/campfire/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the underlying gorm handle for transactional services
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// CommunityRepository provides community-related database operations
type CommunityRepository struct {
	*Repository
}

// NewCommunityRepository creates a new community repository
func NewCommunityRepository(repo *Repository) *CommunityRepository {
	return &CommunityRepository{Repository: repo}
}

// GetByID retrieves a community by ID
func (r *CommunityRepository) GetByID(ctx context.Context, id int64) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).First(&community, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &community, nil
}

// GetByName retrieves a community by name
func (r *CommunityRepository) GetByName(ctx context.Context, name string) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&community).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &community, nil
}

// List retrieves communities ordered by name
func (r *CommunityRepository) List(ctx context.Context, limit int) ([]*models.Community, error) {
	var communities []*models.Community
	if err := r.db.WithContext(ctx).Order("name ASC").Limit(limit).Find(&communities).Error; err != nil {
		return nil, err
	}
	return communities, nil
}

// ListForUser retrieves communities the user holds a membership in
func (r *CommunityRepository) ListForUser(ctx context.Context, userID int64) ([]*models.Community, error) {
	var communities []*models.Community
	err := r.db.WithContext(ctx).
		Joins("INNER JOIN campfire_memberships ON campfire_memberships.community_id = campfire_communities.id").
		Where("campfire_memberships.user_id = ?", userID).
		Order("campfire_communities.name ASC").
		Find(&communities).Error
	if err != nil {
		return nil, err
	}
	return communities, nil
}

// SpaceRepository provides space-related database operations
type SpaceRepository struct {
	*Repository
}

// NewSpaceRepository creates a new space repository
func NewSpaceRepository(repo *Repository) *SpaceRepository {
	return &SpaceRepository{Repository: repo}
}

// GetByID retrieves a space by ID
func (r *SpaceRepository) GetByID(ctx context.Context, id int64) (*models.Space, error) {
	var space models.Space
	if err := r.db.WithContext(ctx).First(&space, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &space, nil
}

// ListVisible retrieves visible spaces of a community
func (r *SpaceRepository) ListVisible(ctx context.Context, communityID int64) ([]*models.Space, error) {
	var spaces []*models.Space
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND visible = ?", communityID, true).
		Order("name ASC").
		Find(&spaces).Error
	if err != nil {
		return nil, err
	}
	return spaces, nil
}

// IsMember reports whether the user belongs to the space
func (r *SpaceRepository) IsMember(ctx context.Context, spaceID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SpaceMember{}).
		Where("space_id = ? AND user_id = ?", spaceID, userID).
		Count(&count).Error
	return count > 0, err
}

// MembershipRepository provides membership-related database operations
type MembershipRepository struct {
	*Repository
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(repo *Repository) *MembershipRepository {
	return &MembershipRepository{Repository: repo}
}

// Get retrieves a membership row, nil when absent
func (r *MembershipRepository) Get(ctx context.Context, communityID, userID int64) (*models.Membership, error) {
	var membership models.Membership
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &membership, nil
}

// List retrieves all memberships of a community ordered by role descending
func (r *MembershipRepository) List(ctx context.Context, communityID int64) ([]*models.Membership, error) {
	var memberships []*models.Membership
	err := r.db.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("role DESC, user_id ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

// CountAdmins counts admins of a community
func (r *MembershipRepository) CountAdmins(ctx context.Context, communityID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("community_id = ? AND role = ?", communityID, models.RoleAdmin).
		Count(&count).Error
	return count, err
}

// CohortRepository provides cohort-related database operations
type CohortRepository struct {
	*Repository
}

// NewCohortRepository creates a new cohort repository
func NewCohortRepository(repo *Repository) *CohortRepository {
	return &CohortRepository{Repository: repo}
}

// GetByID retrieves a cohort by ID
func (r *CohortRepository) GetByID(ctx context.Context, id int64) (*models.Cohort, error) {
	var cohort models.Cohort
	if err := r.db.WithContext(ctx).First(&cohort, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cohort, nil
}

// List retrieves cohorts of a community
func (r *CohortRepository) List(ctx context.Context, communityID int64) ([]*models.Cohort, error) {
	var cohorts []*models.Cohort
	err := r.db.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("name ASC").
		Find(&cohorts).Error
	if err != nil {
		return nil, err
	}
	return cohorts, nil
}
