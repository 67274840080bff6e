package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/campfirehq/campfire/internal/db"
	"github.com/campfirehq/campfire/internal/models"
	"github.com/campfirehq/campfire/pkg/logging"
)

// Registry resolves a user's role within a community and answers the
// authorization questions the rest of the engine asks. The query methods
// are pure: absence of a membership yields a negative answer, not an error.
type Registry struct {
	db       *gorm.DB
	notifier *Notifier
	logger   *zap.Logger
}

// NewRegistry creates a new membership registry
func NewRegistry(database *gorm.DB, notifier *Notifier) *Registry {
	return &Registry{
		db:       database,
		notifier: notifier,
		logger:   logging.GetLogger().With(zap.String("component", "membership-registry")),
	}
}

// RoleOf returns the user's role in the community. found is false when the
// user holds no membership.
func (r *Registry) RoleOf(ctx context.Context, userID, communityID int64) (role int16, found bool, err error) {
	membershipRepo := db.NewMembershipRepository(db.NewRepository(r.db))
	membership, err := membershipRepo.Get(ctx, communityID, userID)
	if err != nil {
		return 0, false, err
	}
	if membership == nil {
		return 0, false, nil
	}
	return membership.Role, true, nil
}

// CanModerate reports whether the user may act on flags/reports and manage
// spaces and members
func (r *Registry) CanModerate(ctx context.Context, userID, communityID int64) (bool, error) {
	role, found, err := r.RoleOf(ctx, userID, communityID)
	if err != nil {
		return false, err
	}
	return found && role >= models.RoleModerator, nil
}

// CanPost reports whether the user may post in the community and, when
// spaceID is non-nil, in that space
func (r *Registry) CanPost(ctx context.Context, userID, communityID int64, spaceID *int64) (bool, error) {
	_, found, err := r.RoleOf(ctx, userID, communityID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if spaceID == nil {
		return true, nil
	}
	spaceRepo := db.NewSpaceRepository(db.NewRepository(r.db))
	return spaceRepo.IsMember(ctx, *spaceID, userID)
}

// ListMembers retrieves the membership roster. The caller must hold a
// membership themselves.
func (r *Registry) ListMembers(ctx context.Context, actorID, communityID int64) ([]*models.Membership, error) {
	_, found, err := r.RoleOf(ctx, actorID, communityID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ForbiddenError("user %d is not a member of community %d", actorID, communityID)
	}
	membershipRepo := db.NewMembershipRepository(db.NewRepository(r.db))
	return membershipRepo.List(ctx, communityID)
}

// AddMember adds a user to a community with the given role. Requires a
// moderator actor. Duplicate memberships are a conflict.
func (r *Registry) AddMember(ctx context.Context, actorID, communityID, userID int64, role int16) error {
	if role != models.RoleMember && role != models.RoleModerator && role != models.RoleAdmin {
		return ValidationError("unknown role %d", role)
	}
	ok, err := r.CanModerate(ctx, actorID, communityID)
	if err != nil {
		return err
	}
	if !ok {
		return ForbiddenError("user %d may not manage members of community %d", actorID, communityID)
	}

	// The primary key is the duplicate check; two concurrent adds cannot
	// both pass it
	err = r.db.WithContext(ctx).Create(&models.Membership{
		CommunityID: communityID,
		UserID:      userID,
		Role:        role,
		CreatedAt:   time.Now().UTC(),
	}).Error
	if err != nil {
		if isUniqueViolation(err) {
			return ConflictError("user %d is already a member of community %d", userID, communityID)
		}
		return err
	}
	return nil
}

// isUniqueViolation matches duplicate-key failures across the postgres and
// sqlite drivers.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "duplicate key")
}

// AddMembers adds several users as plain members, skipping ones already
// present. Returns the ids actually added.
func (r *Registry) AddMembers(ctx context.Context, actorID, communityID int64, userIDs []int64) ([]int64, error) {
	added := make([]int64, 0, len(userIDs))
	for _, userID := range userIDs {
		err := r.AddMember(ctx, actorID, communityID, userID, models.RoleMember)
		if err != nil {
			if IsConflict(err) {
				continue
			}
			return added, err
		}
		added = append(added, userID)
	}
	return added, nil
}

// UpdateMemberRole changes a member's role. Demoting the last admin is
// rejected so a community can never end up without one.
func (r *Registry) UpdateMemberRole(ctx context.Context, actorID, communityID, userID int64, role int16) error {
	if role != models.RoleMember && role != models.RoleModerator && role != models.RoleAdmin {
		return ValidationError("unknown role %d", role)
	}
	ok, err := r.CanModerate(ctx, actorID, communityID)
	if err != nil {
		return err
	}
	if !ok {
		return ForbiddenError("user %d may not manage members of community %d", actorID, communityID)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var membership models.Membership
		if err := tx.Where("community_id = ? AND user_id = ?", communityID, userID).
			First(&membership).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NotFoundError("user %d is not a member of community %d", userID, communityID)
			}
			return err
		}
		if membership.Role == role {
			return nil
		}
		if membership.Role == models.RoleAdmin && role != models.RoleAdmin {
			var admins int64
			if err := tx.Model(&models.Membership{}).
				Where("community_id = ? AND role = ?", communityID, models.RoleAdmin).
				Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return InvalidStateError("cannot demote the last admin of community %d", communityID)
			}
		}
		return tx.Model(&models.Membership{}).
			Where("community_id = ? AND user_id = ?", communityID, userID).
			Update("role", role).Error
	})
	if err != nil {
		return err
	}

	roleName := RoleName(role)
	r.notifier.Write(ctx, models.NotifyTypeSetRole, &actorID, &userID, &communityID, nil, &roleName)
	return nil
}

// RemoveMember removes a user from a community. The last admin cannot be
// removed.
func (r *Registry) RemoveMember(ctx context.Context, actorID, communityID, userID int64) error {
	ok, err := r.CanModerate(ctx, actorID, communityID)
	if err != nil {
		return err
	}
	if !ok {
		return ForbiddenError("user %d may not manage members of community %d", actorID, communityID)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var membership models.Membership
		if err := tx.Where("community_id = ? AND user_id = ?", communityID, userID).
			First(&membership).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NotFoundError("user %d is not a member of community %d", userID, communityID)
			}
			return err
		}
		if membership.Role == models.RoleAdmin {
			var admins int64
			if err := tx.Model(&models.Membership{}).
				Where("community_id = ? AND role = ?", communityID, models.RoleAdmin).
				Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return InvalidStateError("cannot remove the last admin of community %d", communityID)
			}
		}
		return tx.Where("community_id = ? AND user_id = ?", communityID, userID).
			Delete(&models.Membership{}).Error
	})
}

// CreateCohort creates a named member grouping. Requires a moderator actor.
func (r *Registry) CreateCohort(ctx context.Context, actorID, communityID int64, name string) (*models.Cohort, error) {
	if name == "" {
		return nil, ValidationError("cohort name must not be empty")
	}
	ok, err := r.CanModerate(ctx, actorID, communityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ForbiddenError("user %d may not manage cohorts of community %d", actorID, communityID)
	}
	cohort := &models.Cohort{
		CommunityID: communityID,
		Name:        name,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(cohort).Error; err != nil {
		return nil, err
	}
	return cohort, nil
}

// AddCohortMembers places community members into a cohort, skipping users
// already in it and users without a community membership
func (r *Registry) AddCohortMembers(ctx context.Context, actorID, cohortID int64, userIDs []int64) ([]int64, error) {
	cohort, err := db.NewCohortRepository(db.NewRepository(r.db)).GetByID(ctx, cohortID)
	if err != nil {
		return nil, err
	}
	if cohort == nil {
		return nil, NotFoundError("cohort %d not found", cohortID)
	}
	ok, err := r.CanModerate(ctx, actorID, cohort.CommunityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ForbiddenError("user %d may not manage cohorts of community %d", actorID, cohort.CommunityID)
	}

	added := make([]int64, 0, len(userIDs))
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, userID := range userIDs {
			var isMember int64
			if err := tx.Model(&models.Membership{}).
				Where("community_id = ? AND user_id = ?", cohort.CommunityID, userID).
				Count(&isMember).Error; err != nil {
				return err
			}
			if isMember == 0 {
				continue
			}
			member := &models.CohortMember{CohortID: cohortID, UserID: userID}
			res := tx.Where("cohort_id = ? AND user_id = ?", cohortID, userID).
				FirstOrCreate(member)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				added = append(added, userID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// ListCohorts retrieves a community's cohorts. The caller must be a member.
func (r *Registry) ListCohorts(ctx context.Context, actorID, communityID int64) ([]*models.Cohort, error) {
	_, found, err := r.RoleOf(ctx, actorID, communityID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ForbiddenError("user %d is not a member of community %d", actorID, communityID)
	}
	return db.NewCohortRepository(db.NewRepository(r.db)).List(ctx, communityID)
}

// RoleName converts a role constant to its wire name
func RoleName(role int16) string {
	switch role {
	case models.RoleAdmin:
		return "admin"
	case models.RoleModerator:
		return "moderator"
	case models.RoleMember:
		return "member"
	default:
		return "none"
	}
}

// RoleID converts a wire role name to its constant, or 0 when unknown
func RoleID(name string) int16 {
	switch name {
	case "admin":
		return models.RoleAdmin
	case "moderator":
		return models.RoleModerator
	case "member":
		return models.RoleMember
	default:
		return 0
	}
}
