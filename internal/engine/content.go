package engine

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/campfirehq/campfire/internal/db"
	"github.com/campfirehq/campfire/internal/models"
	"github.com/campfirehq/campfire/internal/storage"
	"github.com/campfirehq/campfire/pkg/logging"
	"github.com/campfirehq/campfire/pkg/telemetry"
)

// Upload is a file submitted alongside a post or resource
type Upload struct {
	FileName string
	Content  []byte
}

// SpaceUpdate carries optional field changes for a space
type SpaceUpdate struct {
	Name        *string
	Description *string
	Icon        *string
	Color       *string
	AddMembers  []int64
}

// PostUpdate carries optional field changes for a post
type PostUpdate struct {
	Subject           *string
	Message           *string
	AddAttachments    []Upload
	RemoveAttachments []int64
}

// EventUpdate carries optional field changes for an event
type EventUpdate struct {
	Title       *string
	Description *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Type        *string
	Location    *string
}

// CommunityDetail is the aggregate view of a community
type CommunityDetail struct {
	Community *models.Community
	Spaces    []*models.Space
	Events    []*models.Event
	Resources []*models.Resource
	Members   []*models.Membership
	PostCount int64
}

// PostDetail is a post plus its attachments and the caller's interaction state
type PostDetail struct {
	Post        *models.Post
	Attachments []*models.Attachment
	Liked       bool
	Saved       bool
}

// ContentStore owns the persisted entities and validates ownership and
// referential invariants before every mutation.
type ContentStore struct {
	db        *gorm.DB
	registry  *Registry
	pipeline  *Pipeline
	blobs     storage.Store
	maxUpload int64
	logger    *zap.Logger
}

// NewContentStore creates a new content store
func NewContentStore(database *gorm.DB, registry *Registry, pipeline *Pipeline, blobs storage.Store, maxUpload int64) *ContentStore {
	return &ContentStore{
		db:        database,
		registry:  registry,
		pipeline:  pipeline,
		blobs:     blobs,
		maxUpload: maxUpload,
		logger:    logging.GetLogger().With(zap.String("component", "content-store")),
	}
}

// CreateCommunity creates a community; the creator becomes its first admin
func (s *ContentStore) CreateCommunity(ctx context.Context, actorID int64, name, description string) (*models.Community, error) {
	ctx, span := telemetry.StartSpan(ctx, "content.create_community")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ValidationError("community name must not be empty")
	}

	now := time.Now().UTC()
	community := &models.Community{
		Name:        name,
		Description: description,
		CreatorID:   actorID,
		CreatedAt:   now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Community{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ConflictError("community %q already exists", name)
		}
		if err := tx.Create(community).Error; err != nil {
			return err
		}
		// Creator is implicitly an admin member
		return tx.Create(&models.Membership{
			CommunityID: community.ID,
			UserID:      actorID,
			Role:        models.RoleAdmin,
			CreatedAt:   now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Community created",
		zap.Int64("id", community.ID),
		zap.String("name", name))
	return community, nil
}

// GetCommunityDetail assembles the aggregate community view for a member
func (s *ContentStore) GetCommunityDetail(ctx context.Context, actorID, communityID int64) (*CommunityDetail, error) {
	ctx, span := telemetry.StartSpan(ctx, "content.get_community_detail")
	defer span.End()

	repo := db.NewRepository(s.db)
	community, err := db.NewCommunityRepository(repo).GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if community == nil {
		return nil, NotFoundError("community %d not found", communityID)
	}

	_, found, err := s.registry.RoleOf(ctx, actorID, communityID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ForbiddenError("user %d is not a member of community %d", actorID, communityID)
	}

	spaces, err := db.NewSpaceRepository(repo).ListVisible(ctx, communityID)
	if err != nil {
		return nil, err
	}
	events, err := db.NewEventRepository(repo).ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}
	resources, err := db.NewResourceRepository(repo).ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}
	members, err := db.NewMembershipRepository(repo).List(ctx, communityID)
	if err != nil {
		return nil, err
	}
	postCount, err := db.NewPostRepository(repo).CountVisible(ctx, communityID)
	if err != nil {
		return nil, err
	}

	return &CommunityDetail{
		Community: community,
		Spaces:    spaces,
		Events:    events,
		Resources: resources,
		Members:   members,
		PostCount: postCount,
	}, nil
}

// CreateSpace creates a space in a community. Requires a moderator actor;
// the actor and any listed members join the space.
func (s *ContentStore) CreateSpace(ctx context.Context, actorID, communityID int64, name, description, icon, color string, memberIDs []int64) (*models.Space, error) {
	ctx, span := telemetry.StartSpan(ctx, "content.create_space")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ValidationError("space name must not be empty")
	}

	community, err := db.NewCommunityRepository(db.NewRepository(s.db)).GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if community == nil {
		return nil, NotFoundError("community %d not found", communityID)
	}

	ok, err := s.registry.CanModerate(ctx, actorID, communityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ForbiddenError("user %d may not manage spaces of community %d", actorID, communityID)
	}

	now := time.Now().UTC()
	space := &models.Space{
		CommunityID: communityID,
		Name:        name,
		Description: description,
		Icon:        icon,
		Color:       color,
		Visible:     true,
		CreatedAt:   now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(space).Error; err != nil {
			return err
		}
		seen := map[int64]bool{actorID: true}
		members := []int64{actorID}
		for _, id := range memberIDs {
			if !seen[id] {
				seen[id] = true
				members = append(members, id)
			}
		}
		for _, id := range members {
			if err := tx.Create(&models.SpaceMember{
				SpaceID:   space.ID,
				UserID:    id,
				CreatedAt: now,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return space, nil
}

// UpdateSpace applies field changes and adds members to a space
func (s *ContentStore) UpdateSpace(ctx context.Context, actorID, spaceID int64, upd SpaceUpdate) (*models.Space, error) {
	ctx, span := telemetry.StartSpan(ctx, "content.update_space")
	defer span.End()

	space, err := s.visibleSpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	ok, err := s.registry.CanModerate(ctx, actorID, space.CommunityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ForbiddenError("user %d may not manage spaces of community %d", actorID, space.CommunityID)
	}

	updates := make(map[string]interface{})
	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return nil, ValidationError("space name must not be empty")
		}
		updates["name"] = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.Icon != nil {
		updates["icon"] = *upd.Icon
	}
	if upd.Color != nil {
		updates["color"] = *upd.Color
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Space{}).Where("id = ?", spaceID).Updates(updates).Error; err != nil {
				return err
			}
		}
		now := time.Now().UTC()
		for _, id := range upd.AddMembers {
			member := &models.SpaceMember{SpaceID: spaceID, UserID: id, CreatedAt: now}
			if err := tx.Where("space_id = ? AND user_id = ?", spaceID, id).
				FirstOrCreate(member).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return db.NewSpaceRepository(db.NewRepository(s.db)).GetByID(ctx, spaceID)
}

// DeleteSpace soft-hides a space and all of its posts. Nothing is removed;
// every read path filters on the visibility flags.
func (s *ContentStore) DeleteSpace(ctx context.Context, actorID, spaceID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "content.delete_space")
	defer span.End()

	space, err := s.visibleSpace(ctx, spaceID)
	if err != nil {
		return err
	}

	ok, err := s.registry.CanModerate(ctx, actorID, space.CommunityID)
	if err != nil {
		return err
	}
	if !ok {
		return ForbiddenError("user %d may not manage spaces of community %d", actorID, space.CommunityID)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Space{}).
			Where("id = ?", spaceID).
			Update("visible", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).
			Where("space_id = ?", spaceID).
			Update("hidden", true).Error
	})
}

// CreatePost creates a post and queues it for content classification.
// Classification never blocks creation.
func (s *ContentStore) CreatePost(ctx context.Context, actorID, communityID int64, spaceID *int64, subject, message string, attachments []Upload) (*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "content.create_post")
	defer span.End()

	if strings.TrimSpace(message) == "" {
		return nil, ValidationError("post message must not be empty")
	}
	for _, a := range attachments {
		if int64(len(a.Content)) > s.maxUpload {
			return nil, ValidationError("attachment %q exceeds the upload size limit", a.FileName)
		}
	}

	if spaceID != nil {
		space, err := s.visibleSpace(ctx, *spaceID)
		if err != nil {
			return nil, err
		}
		// A post's space must belong to the post's community
		if space.CommunityID != communityID {
			return nil, InvalidStateError("space %d does not belong to community %d", *spaceID, communityID)
		}
	}

	ok, err := s.registry.CanPost(ctx, actorID, communityID, spaceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ForbiddenError("user %d may not post in community %d", actorID, communityID)
	}

	now := time.Now().UTC()
	post := &models.Post{
		CommunityID: communityID,
		AuthorID:    actorID,
		Subject:     subject,
		Message:     message,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	if spaceID != nil {
		post.SpaceID = sql.NullInt64{Int64: *spaceID, Valid: true}
	}

	stored := make([]string, 0, len(attachments))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		for _, a := range attachments {
			key := storage.NewKey("attachments/"+strconv.FormatInt(post.ID, 10), a.FileName)
			if err := s.blobs.Put(ctx, key, a.Content); err != nil {
				return err
			}
			stored = append(stored, key)
			if err := tx.Create(&models.Attachment{
				PostID:     post.ID,
				FileName:   a.FileName,
				StorageKey: key,
				Size:       int64(len(a.Content)),
				CreatedAt:  now,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// Drop any blobs written before the transaction failed
		for _, key := range stored {
			if derr := s.blobs.Delete(ctx, key); derr != nil {
				s.logger.Warn("Failed to clean up orphaned blob", zap.String("key", key), zap.Error(derr))
			}
		}
		return nil, err
	}

	s.pipeline.ScanAsync(post.ID, post.Message)
	return post, nil
}

// GetPostDetail retrieves a post with its attachments and the caller's
// like/save state. Hidden posts resolve only for moderators.
func (s *ContentStore) GetPostDetail(ctx context.Context, actorID, postID int64) (*PostDetail, error) {
	ctx, span := telemetry.StartSpan(ctx, "content.get_post_detail")
	defer span.End()

	repo := db.NewRepository(s.db)
	post, err := db.NewPostRepository(repo).GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, NotFoundError("post %d not found", postID)
	}
	if post.Hidden {
		ok, err := s.registry.CanModerate(ctx, actorID, post.CommunityID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, NotFoundError("post %d not found", postID)
		}
	}

	attachments, err := db.NewPostRepository(repo).Attachments(ctx, postID)
	if err != nil {
		return nil, err
	}

	var liked, saved int64
	if err := s.db.WithContext(ctx).Model(&models.LikeRelation{}).
		Where("user_id = ? AND target_type = ? AND target_id = ?", actorID, models.TargetPost, postID).
		Count(&liked).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.SaveRelation{}).
		Where("user_id = ? AND post_id = ?", actorID, postID).
		Count(&saved).Error; err != nil {
		return nil, err
	}

	return &PostDetail{
		Post:        post,
		Attachments: attachments,
		Liked:       liked > 0,
		Saved:       saved > 0,
	}, nil
}

// UpdatePost applies changes to a post. Only the author or a moderator may
// edit; ModifiedAt moves only when subject or message actually changes, and
// a changed message is re-queued for classification.
func (s *ContentStore) UpdatePost(ctx context.Context, actorID, postID int64, upd PostUpdate) (*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "content.update_post")
	defer span.End()

	post, err := s.authorizePostMutation(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	contentChanged := false
	if upd.Subject != nil && *upd.Subject != post.Subject {
		updates["subject"] = *upd.Subject
		contentChanged = true
	}
	if upd.Message != nil && *upd.Message != post.Message {
		if strings.TrimSpace(*upd.Message) == "" {
			return nil, ValidationError("post message must not be empty")
		}
		updates["message"] = *upd.Message
		contentChanged = true
	}
	for _, a := range upd.AddAttachments {
		if int64(len(a.Content)) > s.maxUpload {
			return nil, ValidationError("attachment %q exceeds the upload size limit", a.FileName)
		}
	}
	if contentChanged {
		updates["modified_at"] = time.Now().UTC()
	}

	var removedKeys []string
	stored := make([]string, 0, len(upd.AddAttachments))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Post{}).Where("id = ?", postID).Updates(updates).Error; err != nil {
				return err
			}
		}
		now := time.Now().UTC()
		for _, a := range upd.AddAttachments {
			key := storage.NewKey("attachments/"+strconv.FormatInt(postID, 10), a.FileName)
			if err := s.blobs.Put(ctx, key, a.Content); err != nil {
				return err
			}
			stored = append(stored, key)
			if err := tx.Create(&models.Attachment{
				PostID:     postID,
				FileName:   a.FileName,
				StorageKey: key,
				Size:       int64(len(a.Content)),
				CreatedAt:  now,
			}).Error; err != nil {
				return err
			}
		}
		if len(upd.RemoveAttachments) > 0 {
			var doomed []*models.Attachment
			if err := tx.Where("post_id = ? AND id IN ?", postID, upd.RemoveAttachments).
				Find(&doomed).Error; err != nil {
				return err
			}
			for _, a := range doomed {
				removedKeys = append(removedKeys, a.StorageKey)
			}
			if err := tx.Where("post_id = ? AND id IN ?", postID, upd.RemoveAttachments).
				Delete(&models.Attachment{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		for _, key := range stored {
			if derr := s.blobs.Delete(ctx, key); derr != nil {
				s.logger.Warn("Failed to clean up orphaned blob", zap.String("key", key), zap.Error(derr))
			}
		}
		return nil, err
	}

	for _, key := range removedKeys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to delete attachment blob", zap.String("key", key), zap.Error(err))
		}
	}

	updated, err := db.NewPostRepository(db.NewRepository(s.db)).GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if upd.Message != nil && *upd.Message != post.Message {
		s.pipeline.ScanAsync(postID, *upd.Message)
	}
	return updated, nil
}

// DeletePost hard-deletes a post, its reply tree and every relation row
// referencing them
func (s *ContentStore) DeletePost(ctx context.Context, actorID, postID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "content.delete_post")
	defer span.End()

	if _, err := s.authorizePostMutation(ctx, actorID, postID); err != nil {
		return err
	}

	var blobKeys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var replyIDs []int64
		if err := tx.Model(&models.Reply{}).
			Where("post_id = ?", postID).
			Pluck("id", &replyIDs).Error; err != nil {
			return err
		}

		if len(replyIDs) > 0 {
			if err := tx.Where("target_type = ? AND target_id IN ?", models.TargetReply, replyIDs).
				Delete(&models.LikeRelation{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("target_type = ? AND target_id = ?", models.TargetPost, postID).
			Delete(&models.LikeRelation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.SaveRelation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Report{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Reply{}).Error; err != nil {
			return err
		}

		var attachments []*models.Attachment
		if err := tx.Where("post_id = ?", postID).Find(&attachments).Error; err != nil {
			return err
		}
		for _, a := range attachments {
			blobKeys = append(blobKeys, a.StorageKey)
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Post{}, postID).Error
	})
	if err != nil {
		return err
	}

	for _, key := range blobKeys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to delete attachment blob", zap.String("key", key), zap.Error(err))
		}
	}

	s.logger.Info("Post deleted", zap.Int64("post_id", postID), zap.Int64("actor_id", actorID))
	return nil
}

// CreateResource stores an uploaded file and its metadata. Any member may
// upload.
func (s *ContentStore) CreateResource(ctx context.Context, actorID, communityID int64, spaceID *int64, title, description string, file Upload) (*models.Resource, error) {
	ctx, span := telemetry.StartSpan(ctx, "content.create_resource")
	defer span.End()

	if strings.TrimSpace(title) == "" {
		return nil, ValidationError("resource title must not be empty")
	}
	if len(file.Content) == 0 {
		return nil, ValidationError("resource file must not be empty")
	}
	if int64(len(file.Content)) > s.maxUpload {
		return nil, ValidationError("resource %q exceeds the upload size limit", file.FileName)
	}

	if spaceID != nil {
		space, err := s.visibleSpace(ctx, *spaceID)
		if err != nil {
			return nil, err
		}
		if space.CommunityID != communityID {
			return nil, InvalidStateError("space %d does not belong to community %d", *spaceID, communityID)
		}
	}

	ok, err := s.registry.CanPost(ctx, actorID, communityID, spaceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ForbiddenError("user %d may not upload to community %d", actorID, communityID)
	}

	key := storage.NewKey("resources/"+strconv.FormatInt(communityID, 10), file.FileName)
	if err := s.blobs.Put(ctx, key, file.Content); err != nil {
		return nil, err
	}

	resource := &models.Resource{
		CommunityID: communityID,
		Title:       title,
		Description: description,
		FileName:    file.FileName,
		StorageKey:  key,
		UploaderID:  actorID,
		CreatedAt:   time.Now().UTC(),
	}
	if spaceID != nil {
		resource.SpaceID = sql.NullInt64{Int64: *spaceID, Valid: true}
	}

	if err := s.db.WithContext(ctx).Create(resource).Error; err != nil {
		if derr := s.blobs.Delete(ctx, key); derr != nil {
			s.logger.Warn("Failed to clean up orphaned blob", zap.String("key", key), zap.Error(derr))
		}
		return nil, err
	}
	return resource, nil
}

// DownloadResource returns a resource's file content and bumps its download
// counter atomically
func (s *ContentStore) DownloadResource(ctx context.Context, actorID, resourceID int64) (*models.Resource, []byte, error) {
	ctx, span := telemetry.StartSpan(ctx, "content.download_resource")
	defer span.End()

	resource, err := db.NewResourceRepository(db.NewRepository(s.db)).GetByID(ctx, resourceID)
	if err != nil {
		return nil, nil, err
	}
	if resource == nil {
		return nil, nil, NotFoundError("resource %d not found", resourceID)
	}

	_, found, err := s.registry.RoleOf(ctx, actorID, resource.CommunityID)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, ForbiddenError("user %d is not a member of community %d", actorID, resource.CommunityID)
	}

	content, err := s.blobs.Get(ctx, resource.StorageKey)
	if err != nil {
		return nil, nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.Resource{}).
		Where("id = ?", resourceID).
		Update("download_count", gorm.Expr("download_count + 1")).Error; err != nil {
		return nil, nil, err
	}
	resource.DownloadCount++

	return resource, content, nil
}

// CreateEvent schedules an event. Requires a moderator actor.
func (s *ContentStore) CreateEvent(ctx context.Context, actorID, communityID int64, spaceID *int64, title, description, eventType, location string, startsAt, endsAt time.Time) (*models.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "content.create_event")
	defer span.End()

	if strings.TrimSpace(title) == "" {
		return nil, ValidationError("event title must not be empty")
	}
	if !endsAt.After(startsAt) {
		return nil, ValidationError("event end must be after its start")
	}

	if spaceID != nil {
		space, err := s.visibleSpace(ctx, *spaceID)
		if err != nil {
			return nil, err
		}
		if space.CommunityID != communityID {
			return nil, InvalidStateError("space %d does not belong to community %d", *spaceID, communityID)
		}
	}

	ok, err := s.registry.CanModerate(ctx, actorID, communityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ForbiddenError("user %d may not manage events of community %d", actorID, communityID)
	}

	event := &models.Event{
		CommunityID: communityID,
		Title:       title,
		Description: description,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		Type:        eventType,
		Location:    location,
		CreatorID:   actorID,
		CreatedAt:   time.Now().UTC(),
	}
	if spaceID != nil {
		event.SpaceID = sql.NullInt64{Int64: *spaceID, Valid: true}
	}

	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// UpdateEvent applies field changes to an event. Requires a moderator actor.
func (s *ContentStore) UpdateEvent(ctx context.Context, actorID, eventID int64, upd EventUpdate) (*models.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "content.update_event")
	defer span.End()

	repo := db.NewEventRepository(db.NewRepository(s.db))
	event, err := repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, NotFoundError("event %d not found", eventID)
	}

	ok, err := s.registry.CanModerate(ctx, actorID, event.CommunityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ForbiddenError("user %d may not manage events of community %d", actorID, event.CommunityID)
	}

	startsAt := event.StartsAt
	endsAt := event.EndsAt
	if upd.StartsAt != nil {
		startsAt = *upd.StartsAt
	}
	if upd.EndsAt != nil {
		endsAt = *upd.EndsAt
	}
	if !endsAt.After(startsAt) {
		return nil, ValidationError("event end must be after its start")
	}

	updates := make(map[string]interface{})
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, ValidationError("event title must not be empty")
		}
		updates["title"] = *upd.Title
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.StartsAt != nil {
		updates["starts_at"] = *upd.StartsAt
	}
	if upd.EndsAt != nil {
		updates["ends_at"] = *upd.EndsAt
	}
	if upd.Type != nil {
		updates["type"] = *upd.Type
	}
	if upd.Location != nil {
		updates["location"] = *upd.Location
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Event{}).
			Where("id = ?", eventID).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return repo.GetByID(ctx, eventID)
}

// DeleteEvent removes an event. Requires a moderator actor.
func (s *ContentStore) DeleteEvent(ctx context.Context, actorID, eventID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "content.delete_event")
	defer span.End()

	event, err := db.NewEventRepository(db.NewRepository(s.db)).GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return NotFoundError("event %d not found", eventID)
	}

	ok, err := s.registry.CanModerate(ctx, actorID, event.CommunityID)
	if err != nil {
		return err
	}
	if !ok {
		return ForbiddenError("user %d may not manage events of community %d", actorID, event.CommunityID)
	}

	return s.db.WithContext(ctx).Delete(&models.Event{}, eventID).Error
}

// visibleSpace loads a space, treating hidden spaces as gone
func (s *ContentStore) visibleSpace(ctx context.Context, spaceID int64) (*models.Space, error) {
	space, err := db.NewSpaceRepository(db.NewRepository(s.db)).GetByID(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	if space == nil || !space.Visible {
		return nil, NotFoundError("space %d not found", spaceID)
	}
	return space, nil
}

// authorizePostMutation loads a post and verifies the actor is its author
// or a moderator of its community
func (s *ContentStore) authorizePostMutation(ctx context.Context, actorID, postID int64) (*models.Post, error) {
	post, err := db.NewPostRepository(db.NewRepository(s.db)).GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, NotFoundError("post %d not found", postID)
	}
	if post.AuthorID == actorID {
		return post, nil
	}
	ok, err := s.registry.CanModerate(ctx, actorID, post.CommunityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ForbiddenError("user %d may not modify post %d", actorID, postID)
	}
	return post, nil
}
