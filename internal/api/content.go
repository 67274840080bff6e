package api

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campfirehq/campfire/internal/engine"
	"github.com/campfirehq/campfire/pkg/logging"
)

// upload mirrors engine.Upload on the wire; Content arrives base64-encoded
type upload struct {
	FileName string `json:"file_name"`
	Content  []byte `json:"content"`
}

func toUploads(uploads []upload) []engine.Upload {
	out := make([]engine.Upload, 0, len(uploads))
	for _, u := range uploads {
		out = append(out, engine.Upload{FileName: u.FileName, Content: u.Content})
	}
	return out
}

// ContentAPI provides space, post, reply, resource and event methods
type ContentAPI struct {
	eng    *engine.Engine
	logger *zap.Logger
}

// NewContentAPI creates a new content API
func NewContentAPI(eng *engine.Engine) *ContentAPI {
	return &ContentAPI{
		eng:    eng,
		logger: logging.GetLogger().With(zap.String("component", "content-api")),
	}
}

// CreateSpace handles campfire.create_space
func (a *ContentAPI) CreateSpace(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		CommunityID int64   `json:"community_id"`
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Icon        string  `json:"icon"`
		Color       string  `json:"color"`
		MemberIDs   []int64 `json:"member_ids"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	space, err := a.eng.Content.CreateSpace(ctx.Request.Context(), userID, req.CommunityID,
		req.Name, req.Description, req.Icon, req.Color, req.MemberIDs)
	if err != nil {
		return nil, err
	}
	return newSpaceView(space), nil
}

// UpdateSpace handles campfire.update_space
func (a *ContentAPI) UpdateSpace(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		SpaceID     int64   `json:"space_id"`
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Icon        *string `json:"icon"`
		Color       *string `json:"color"`
		AddMembers  []int64 `json:"add_members"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	space, err := a.eng.Content.UpdateSpace(ctx.Request.Context(), userID, req.SpaceID, engine.SpaceUpdate{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		AddMembers:  req.AddMembers,
	})
	if err != nil {
		return nil, err
	}
	return newSpaceView(space), nil
}

// DeleteSpace handles campfire.delete_space
func (a *ContentAPI) DeleteSpace(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		SpaceID int64 `json:"space_id"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	if err := a.eng.Content.DeleteSpace(ctx.Request.Context(), userID, req.SpaceID); err != nil {
		return nil, err
	}
	return gin.H{"deleted": true}, nil
}

// CreatePost handles campfire.create_post
func (a *ContentAPI) CreatePost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		CommunityID int64    `json:"community_id"`
		SpaceID     *int64   `json:"space_id"`
		Subject     string   `json:"subject"`
		Message     string   `json:"message"`
		Attachments []upload `json:"attachments"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	post, err := a.eng.Content.CreatePost(ctx.Request.Context(), userID, req.CommunityID,
		req.SpaceID, req.Subject, req.Message, toUploads(req.Attachments))
	if err != nil {
		return nil, err
	}
	return newPostView(post), nil
}

// GetPost handles campfire.get_post
func (a *ContentAPI) GetPost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		PostID int64 `json:"post_id"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	detail, err := a.eng.Content.GetPostDetail(ctx.Request.Context(), userID, req.PostID)
	if err != nil {
		return nil, err
	}

	view := newPostView(detail.Post)
	view.Liked = detail.Liked
	view.Saved = detail.Saved
	return gin.H{
		"post":        view,
		"attachments": newAttachmentViews(detail.Attachments),
	}, nil
}

// UpdatePost handles campfire.update_post
func (a *ContentAPI) UpdatePost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		PostID            int64    `json:"post_id"`
		Subject           *string  `json:"subject"`
		Message           *string  `json:"message"`
		AddAttachments    []upload `json:"add_attachments"`
		RemoveAttachments []int64  `json:"remove_attachments"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	post, err := a.eng.Content.UpdatePost(ctx.Request.Context(), userID, req.PostID, engine.PostUpdate{
		Subject:           req.Subject,
		Message:           req.Message,
		AddAttachments:    toUploads(req.AddAttachments),
		RemoveAttachments: req.RemoveAttachments,
	})
	if err != nil {
		return nil, err
	}
	return newPostView(post), nil
}

// DeletePost handles campfire.delete_post
func (a *ContentAPI) DeletePost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		PostID int64 `json:"post_id"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	if err := a.eng.Content.DeletePost(ctx.Request.Context(), userID, req.PostID); err != nil {
		return nil, err
	}
	return gin.H{"deleted": true}, nil
}

// AddReply handles campfire.add_reply
func (a *ContentAPI) AddReply(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		PostID   int64  `json:"post_id"`
		ParentID *int64 `json:"parent_id"`
		Message  string `json:"message"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	reply, err := a.eng.Replies.AddReply(ctx.Request.Context(), userID, req.PostID, req.ParentID, req.Message)
	if err != nil {
		return nil, err
	}
	return newReplyView(reply), nil
}

// GetReplies handles campfire.get_replies
func (a *ContentAPI) GetReplies(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		PostID int64 `json:"post_id"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	roots, err := a.eng.Replies.GetReplyTree(ctx.Request.Context(), userID, req.PostID)
	if err != nil {
		return nil, err
	}
	return newReplyTreeViews(roots), nil
}

// ToggleLike handles campfire.toggle_like
func (a *ContentAPI) ToggleLike(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		TargetType string `json:"target_type"`
		TargetID   int64  `json:"target_id"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}
	targetType, err := likeTargetID(req.TargetType)
	if err != nil {
		return nil, err
	}

	result, err := a.eng.Ledger.ToggleLike(ctx.Request.Context(), userID, targetType, req.TargetID)
	if err != nil {
		return nil, err
	}
	return gin.H{"liked": result.Liked, "like_count": result.LikeCount}, nil
}

// ToggleSave handles campfire.toggle_save
func (a *ContentAPI) ToggleSave(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		PostID int64 `json:"post_id"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	result, err := a.eng.Ledger.ToggleSave(ctx.Request.Context(), userID, req.PostID)
	if err != nil {
		return nil, err
	}
	return gin.H{"saved": result.Saved, "save_count": result.SaveCount}, nil
}

// CreateResource handles campfire.create_resource
func (a *ContentAPI) CreateResource(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		CommunityID int64  `json:"community_id"`
		SpaceID     *int64 `json:"space_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		File        upload `json:"file"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	resource, err := a.eng.Content.CreateResource(ctx.Request.Context(), userID, req.CommunityID,
		req.SpaceID, req.Title, req.Description,
		engine.Upload{FileName: req.File.FileName, Content: req.File.Content})
	if err != nil {
		return nil, err
	}
	return newResourceView(resource), nil
}

// DownloadResource handles campfire.download_resource
func (a *ContentAPI) DownloadResource(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		ResourceID int64 `json:"resource_id"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	resource, content, err := a.eng.Content.DownloadResource(ctx.Request.Context(), userID, req.ResourceID)
	if err != nil {
		return nil, err
	}
	return gin.H{
		"resource": newResourceView(resource),
		"content":  content,
	}, nil
}

// CreateEvent handles campfire.create_event
func (a *ContentAPI) CreateEvent(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		CommunityID int64     `json:"community_id"`
		SpaceID     *int64    `json:"space_id"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Type        string    `json:"type"`
		Location    string    `json:"location"`
		StartsAt    time.Time `json:"starts_at"`
		EndsAt      time.Time `json:"ends_at"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	event, err := a.eng.Content.CreateEvent(ctx.Request.Context(), userID, req.CommunityID,
		req.SpaceID, req.Title, req.Description, req.Type, req.Location, req.StartsAt, req.EndsAt)
	if err != nil {
		return nil, err
	}
	return newEventView(event), nil
}

// UpdateEvent handles campfire.update_event
func (a *ContentAPI) UpdateEvent(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		EventID     int64      `json:"event_id"`
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Type        *string    `json:"type"`
		Location    *string    `json:"location"`
		StartsAt    *time.Time `json:"starts_at"`
		EndsAt      *time.Time `json:"ends_at"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	event, err := a.eng.Content.UpdateEvent(ctx.Request.Context(), userID, req.EventID, engine.EventUpdate{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	})
	if err != nil {
		return nil, err
	}
	return newEventView(event), nil
}

// DeleteEvent handles campfire.delete_event
func (a *ContentAPI) DeleteEvent(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		EventID int64 `json:"event_id"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	if err := a.eng.Content.DeleteEvent(ctx.Request.Context(), userID, req.EventID); err != nil {
		return nil, err
	}
	return gin.H{"deleted": true}, nil
}
