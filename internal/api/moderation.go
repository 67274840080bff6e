package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/campfirehq/campfire/internal/engine"
)

// ModerationAPI provides the report and moderation queue methods
type ModerationAPI struct {
	eng *engine.Engine
}

// NewModerationAPI creates a new moderation API
func NewModerationAPI(eng *engine.Engine) *ModerationAPI {
	return &ModerationAPI{eng: eng}
}

// ReportPost handles campfire.report_post
func (a *ModerationAPI) ReportPost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		PostID int64  `json:"post_id"`
		Reason string `json:"reason"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	result, err := a.eng.Pipeline.Report(ctx.Request.Context(), userID, req.PostID, req.Reason)
	if err != nil {
		return nil, err
	}
	return gin.H{
		"already_reported": result.AlreadyReported,
		"report_count":     result.ReportCount,
	}, nil
}

// ListFlagged handles campfire.list_flagged
func (a *ModerationAPI) ListFlagged(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		CommunityID int64 `json:"community_id"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	posts, err := a.eng.Pipeline.ListFlagged(ctx.Request.Context(), userID, req.CommunityID)
	if err != nil {
		return nil, err
	}
	return newPostViews(posts), nil
}

// ListReported handles campfire.list_reported
func (a *ModerationAPI) ListReported(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		CommunityID int64 `json:"community_id"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	posts, err := a.eng.Pipeline.ListReported(ctx.Request.Context(), userID, req.CommunityID)
	if err != nil {
		return nil, err
	}
	return newPostViews(posts), nil
}

// ConfirmViolation handles campfire.confirm_violation
func (a *ModerationAPI) ConfirmViolation(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
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

	if err := a.eng.Pipeline.ConfirmViolation(ctx.Request.Context(), userID, req.PostID); err != nil {
		return nil, err
	}
	return gin.H{"status": "actioned"}, nil
}

// DeletePost handles campfire.moderator_delete_post. Same cascade as the
// author's own delete; the engine authorizes moderators of the post's
// community.
func (a *ModerationAPI) DeletePost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
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
	return gin.H{"status": "deleted"}, nil
}

// DismissFlag handles campfire.dismiss_flag
func (a *ModerationAPI) DismissFlag(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
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

	if err := a.eng.Pipeline.DismissFlag(ctx.Request.Context(), userID, req.PostID); err != nil {
		return nil, err
	}
	return gin.H{"status": "approved"}, nil
}
