package api

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campfirehq/campfire/internal/engine"
)

// FeedAPI provides feed methods
type FeedAPI struct {
	eng *engine.Engine
}

// NewFeedAPI creates a new feed API
func NewFeedAPI(eng *engine.Engine) *FeedAPI {
	return &FeedAPI{eng: eng}
}

// GetFeed handles campfire.get_feed
func (a *FeedAPI) GetFeed(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		CommunityID int64      `json:"community_id"`
		SpaceID     *int64     `json:"space_id"`
		AuthorID    *int64     `json:"author_id"`
		CohortID    *int64     `json:"cohort_id"`
		From        *time.Time `json:"from"`
		To          *time.Time `json:"to"`
		LikedOnly   bool       `json:"liked_only"`
		SavedOnly   bool       `json:"saved_only"`
		Sort        string     `json:"sort"`
		Page        int        `json:"page"`
		PageSize    int        `json:"page_size"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	page, err := a.eng.Feed.GetFeed(ctx.Request.Context(), userID, req.CommunityID, engine.FeedFilter{
		SpaceID:   req.SpaceID,
		AuthorID:  req.AuthorID,
		CohortID:  req.CohortID,
		From:      req.From,
		To:        req.To,
		LikedOnly: req.LikedOnly,
		SavedOnly: req.SavedOnly,
	}, req.Sort, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}
	return newFeedPageView(page), nil
}

// GetSaved handles campfire.get_saved
func (a *FeedAPI) GetSaved(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		CommunityID int64 `json:"community_id"`
		Page        int   `json:"page"`
		PageSize    int   `json:"page_size"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	page, err := a.eng.Feed.GetSaved(ctx.Request.Context(), userID, req.CommunityID, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}
	return newFeedPageView(page), nil
}
