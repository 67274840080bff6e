package api

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campfirehq/campfire/internal/cache"
	"github.com/campfirehq/campfire/internal/db"
	"github.com/campfirehq/campfire/internal/engine"
	"github.com/campfirehq/campfire/pkg/logging"
)

const communityListTTL = time.Minute

// CommunityAPI provides community and membership methods
type CommunityAPI struct {
	eng    *engine.Engine
	repo   *db.Repository
	cache  *cache.Cache
	logger *zap.Logger
}

// NewCommunityAPI creates a new community API
func NewCommunityAPI(eng *engine.Engine, repo *db.Repository, redisCache *cache.Cache) *CommunityAPI {
	return &CommunityAPI{
		eng:    eng,
		repo:   repo,
		cache:  redisCache,
		logger: logging.GetLogger().With(zap.String("component", "community-api")),
	}
}

// CreateCommunity handles campfire.create_community
func (a *CommunityAPI) CreateCommunity(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	community, err := a.eng.Content.CreateCommunity(ctx.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	a.invalidateList()
	return newCommunityView(community), nil
}

// GetCommunity handles campfire.get_community
func (a *CommunityAPI) GetCommunity(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
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

	detail, err := a.eng.Content.GetCommunityDetail(ctx.Request.Context(), userID, req.CommunityID)
	if err != nil {
		return nil, err
	}

	spaces := make([]*spaceView, 0, len(detail.Spaces))
	for _, s := range detail.Spaces {
		spaces = append(spaces, newSpaceView(s))
	}
	events := make([]*eventView, 0, len(detail.Events))
	for _, e := range detail.Events {
		events = append(events, newEventView(e))
	}
	resources := make([]*resourceView, 0, len(detail.Resources))
	for _, r := range detail.Resources {
		resources = append(resources, newResourceView(r))
	}
	members := make([]*membershipView, 0, len(detail.Members))
	for _, m := range detail.Members {
		members = append(members, newMembershipView(m))
	}

	return gin.H{
		"community":  newCommunityView(detail.Community),
		"spaces":     spaces,
		"events":     events,
		"resources":  resources,
		"members":    members,
		"post_count": detail.PostCount,
	}, nil
}

// ListCommunities handles campfire.list_communities
func (a *CommunityAPI) ListCommunities(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}
	var req struct {
		Limit int `json:"limit"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, engine.ValidationError("invalid parameters format")
		}
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 100
	}

	cacheKey := cache.HashKey("communities", "list", strconv.Itoa(req.Limit))
	var cached []*communityView
	if err := a.cache.GetJSON(cacheKey, &cached); err == nil {
		return cached, nil
	}

	communities, err := db.NewCommunityRepository(a.repo).List(ctx.Request.Context(), req.Limit)
	if err != nil {
		return nil, err
	}
	views := make([]*communityView, 0, len(communities))
	for _, c := range communities {
		views = append(views, newCommunityView(c))
	}

	if err := a.cache.SetJSON(cacheKey, views, communityListTTL); err != nil && err != cache.ErrCacheDisabled {
		a.logger.Warn("Failed to cache community list", zap.Error(err))
	}
	return views, nil
}

// ListMyCommunities handles campfire.list_my_communities
func (a *CommunityAPI) ListMyCommunities(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	communities, err := db.NewCommunityRepository(a.repo).ListForUser(ctx.Request.Context(), userID)
	if err != nil {
		return nil, err
	}
	views := make([]*communityView, 0, len(communities))
	for _, c := range communities {
		views = append(views, newCommunityView(c))
	}
	return views, nil
}

// ListMembers handles campfire.list_members
func (a *CommunityAPI) ListMembers(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
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

	members, err := a.eng.Registry.ListMembers(ctx.Request.Context(), userID, req.CommunityID)
	if err != nil {
		return nil, err
	}
	views := make([]*membershipView, 0, len(members))
	for _, m := range members {
		views = append(views, newMembershipView(m))
	}
	return views, nil
}

// AddMember handles campfire.add_member
func (a *CommunityAPI) AddMember(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		CommunityID int64  `json:"community_id"`
		UserID      int64  `json:"user_id"`
		Role        string `json:"role"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = "member"
	}
	role := engine.RoleID(req.Role)
	if role == 0 {
		return nil, engine.ValidationError("unknown role %q", req.Role)
	}

	if err := a.eng.Registry.AddMember(ctx.Request.Context(), userID, req.CommunityID, req.UserID, role); err != nil {
		return nil, err
	}
	return gin.H{"added": true}, nil
}

// AddMembers handles campfire.add_members
func (a *CommunityAPI) AddMembers(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		CommunityID int64   `json:"community_id"`
		UserIDs     []int64 `json:"user_ids"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	added, err := a.eng.Registry.AddMembers(ctx.Request.Context(), userID, req.CommunityID, req.UserIDs)
	if err != nil {
		return nil, err
	}
	return gin.H{"added": added}, nil
}

// SetMemberRole handles campfire.set_member_role
func (a *CommunityAPI) SetMemberRole(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		CommunityID int64  `json:"community_id"`
		UserID      int64  `json:"user_id"`
		Role        string `json:"role"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}
	role := engine.RoleID(req.Role)
	if role == 0 {
		return nil, engine.ValidationError("unknown role %q", req.Role)
	}

	if err := a.eng.Registry.UpdateMemberRole(ctx.Request.Context(), userID, req.CommunityID, req.UserID, role); err != nil {
		return nil, err
	}
	return gin.H{"role": req.Role}, nil
}

// RemoveMember handles campfire.remove_member
func (a *CommunityAPI) RemoveMember(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		CommunityID int64 `json:"community_id"`
		UserID      int64 `json:"user_id"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	if err := a.eng.Registry.RemoveMember(ctx.Request.Context(), userID, req.CommunityID, req.UserID); err != nil {
		return nil, err
	}
	return gin.H{"removed": true}, nil
}

// CreateCohort handles campfire.create_cohort
func (a *CommunityAPI) CreateCohort(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		CommunityID int64  `json:"community_id"`
		Name        string `json:"name"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	cohort, err := a.eng.Registry.CreateCohort(ctx.Request.Context(), userID, req.CommunityID, req.Name)
	if err != nil {
		return nil, err
	}
	return newCohortView(cohort), nil
}

// AddCohortMembers handles campfire.add_cohort_members
func (a *CommunityAPI) AddCohortMembers(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		CohortID int64   `json:"cohort_id"`
		UserIDs  []int64 `json:"user_ids"`
	}
	if err := parseParams(params, &req); err != nil {
		return nil, err
	}

	added, err := a.eng.Registry.AddCohortMembers(ctx.Request.Context(), userID, req.CohortID, req.UserIDs)
	if err != nil {
		return nil, err
	}
	return gin.H{"added": added}, nil
}

// ListCohorts handles campfire.list_cohorts
func (a *CommunityAPI) ListCohorts(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
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

	cohorts, err := a.eng.Registry.ListCohorts(ctx.Request.Context(), userID, req.CommunityID)
	if err != nil {
		return nil, err
	}
	views := make([]*cohortView, 0, len(cohorts))
	for _, c := range cohorts {
		views = append(views, newCohortView(c))
	}
	return views, nil
}

func (a *CommunityAPI) invalidateList() {
	// Lists are cached per limit; a short TTL covers the rest
	for _, limit := range []int{100} {
		key := cache.HashKey("communities", "list", strconv.Itoa(limit))
		if err := a.cache.Delete(key); err != nil && err != cache.ErrCacheDisabled {
			a.logger.Warn("Failed to invalidate community list cache", zap.Error(err))
		}
	}
}
