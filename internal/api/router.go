package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campfirehq/campfire/internal/cache"
	"github.com/campfirehq/campfire/internal/db"
	"github.com/campfirehq/campfire/internal/engine"
	"github.com/campfirehq/campfire/pkg/logging"
)

// Router sets up API routes
type Router struct {
	handler *JSONRPCHandler
	eng     *engine.Engine
	db      *db.DB
	cache   *cache.Cache
	logger  *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(eng *engine.Engine, database *db.DB, redisCache *cache.Cache) *Router {
	handler := NewJSONRPCHandler()
	router := &Router{
		handler: handler,
		eng:     eng,
		db:      database,
		cache:   redisCache,
		logger:  logging.GetLogger().With(zap.String("component", "api-router")),
	}

	router.registerMethods()

	return router
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	// JSON-RPC endpoint
	engine.POST("/", r.handler.Handle)
}

// registerMethods registers all API methods
func (r *Router) registerMethods() {
	repo := db.NewRepository(r.db.DB)

	community := NewCommunityAPI(r.eng, repo, r.cache)
	r.handler.RegisterMethod("campfire.create_community", community.CreateCommunity)
	r.handler.RegisterMethod("campfire.get_community", community.GetCommunity)
	r.handler.RegisterMethod("campfire.list_communities", community.ListCommunities)
	r.handler.RegisterMethod("campfire.list_my_communities", community.ListMyCommunities)
	r.handler.RegisterMethod("campfire.list_members", community.ListMembers)
	r.handler.RegisterMethod("campfire.add_member", community.AddMember)
	r.handler.RegisterMethod("campfire.add_members", community.AddMembers)
	r.handler.RegisterMethod("campfire.set_member_role", community.SetMemberRole)
	r.handler.RegisterMethod("campfire.remove_member", community.RemoveMember)
	r.handler.RegisterMethod("campfire.create_cohort", community.CreateCohort)
	r.handler.RegisterMethod("campfire.add_cohort_members", community.AddCohortMembers)
	r.handler.RegisterMethod("campfire.list_cohorts", community.ListCohorts)

	content := NewContentAPI(r.eng)
	r.handler.RegisterMethod("campfire.create_space", content.CreateSpace)
	r.handler.RegisterMethod("campfire.update_space", content.UpdateSpace)
	r.handler.RegisterMethod("campfire.delete_space", content.DeleteSpace)
	r.handler.RegisterMethod("campfire.create_post", content.CreatePost)
	r.handler.RegisterMethod("campfire.get_post", content.GetPost)
	r.handler.RegisterMethod("campfire.update_post", content.UpdatePost)
	r.handler.RegisterMethod("campfire.delete_post", content.DeletePost)
	r.handler.RegisterMethod("campfire.add_reply", content.AddReply)
	r.handler.RegisterMethod("campfire.get_replies", content.GetReplies)
	r.handler.RegisterMethod("campfire.toggle_like", content.ToggleLike)
	r.handler.RegisterMethod("campfire.toggle_save", content.ToggleSave)
	r.handler.RegisterMethod("campfire.create_resource", content.CreateResource)
	r.handler.RegisterMethod("campfire.download_resource", content.DownloadResource)
	r.handler.RegisterMethod("campfire.create_event", content.CreateEvent)
	r.handler.RegisterMethod("campfire.update_event", content.UpdateEvent)
	r.handler.RegisterMethod("campfire.delete_event", content.DeleteEvent)

	feed := NewFeedAPI(r.eng)
	r.handler.RegisterMethod("campfire.get_feed", feed.GetFeed)
	r.handler.RegisterMethod("campfire.get_saved", feed.GetSaved)

	moderation := NewModerationAPI(r.eng)
	r.handler.RegisterMethod("campfire.report_post", moderation.ReportPost)
	r.handler.RegisterMethod("campfire.list_flagged", moderation.ListFlagged)
	r.handler.RegisterMethod("campfire.list_reported", moderation.ListReported)
	r.handler.RegisterMethod("campfire.confirm_violation", moderation.ConfirmViolation)
	r.handler.RegisterMethod("campfire.dismiss_flag", moderation.DismissFlag)
	r.handler.RegisterMethod("campfire.moderator_delete_post", moderation.DeletePost)

	notify := NewNotifyAPI(r.eng)
	r.handler.RegisterMethod("campfire.list_notifications", notify.ListNotifications)
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "OK",
		"service": "campfire-api",
	})
}
