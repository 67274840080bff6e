package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/campfirehq/campfire/internal/engine"
)

// NotifyAPI provides notification methods
type NotifyAPI struct {
	eng *engine.Engine
}

// NewNotifyAPI creates a new notification API
func NewNotifyAPI(eng *engine.Engine) *NotifyAPI {
	return &NotifyAPI{eng: eng}
}

// ListNotifications handles campfire.list_notifications
func (a *NotifyAPI) ListNotifications(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	userID, err := callerID(ctx)
	if err != nil {
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

	notifs, err := a.eng.Notifier.List(ctx.Request.Context(), userID, req.Limit)
	if err != nil {
		return nil, err
	}
	views := make([]*notificationView, 0, len(notifs))
	for _, n := range notifs {
		views = append(views, newNotificationView(n))
	}
	return views, nil
}
