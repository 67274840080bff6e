package api

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campfirehq/campfire/internal/engine"
	"github.com/campfirehq/campfire/internal/models"
)

// parseParams decodes JSON-RPC params into a typed request struct
func parseParams(params json.RawMessage, dst interface{}) error {
	if len(params) == 0 {
		return engine.ValidationError("missing params")
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return engine.ValidationError("invalid parameters format")
	}
	return nil
}

// callerID extracts the authenticated user id set by the identity proxy.
// Every method requires it; requests without one fail closed.
func callerID(c *gin.Context) (int64, error) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		return 0, engine.ForbiddenError("missing X-User-ID header")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, engine.ForbiddenError("invalid X-User-ID header")
	}
	return id, nil
}

// likeTargetID maps a wire target name to its constant. Post is the default.
func likeTargetID(name string) (int16, error) {
	switch name {
	case "post", "":
		return models.TargetPost, nil
	case "reply":
		return models.TargetReply, nil
	default:
		return 0, engine.ValidationError("unknown like target type %q", name)
	}
}
