package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/activity-tracker-backend/internal/http/response"
)

type HealthHandler struct {
	version string
	profile string
	started time.Time
}

func NewHealthHandler(version, profile string) *HealthHandler {
	return &HealthHandler{version: version, profile: profile, started: time.Now()}
}

// GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response.RespondOK(c, gin.H{
		"status":         "ok",
		"version":        h.version,
		"profile":        h.profile,
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	})
}
