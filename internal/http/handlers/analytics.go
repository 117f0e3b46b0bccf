package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/activity-tracker-backend/internal/http/response"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
	"github.com/yungbote/activity-tracker-backend/internal/services"
)

type AnalyticsHandler struct {
	log       *logger.Logger
	analytics services.AnalyticsService
}

func NewAnalyticsHandler(log *logger.Logger, analytics services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		log:       log.With("handler", "AnalyticsHandler"),
		analytics: analytics,
	}
}

// GET /analytics
func (h *AnalyticsHandler) Analytics(c *gin.Context) {
	view, err := h.analytics.Analytics(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// GET /timeline
func (h *AnalyticsHandler) Timeline(c *gin.Context) {
	q := services.TimelineQuery{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Range:    c.Query("range"),
	}
	view, err := h.analytics.Timeline(c.Request.Context(), q)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, view)
}
