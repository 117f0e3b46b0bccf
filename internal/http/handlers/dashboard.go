package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/activity-tracker-backend/internal/http/response"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
	"github.com/yungbote/activity-tracker-backend/internal/services"
)

type DashboardHandler struct {
	log       *logger.Logger
	dashboard services.DashboardService
	goals     services.GoalService
}

func NewDashboardHandler(log *logger.Logger, dashboard services.DashboardService, goals services.GoalService) *DashboardHandler {
	return &DashboardHandler{
		log:       log.With("handler", "DashboardHandler"),
		dashboard: dashboard,
		goals:     goals,
	}
}

// GET /
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	q := services.DashboardQuery{
		Search:      c.Query("search"),
		Priority:    c.Query("priority"),
		Status:      c.Query("status"),
		HasBlockers: c.Query("has_blockers") == "1" || c.Query("has_blockers") == "true",
		Sort:        c.Query("sort"),
		Dir:         c.Query("dir"),
	}

	view, err := h.dashboard.Build(c.Request.Context(), q)
	if err != nil {
		h.log.Error("Dashboard build failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "dashboard_failed", err)
		return
	}

	goals, err := h.goals.CurrentWeek(c.Request.Context())
	if err != nil {
		h.log.Error("Dashboard goals load failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "dashboard_failed", err)
		return
	}

	response.RespondOK(c, gin.H{
		"dashboard": view,
		"goals":     goals,
	})
}

// GET /activities
func (h *DashboardHandler) Activities(c *gin.Context) {
	q := services.DashboardQuery{
		Search:      c.Query("search"),
		Priority:    c.Query("priority"),
		Status:      c.Query("status"),
		HasBlockers: c.Query("has_blockers") == "1" || c.Query("has_blockers") == "true",
		Sort:        c.Query("sort"),
		Dir:         c.Query("dir"),
	}
	list, err := h.dashboard.All(c.Request.Context(), q)
	if err != nil {
		h.log.Error("Activities list failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"activities": list})
}
