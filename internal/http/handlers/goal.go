package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/activity-tracker-backend/internal/http/response"
	"github.com/yungbote/activity-tracker-backend/internal/observability"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
	"github.com/yungbote/activity-tracker-backend/internal/services"
)

type GoalHandler struct {
	log     *logger.Logger
	goals   services.GoalService
	metrics *observability.Metrics
}

func NewGoalHandler(log *logger.Logger, goals services.GoalService, metrics *observability.Metrics) *GoalHandler {
	return &GoalHandler{
		log:     log.With("handler", "GoalHandler"),
		goals:   goals,
		metrics: metrics,
	}
}

type addGoalRequest struct {
	Text string `json:"text" form:"text"`
	// Older clients submit goal_text.
	GoalText string `json:"goal_text" form:"goal_text"`
	WeekOf   string `json:"week_of" form:"week_of"`
}

// POST /goal/add
func (h *GoalHandler) Add(c *gin.Context) {
	var req addGoalRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	text := req.Text
	if strings.TrimSpace(text) == "" {
		text = req.GoalText
	}
	weekOf, err := parseDate(req.WeekOf)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_week_of", err)
		return
	}

	g, err := h.goals.Add(c.Request.Context(), text, weekOf)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	h.metrics.IncGoalAdded()
	c.JSON(http.StatusCreated, gin.H{"goal": g})
}

// POST /goal/edit/:id
func (h *GoalHandler) Edit(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_goal_id", err)
		return
	}
	var req addGoalRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	text := req.Text
	if strings.TrimSpace(text) == "" {
		text = req.GoalText
	}

	g, err := h.goals.Edit(c.Request.Context(), id, text)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"goal": g})
}

// GET /goal/delete/:id
func (h *GoalHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_goal_id", err)
		return
	}
	if err := h.goals.Remove(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /goal/toggle/:id
func (h *GoalHandler) Toggle(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_goal_id", err)
		return
	}
	g, err := h.goals.ToggleComplete(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"goal": g})
}
