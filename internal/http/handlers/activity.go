package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/activity-tracker-backend/internal/domain/tracker"
	"github.com/yungbote/activity-tracker-backend/internal/http/response"
	"github.com/yungbote/activity-tracker-backend/internal/observability"
	"github.com/yungbote/activity-tracker-backend/internal/platform/apierr"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
	"github.com/yungbote/activity-tracker-backend/internal/services"
)

type ActivityHandler struct {
	log      *logger.Logger
	activity services.ActivityService
	metrics  *observability.Metrics
}

func NewActivityHandler(log *logger.Logger, activity services.ActivityService, metrics *observability.Metrics) *ActivityHandler {
	return &ActivityHandler{
		log:      log.With("handler", "ActivityHandler"),
		activity: activity,
		metrics:  metrics,
	}
}

type createActivityRequest struct {
	Description    string `json:"description" form:"description"`
	Source         string `json:"source" form:"source"`
	StartDate      string `json:"start_date" form:"start_date"`
	EndDate        string `json:"end_date" form:"end_date"`
	BlockingPoints string `json:"blocking_points" form:"blocking_points"`
	Status         string `json:"status" form:"status"`
	Priority       string `json:"priority" form:"priority"`
	Tags           string `json:"tags" form:"tags"`
	InitialNote    string `json:"initial_note" form:"initial_note"`
}

// GET /add
// With ?clone=<id> the response carries the source activity's fields as
// prefill; otherwise just the defaults.
func (h *ActivityHandler) NewActivityForm(c *gin.Context) {
	prefill := gin.H{
		"status":   tracker.StatusOngoing,
		"priority": tracker.PriorityMedium,
	}
	if cloneID := c.Query("clone"); cloneID != "" {
		id, err := uuid.Parse(cloneID)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_clone_id", err)
			return
		}
		src, err := h.activity.Get(c.Request.Context(), id)
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		prefill["description"] = src.Description
		prefill["source"] = src.Source
		prefill["blocking_points"] = src.BlockingPoints
		prefill["priority"] = src.Priority
		prefill["tags"] = src.Tags
	}
	response.RespondOK(c, gin.H{"prefill": prefill})
}

// POST /add
func (h *ActivityHandler) Create(c *gin.Context) {
	var req createActivityRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_start_date", err)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_end_date", err)
		return
	}

	in := services.CreateActivityInput{
		Description:    req.Description,
		Source:         req.Source,
		EndDate:        end,
		BlockingPoints: req.BlockingPoints,
		Status:         req.Status,
		Priority:       req.Priority,
		Tags:           req.Tags,
		InitialNote:    req.InitialNote,
	}
	if start != nil {
		in.StartDate = *start
	}

	a, err := h.activity.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	h.metrics.IncActivityCreated()
	c.JSON(http.StatusCreated, gin.H{"activity": a})
}

type editActivityRequest struct {
	Description    *string `json:"description" form:"description"`
	Source         *string `json:"source" form:"source"`
	StartDate      *string `json:"start_date" form:"start_date"`
	EndDate        *string `json:"end_date" form:"end_date"`
	BlockingPoints *string `json:"blocking_points" form:"blocking_points"`
	Status         *string `json:"status" form:"status"`
	Priority       *string `json:"priority" form:"priority"`
	Tags           *string `json:"tags" form:"tags"`
	NewUpdateText  string  `json:"new_update_text" form:"new_update_text"`
	ClosingNote    string  `json:"closing_note" form:"closing_note"`
}

// GET /edit/:id
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_activity_id", err)
		return
	}
	a, err := h.activity.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"activity": a})
}

// POST /edit/:id
func (h *ActivityHandler) Edit(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_activity_id", err)
		return
	}

	var req editActivityRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	in := services.EditActivityInput{
		Description:    req.Description,
		Source:         req.Source,
		BlockingPoints: req.BlockingPoints,
		Status:         req.Status,
		Priority:       req.Priority,
		Tags:           req.Tags,
		NewUpdateText:  req.NewUpdateText,
		ClosingNote:    req.ClosingNote,
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_start_date", err)
			return
		}
		in.StartDate = start
	}
	if req.EndDate != nil {
		// A submitted-but-blank end date clears the stored one.
		if strings.TrimSpace(*req.EndDate) == "" {
			in.ClearEndDate = true
		} else {
			end, err := parseDate(*req.EndDate)
			if err != nil {
				response.RespondError(c, http.StatusBadRequest, "invalid_end_date", err)
				return
			}
			in.EndDate = end
		}
	}

	wasClosed := false
	if before, err := h.activity.Get(c.Request.Context(), id); err == nil {
		wasClosed = before.Status == tracker.StatusClosed
	}

	a, err := h.activity.Edit(c.Request.Context(), id, in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	if !wasClosed && a.Status == tracker.StatusClosed {
		h.metrics.IncActivityClosed()
	}
	response.RespondOK(c, gin.H{"activity": a})
}

// GET /activity/:id
func (h *ActivityHandler) Detail(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_activity_id", err)
		return
	}
	a, err := h.activity.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	today := tracker.DayStart(time.Now())
	activeUntil := today
	if a.EndDate != nil {
		activeUntil = tracker.DayStart(*a.EndDate)
	}
	stats := gin.H{
		"days_active":  int(activeUntil.Sub(tracker.DayStart(a.StartDate)).Hours() / 24),
		"update_count": len(a.Updates),
	}
	if n := len(a.Updates); n > 0 {
		last := tracker.DayStart(a.Updates[n-1].CreatedAt)
		stats["days_since_last_update"] = int(today.Sub(last).Hours() / 24)
	}
	response.RespondOK(c, gin.H{"activity": a, "stats": stats})
}

// GET /delete/:id
func (h *ActivityHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_activity_id", err)
		return
	}
	if err := h.activity.Delete(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /completed
func (h *ActivityHandler) Completed(c *gin.Context) {
	view, err := h.activity.Completed(c.Request.Context())
	if err != nil {
		h.log.Error("Completed list failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "list_completed_failed", err)
		return
	}
	response.RespondOK(c, view)
}

type changeStatusRequest struct {
	Status      string `json:"status" form:"status"`
	ClosingNote string `json:"closing_note" form:"closing_note"`
}

// POST /activity/:id/status
func (h *ActivityHandler) ChangeStatus(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid activity id"})
		return
	}
	var req changeStatusRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	a, err := h.activity.ChangeStatus(c.Request.Context(), id, req.Status, req.ClosingNote)
	if err != nil {
		c.JSON(apierr.Status(err), gin.H{"ok": false, "error": err.Error()})
		return
	}
	if a.Status == tracker.StatusClosed {
		h.metrics.IncActivityClosed()
	}

	endDate := ""
	if a.EndDate != nil {
		endDate = a.EndDate.Format(dateLayout)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": a.Status, "end_date": endDate})
}

type appendUpdateRequest struct {
	Text string `json:"text" form:"text"`
	// Older clients submit update_text.
	UpdateText     string  `json:"update_text" form:"update_text"`
	BlockingPoints *string `json:"blocking_points" form:"blocking_points"`
}

// POST /activity/:id/update
func (h *ActivityHandler) AppendUpdate(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_activity_id", err)
		return
	}
	var req appendUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	text := req.Text
	if text == "" {
		text = req.UpdateText
	}
	u, err := h.activity.AppendUpdate(c.Request.Context(), id, text, req.BlockingPoints)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	h.metrics.IncUpdateAppended()
	c.JSON(http.StatusCreated, gin.H{"update": u})
}

type bulkPriorityRequest struct {
	ActivityIDs []uuid.UUID `json:"activity_ids"`
	Priority    string      `json:"priority"`
}

// POST /activities/bulk/priority
func (h *ActivityHandler) BulkPriority(c *gin.Context) {
	var req bulkPriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	updated, err := h.activity.BulkSetPriority(c.Request.Context(), req.ActivityIDs, req.Priority)
	if err != nil {
		c.JSON(apierr.Status(err), gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "updated_count": updated, "priority": req.Priority})
}
