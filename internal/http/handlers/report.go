package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/activity-tracker-backend/internal/http/response"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
	"github.com/yungbote/activity-tracker-backend/internal/services"
)

type ReportHandler struct {
	log    *logger.Logger
	report services.ReportService
}

func NewReportHandler(log *logger.Logger, report services.ReportService) *ReportHandler {
	return &ReportHandler{
		log:    log.With("handler", "ReportHandler"),
		report: report,
	}
}

type reportRequest struct {
	From string `json:"from" form:"from"`
	To   string `json:"to" form:"to"`
}

func (h *ReportHandler) query(c *gin.Context) (services.ReportQuery, bool) {
	var req reportRequest
	if c.Request.Method == http.MethodGet {
		req.From = c.Query("from")
		req.To = c.Query("to")
	} else if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return services.ReportQuery{}, false
	}

	var q services.ReportQuery
	from, err := parseDate(req.From)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_from_date", err)
		return services.ReportQuery{}, false
	}
	to, err := parseDate(req.To)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_to_date", err)
		return services.ReportQuery{}, false
	}
	if from != nil {
		q.From = *from
	}
	if to != nil {
		q.To = *to
	}
	return q, true
}

// GET|POST /report
// A bare GET with no range is the report landing view and returns an empty
// shell instead of a validation error.
func (h *ReportHandler) Report(c *gin.Context) {
	if c.Request.Method == http.MethodGet && c.Query("from") == "" && c.Query("to") == "" {
		response.RespondOK(c, gin.H{"report": nil})
		return
	}
	q, ok := h.query(c)
	if !ok {
		return
	}
	view, err := h.report.Build(c.Request.Context(), q)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"report": view})
}

// POST /report/pdf
func (h *ReportHandler) PDF(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	data, err := h.report.RenderPDF(c.Request.Context(), q)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	name := fmt.Sprintf("report-%s-%s.pdf", q.From.Format(dateLayout), q.To.Format(dateLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/pdf", data)
}
