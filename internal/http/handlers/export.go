package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/activity-tracker-backend/internal/http/response"
	"github.com/yungbote/activity-tracker-backend/internal/observability"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
	"github.com/yungbote/activity-tracker-backend/internal/services"
)

type ExportHandler struct {
	log     *logger.Logger
	export  services.ExportService
	metrics *observability.Metrics
}

func NewExportHandler(log *logger.Logger, export services.ExportService, metrics *observability.Metrics) *ExportHandler {
	return &ExportHandler{
		log:     log.With("handler", "ExportHandler"),
		export:  export,
		metrics: metrics,
	}
}

// GET /export/csv
func (h *ExportHandler) CSV(c *gin.Context) {
	data, err := h.export.ActivitiesCSV(c.Request.Context())
	if err != nil {
		h.log.Error("CSV export failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "export_failed", err)
		return
	}
	h.metrics.IncExportBuilt("csv")

	name := fmt.Sprintf("activities-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// GET /export/all
func (h *ExportHandler) All(c *gin.Context) {
	data, err := h.export.ExportAll(c.Request.Context())
	if err != nil {
		h.log.Error("Full export failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "export_failed", err)
		return
	}
	h.metrics.IncExportBuilt("zip")

	name := fmt.Sprintf("tracker-export-%s.zip", time.Now().UTC().Format("20060102T150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/zip", data)
}
