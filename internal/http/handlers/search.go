package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/activity-tracker-backend/internal/http/response"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
	"github.com/yungbote/activity-tracker-backend/internal/services"
)

const searchSnippetLength = 100

type SearchHandler struct {
	log      *logger.Logger
	activity services.ActivityService
}

func NewSearchHandler(log *logger.Logger, activity services.ActivityService) *SearchHandler {
	return &SearchHandler{
		log:      log.With("handler", "SearchHandler"),
		activity: activity,
	}
}

type searchResult struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Source      string `json:"source,omitempty"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	StartDate   string `json:"start_date"`
}

// GET /search?q=
func (h *SearchHandler) Search(c *gin.Context) {
	matches, err := h.activity.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	results := make([]searchResult, 0, len(matches))
	for _, a := range matches {
		results = append(results, searchResult{
			ID:          a.ID.String(),
			Description: truncate(a.Description, searchSnippetLength),
			Source:      a.Source,
			Status:      a.Status,
			Priority:    a.Priority,
			StartDate:   a.StartDate.Format(dateLayout),
		})
	}
	response.RespondOK(c, results)
}
