package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/activity-tracker-backend/internal/http/response"
)

// OriginGuard rejects mutating cross-origin requests. Requests without an
// Origin header (curl, same-origin form posts from older browsers) pass
// through; this is a single-user local app, not a hardened public surface.
func OriginGuard(enabled bool, allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" {
			if referer := c.GetHeader("Referer"); referer != "" {
				if u, err := url.Parse(referer); err == nil {
					origin = u.Scheme + "://" + u.Host
				}
			}
		}
		if origin != "" && !allowed[origin] {
			response.RespondError(c, http.StatusForbidden, "cross_origin_rejected", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
