package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"localdeals-backend/internal/shared"
	"localdeals-backend/internal/shared/response"
)

// RequireRole chặn request nếu role trong token không nằm trong roles.
// Route business còn cần business_id trong token.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(shared.ContextRole)
		if _, ok := allowed[role]; !ok {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient role")
			return
		}

		if role == shared.RoleBusiness {
			if _, ok := BusinessID(c); !ok {
				response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: business account required")
				return
			}
		}

		c.Next()
	}
}
