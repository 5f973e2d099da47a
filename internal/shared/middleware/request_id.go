package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"localdeals-backend/internal/shared"
)

const headerRequestID = "X-Request-ID"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}

		c.Set(shared.ContextRequestID, id)
		c.Writer.Header().Set(headerRequestID, id)
		c.Next()
	}
}
