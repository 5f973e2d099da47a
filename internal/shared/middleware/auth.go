package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"localdeals-backend/internal/shared"
	"localdeals-backend/internal/shared/response"
	"localdeals-backend/pkg/jwt"
	"localdeals-backend/pkg/logger"
)

// AuthMiddleware xác thực Bearer access token và đưa danh tính vào context
func AuthMiddleware(tokens *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Lấy token từ Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, 401, "UNAUTHORIZED", "missing authorization header")
			return
		}

		// 2. "Bearer <token>"
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			response.Abort(c, 401, "UNAUTHORIZED", "invalid authorization header format")
			return
		}

		// 3. Verify JWT
		claims, err := tokens.ValidateAccessToken(token)
		if err != nil {
			logger.Debug("rejected access token: " + err.Error())
			response.Abort(c, 401, "UNAUTHORIZED", "invalid token")
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			response.Abort(c, 401, "UNAUTHORIZED", "invalid user ID in token")
			return
		}

		c.Set(shared.ContextUserID, userID)
		c.Set(shared.ContextRole, claims.Role)

		if claims.BusinessID != "" {
			businessID, err := uuid.Parse(claims.BusinessID)
			if err != nil {
				response.Abort(c, 401, "UNAUTHORIZED", "invalid business ID in token")
				return
			}
			c.Set(shared.ContextBusinessID, businessID)
		}

		c.Next()
	}
}

// UserID đọc subscriber/user id do AuthMiddleware set
func UserID(c *gin.Context) (uuid.UUID, bool) {
	return uuidFromContext(c, shared.ContextUserID)
}

// BusinessID đọc business id do AuthMiddleware set
func BusinessID(c *gin.Context) (uuid.UUID, bool) {
	return uuidFromContext(c, shared.ContextBusinessID)
}

func uuidFromContext(c *gin.Context, key string) (uuid.UUID, bool) {
	v, exists := c.Get(key)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
