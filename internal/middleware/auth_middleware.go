package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"grouplink-go/internal/apperrors"
	"grouplink-go/internal/auth"
)

// AuthMiddleware 解析 Authorization: Bearer <jwt>。
// 没有携带 token 的请求按匿名处理，携带了无效 token 直接返回 401。
func AuthMiddleware(jwtSecret []byte, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			_ = c.Error(apperrors.Unauthorized())
			c.Abort()
			return
		}

		requester, err := auth.ParseToken(token, jwtSecret)
		if err != nil {
			logger.Info("Rejected bearer token",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			_ = c.Error(apperrors.Unauthorized().WithCause(err))
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(auth.WithRequester(c.Request.Context(), requester))
		c.Next()
	}
}

// RequireUser 拒绝匿名请求
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.FromContext(c.Request.Context()).IsAnonymous() {
			_ = c.Error(apperrors.Unauthorized())
			c.Abort()
			return
		}
		c.Next()
	}
}
