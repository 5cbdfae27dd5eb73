package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"grouplink-go/internal/apperrors"
	"grouplink-go/internal/i18n"
	"grouplink-go/response"
)

// GlobalErrorMiddleware 全局错误中间件
func GlobalErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// 如果有错误发生
		if len(c.Errors) > 0 {
			for _, err := range c.Errors {
				var appErr *apperrors.AppError
				if errors.As(err.Err, &appErr) {
					message := i18n.T(c.Request.Context(), appErr.Key, appErr.Data, appErr.Message)
					c.AbortWithStatusJSON(appErr.Code, response.ErrorFromAppError(appErr, message))
					return
				}
			}

			// 默认处理未定义的错误
			sysErr := apperrors.SystemError(c.Errors.Last().Err)
			message := i18n.T(c.Request.Context(), sysErr.Key, nil, sysErr.Message)
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.ErrorFromAppError(sysErr, message))
			return
		}
	}
}
