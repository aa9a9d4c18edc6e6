package middleware

import (
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/soma-lab/relation-core/pkg/logger"
	"github.com/soma-lab/relation-core/pkg/response"
)

// Recovery panic 兜底：上报 sentry、记日志、返回 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic: %v", r)
				if hub := sentry.CurrentHub(); hub.Client() != nil {
					hub.Recover(r)
				}
				logger.Error("request panic",
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", r))
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
					Code:    "INTERNAL_ERROR",
					Message: err.Error(),
				})
			}
		}()
		c.Next()
	}
}
