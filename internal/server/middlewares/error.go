package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iot-aicha/stock-counter/pkg/ginx"
	"github.com/iot-aicha/stock-counter/pkg/logger"
)

// ErrorHandler 统一错误处理：捕获 panic 和 c.Error 记录的错误
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf(c.Request.Context(), "[HTTP] panic: %v", r)
				if !c.Writer.Written() {
					ginx.InternalError(c, fmt.Sprintf("internal error: %v", r))
				}
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			log.Errorf(c.Request.Context(), "[HTTP] request failed: %v", err)
			ginx.Error(c, http.StatusInternalServerError, err.Error())
		}
	}
}
