package middleware

import (
	"net/http"

	"brigade-service/internal/transport/httpdto"
	"brigade-service/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler logs errors attached by handlers. Handlers normally write their
// own envelope; a generic one is written only when nothing was sent yet.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		log := l
		if log == nil {
			log = logger.GetGlobalLogger()
		}
		if log != nil {
			for _, e := range c.Errors {
				log.WithContext(c.Request.Context()).Errorf("request error: %s %s: %s", c.Request.Method, c.FullPath(), e.Err.Error())
			}
		}

		if c.Writer.Written() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		c.JSON(status, httpdto.NewErrorResponse("internal error", "INTERNAL_ERROR"))
	}
}
