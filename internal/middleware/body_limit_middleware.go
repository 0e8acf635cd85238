package middleware

import (
	"net/http"

	"brigade-service/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// BodyLimit caps request bodies at limit bytes so oversized multipart uploads
// fail before they are spooled to disk. A limit of zero disables the cap.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				httpdto.NewErrorResponse("request body too large", "PAYLOAD_TOO_LARGE"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
