package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"anonchat/internal/logging"
)

const RequestIDHeader = "X-Request-ID"

// RequestID propagates or mints a request id and binds it to the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
