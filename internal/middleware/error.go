package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-v2/gateway/internal/logger"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Recovery turns panics into a JSON 500 and logs them with the request logger
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.FromGin(c).Error("panic while handling request",
					zap.Any("panic", rec),
					zap.Stack("stack"))
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
			}
		}()
		c.Next()
	}
}
