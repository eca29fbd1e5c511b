package middleware

import (
	"net/http"

	apperrors "store-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryHandler recovers from panics and responds with a standard error
// instead of tearing down the connection.
func RecoveryHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					apperrors.NewStandardError("InternalError", "internal server error", ""))
			}
		}()
		c.Next()
	}
}
