package middleware

import (
	"net/http"
	"strings"

	"store-service/internal/auth"
	apperrors "store-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware validates JWT tokens and stores the principal in the request
// context. Identity and role always come from the validated token, never from
// the request body.
func AuthMiddleware(jwtManager *auth.JWTManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn("Missing authorization header",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			c.JSON(http.StatusUnauthorized, apperrors.NewStandardError("Unauthorized", "missing authorization header", "Header: Authorization"))
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			logger.Warn("Invalid authorization header format",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			c.JSON(http.StatusUnauthorized, apperrors.NewStandardError("Unauthorized", "invalid authorization header format", "Expected: Bearer <token>"))
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(parts[1])
		if err != nil {
			if err == auth.ErrExpiredToken {
				logger.Warn("Token expired",
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
				c.JSON(http.StatusUnauthorized, apperrors.NewStandardError("Unauthorized", "token expired", "Token has expired, please login again"))
				c.Abort()
				return
			}

			logger.Warn("Invalid token",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Error(err),
			)
			c.JSON(http.StatusUnauthorized, apperrors.NewStandardError("Unauthorized", "invalid token", err.Error()))
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		c.Set("user_id", claims.Subject)

		logger.Debug("Token validated",
			zap.String("username", claims.Username),
			zap.String("role", claims.Role),
			zap.String("path", c.Request.URL.Path),
		)

		c.Next()
	}
}

// RequireRole rejects requests whose authenticated principal does not carry
// the given role. Must run after AuthMiddleware.
func RequireRole(role string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != role {
			logger.Warn("Forbidden",
				zap.String("username", c.GetString("username")),
				zap.String("required_role", role),
				zap.String("path", c.Request.URL.Path),
			)
			c.JSON(http.StatusForbidden, apperrors.NewStandardError("Forbidden", "insufficient role", "Required role: "+role))
			c.Abort()
			return
		}
		c.Next()
	}
}
