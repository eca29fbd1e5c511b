package auth

import (
	"net/http"
	"time"

	apperrors "store-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// demoUsers holds the demo credentials and their roles. A real deployment
// would back this with a user store.
var demoUsers = map[string]struct {
	Password string
	Role     string
}{
	"admin":    {Password: "admin123", Role: RoleAdmin},
	"customer": {Password: "customer123", Role: RoleCustomer},
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	jwtManager *JWTManager
	logger     *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(jwtManager *JWTManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// LoginRequest represents the login request
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"admin"`
	Password string `json:"password" binding:"required" example:"admin123"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token     string    `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	Type      string    `json:"type" example:"Bearer"`
	Role      string    `json:"role" example:"admin"`
	ExpiresIn int       `json:"expires_in" example:"600"`
	ExpiresAt time.Time `json:"expires_at" example:"2024-01-15T12:00:00Z"`
}

// Login handles POST /api/v1/auth/login
// @Summary      Login and get JWT token
// @Description  Authenticates a user and returns a JWT token valid for 10 minutes. Demo users: admin/admin123, customer/customer123
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "Login credentials"
// @Success      200      {object}  LoginResponse
// @Failure      400      {object}  apperrors.StandardError
// @Failure      401      {object}  apperrors.StandardError
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, apperrors.NewValidationError("invalid request", "username or password"))
		return
	}

	user, exists := demoUsers[req.Username]
	if !exists || user.Password != req.Password {
		h.logger.Warn("Invalid credentials", zap.String("username", req.Username))
		c.JSON(http.StatusUnauthorized, apperrors.NewStandardError("Unauthorized", "invalid credentials", ""))
		return
	}

	token, err := h.jwtManager.GenerateToken(req.Username, user.Role)
	if err != nil {
		h.logger.Error("Failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, apperrors.NewInternalError("failed to generate token", err))
		return
	}

	expiresAt := time.Now().Add(10 * time.Minute)
	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		Type:      "Bearer",
		Role:      user.Role,
		ExpiresIn: 600,
		ExpiresAt: expiresAt,
	})
}
