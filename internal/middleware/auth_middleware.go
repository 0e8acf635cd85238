package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"brigade-service/internal/services"
	"brigade-service/internal/transport/httpdto"
	"brigade-service/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TokenParser validates bearer tokens. *services.AuthService satisfies it.
type TokenParser interface {
	ParseAccessToken(token string) (services.AccessClaims, error)
}

func AuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			unauthorized(c)
			return
		}
		claims, err := parser.ParseAccessToken(token)
		if err != nil {
			unauthorized(c)
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			unauthorized(c)
			return
		}

		ctx := services.WithUserContext(c.Request.Context(), userID, claims.Role)
		ctx = context.WithValue(ctx, logger.UserIdKey, strconv.FormatUint(uint64(userID), 10))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, ok := services.RoleFromContext(c.Request.Context())
		if !ok {
			unauthorized(c)
			return
		}
		if got != role {
			c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("forbidden", "FORBIDDEN"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
	c.Abort()
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
